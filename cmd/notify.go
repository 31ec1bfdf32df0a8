package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/frahmantamala/expense-approval/internal/core/events"
	"github.com/frahmantamala/expense-approval/internal/notification"
	"github.com/frahmantamala/expense-approval/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	notifyEventType string
	notifyExpenseID int64
	notifyWebhook   string
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a test notification",
	Long:  `Post a sample workflow event to the configured webhook to verify delivery end to end`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTestNotification(cmd.Context())
	},
}

func sendTestNotification(ctx context.Context) error {
	if !slices.Contains(events.WorkflowEventTypes, notifyEventType) {
		return fmt.Errorf("unknown event type %q, expected one of: %s", notifyEventType, strings.Join(events.WorkflowEventTypes, ", "))
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	initLogger(cfg)
	lg := logger.LoggerWrapper()

	if notifyWebhook != "" {
		cfg.Notification.WebhookURL = notifyWebhook
	}
	if cfg.Notification.WebhookURL == "" {
		return fmt.Errorf("no webhook configured; set notification.webhook_url or pass --webhook")
	}

	dispatcher := notification.NewDispatcher(cfg.Notification, lg)
	defer dispatcher.Shutdown()

	event := events.NewExpenseEvent(notifyEventType, notifyExpenseID, 0, 0, "0.00", "EUR", nil)
	delivery := notification.NewDelivery(event)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	lg.Info("sending test notification", "event_type", notifyEventType, "delivery_id", delivery.ID, "webhook", cfg.Notification.WebhookURL)
	if err := dispatcher.Send(ctx, delivery); err != nil {
		return fmt.Errorf("delivery failed: %w", err)
	}
	lg.Info("test notification delivered", "delivery_id", delivery.ID)
	return nil
}

func init() {
	notifyCmd.Flags().StringVarP(&notifyEventType, "event", "e", events.EventTypeExpenseSubmitted, "workflow event type to send")
	notifyCmd.Flags().Int64Var(&notifyExpenseID, "expense-id", 1, "expense id placed in the payload")
	notifyCmd.Flags().StringVar(&notifyWebhook, "webhook", "", "override the configured webhook url")
}
