package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/events"
	"github.com/google/uuid"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 100
	defaultTimeout   = 5 * time.Second
)

// Delivery is the JSON body posted to the webhook for one workflow event.
type Delivery struct {
	ID         string      `json:"delivery_id"`
	EventID    string      `json:"event_id"`
	EventType  string      `json:"event_type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

func NewDelivery(event events.Event) Delivery {
	return Delivery{
		ID:         uuid.New().String(),
		EventID:    event.EventID(),
		EventType:  event.EventType(),
		OccurredAt: event.OccurredAt(),
		Payload:    event.Payload(),
	}
}

type worker struct {
	id     int
	pool   chan chan Delivery
	jobs   chan Delivery
	logger *slog.Logger
}

func newWorker(id int, pool chan chan Delivery, logger *slog.Logger) *worker {
	return &worker{id: id, pool: pool, jobs: make(chan Delivery), logger: logger}
}

func (w *worker) start(ctx context.Context, wg *sync.WaitGroup, process func(Delivery)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case w.pool <- w.jobs:
			case <-ctx.Done():
				w.logger.Debug("notification worker shutting down", "worker_id", w.id)
				return
			}

			select {
			case d := <-w.jobs:
				process(d)
			case <-ctx.Done():
				w.logger.Debug("notification worker shutting down", "worker_id", w.id)
				return
			}
		}
	}()
}

// Dispatcher delivers workflow events to a webhook through a bounded worker pool.
// A full queue drops the delivery; nothing here ever fails the workflow.
type Dispatcher struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger

	queue      chan Delivery
	pool       chan chan Delivery
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewDispatcher(cfg internal.NotificationConfig, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = defaultWorkers
	}
	queueSize := cfg.JobQueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	d := &Dispatcher{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		queue:      make(chan Delivery, queueSize),
		pool:       make(chan chan Delivery, workers),
		maxWorkers: workers,
		ctx:        ctx,
		cancel:     cancel,
	}
	d.start()
	return d
}

func (d *Dispatcher) start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			newWorker(i, d.pool, d.logger).start(d.ctx, &d.wg, d.process)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("notification worker pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.queue))
	})
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case job := <-d.queue:
			select {
			case jobs := <-d.pool:
				select {
				case jobs <- job:
				case <-d.ctx.Done():
					return
				}
			case <-d.ctx.Done():
				return
			}
		case <-d.ctx.Done():
			d.logger.Info("notification dispatcher shutting down")
			return
		}
	}
}

// Register subscribes the dispatcher to every workflow event.
func (d *Dispatcher) Register(bus *events.EventBus) {
	for _, t := range events.WorkflowEventTypes {
		bus.Subscribe(t, d.Handle)
	}
	d.logger.Info("notification handlers registered", "handlers", events.WorkflowEventTypes)
}

// Handle is the bus handler. It only queues.
func (d *Dispatcher) Handle(_ context.Context, event events.Event) error {
	d.Enqueue(NewDelivery(event))
	return nil
}

// Enqueue reports false when the queue is full and the delivery was dropped.
func (d *Dispatcher) Enqueue(delivery Delivery) bool {
	select {
	case d.queue <- delivery:
		d.logger.Debug("notification queued",
			"delivery_id", delivery.ID,
			"event_type", delivery.EventType,
			"queue_length", len(d.queue))
		return true
	default:
		d.logger.Warn("notification queue full, dropping delivery",
			"delivery_id", delivery.ID,
			"event_type", delivery.EventType,
			"queue_capacity", cap(d.queue))
		return false
	}
}

func (d *Dispatcher) process(delivery Delivery) {
	if err := d.Send(d.ctx, delivery); err != nil {
		d.logger.Error("notification delivery failed",
			"delivery_id", delivery.ID,
			"event_type", delivery.EventType,
			"error", err)
	}
}

// Send posts one delivery synchronously; any non-2xx answer is an error.
func (d *Dispatcher) Send(ctx context.Context, delivery Delivery) error {
	body, err := json.Marshal(delivery)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", delivery.EventType)
	req.Header.Set("X-Delivery-ID", delivery.ID)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	d.logger.Info("notification delivered",
		"delivery_id", delivery.ID,
		"event_type", delivery.EventType,
		"status_code", resp.StatusCode)
	return nil
}

// Shutdown stops the workers; queued deliveries are dropped.
func (d *Dispatcher) Shutdown() {
	d.logger.Info("shutting down notification dispatcher")
	d.cancel()
	d.wg.Wait()
	d.logger.Info("notification dispatcher shutdown complete")
}
