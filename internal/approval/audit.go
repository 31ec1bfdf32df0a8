package approval

import (
	"context"
	"log/slog"
	"time"

	auditDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/audit"
)

type AuditAction string

const (
	ActionSubmitted       AuditAction = "submitted"
	ActionAutoApproved    AuditAction = "auto_approved"
	ActionApprovalCreated AuditAction = "approval_created"
	ActionApproved        AuditAction = "approved"
	ActionRejected        AuditAction = "rejected"
	ActionExpenseApproved AuditAction = "expense_approved"
	ActionExpenseRejected AuditAction = "expense_rejected"
)

type AuditEntry struct {
	ID           int64       `json:"id"`
	ExpenseID    int64       `json:"expense_id"`
	ApprovalID   *int64      `json:"approval_id,omitempty"`
	ActorUserID  *int64      `json:"actor_user_id,omitempty"`
	Action       AuditAction `json:"action"`
	StatusBefore string      `json:"status_before,omitempty"`
	StatusAfter  string      `json:"status_after,omitempty"`
	Comments     string      `json:"comments,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

type AuditRepository interface {
	Append(ctx context.Context, entries []*auditDatamodel.Entry) error
	ListByExpense(ctx context.Context, expenseID int64) ([]*auditDatamodel.Entry, error)
}

// AuditTrail appends workflow decisions. Write failures are logged, never returned.
type AuditTrail struct {
	repo   AuditRepository
	logger *slog.Logger
}

func NewAuditTrail(repo AuditRepository, logger *slog.Logger) *AuditTrail {
	return &AuditTrail{repo: repo, logger: logger}
}

func (t *AuditTrail) Record(ctx context.Context, entries ...*auditDatamodel.Entry) {
	if len(entries) == 0 {
		return
	}
	if err := t.repo.Append(ctx, entries); err != nil {
		t.logger.ErrorContext(ctx, "failed to write audit trail",
			"expense_id", entries[0].ExpenseID,
			"entries", len(entries),
			"error", err)
	}
}

func (t *AuditTrail) History(ctx context.Context, expenseID int64) ([]*AuditEntry, error) {
	rows, err := t.repo.ListByExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	entries := make([]*AuditEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, &AuditEntry{
			ID:           r.ID,
			ExpenseID:    r.ExpenseID,
			ApprovalID:   r.ApprovalID,
			ActorUserID:  r.ActorUserID,
			Action:       AuditAction(r.Action),
			StatusBefore: r.StatusBefore,
			StatusAfter:  r.StatusAfter,
			Comments:     r.Comments,
			CreatedAt:    r.CreatedAt,
		})
	}
	return entries, nil
}

type auditBuilder struct {
	companyID int64
	expenseID int64
	actorID   *int64
	entries   []*auditDatamodel.Entry
}

func newAuditBuilder(companyID, expenseID int64, actorID *int64) *auditBuilder {
	return &auditBuilder{companyID: companyID, expenseID: expenseID, actorID: actorID}
}

func (b *auditBuilder) add(action AuditAction, approvalID *int64, before, after, comments string) {
	b.entries = append(b.entries, &auditDatamodel.Entry{
		CompanyID:    b.companyID,
		ExpenseID:    b.expenseID,
		ApprovalID:   approvalID,
		ActorUserID:  b.actorID,
		Action:       string(action),
		StatusBefore: before,
		StatusAfter:  after,
		Comments:     comments,
	})
}
