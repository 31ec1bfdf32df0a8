package postgres

import (
	"context"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/database"
	auditDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

// AuditRepository only appends; rows are never updated.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, entries []*auditDatamodel.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := database.Conn(ctx, r.db).Create(&entries).Error; err != nil {
		return internal.NewStorageError("approval_audit_log", entries[0].ExpenseID, "append", err)
	}
	return nil
}

func (r *AuditRepository) ListByExpense(ctx context.Context, expenseID int64) ([]*auditDatamodel.Entry, error) {
	var entries []*auditDatamodel.Entry
	err := database.Conn(ctx, r.db).
		Where("expense_id = ?", expenseID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, internal.NewStorageError("approval_audit_log", expenseID, "list", err)
	}
	return entries, nil
}
