package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/approval"
	"github.com/frahmantamala/expense-approval/internal/core/database"
	approvalDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approval"
	"github.com/frahmantamala/expense-approval/internal/expense"
	"gorm.io/gorm"
)

type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

var _ approval.Repository = (*ApprovalRepository)(nil)

// CreateBatch inserts all records in one statement; a repeat for the same expense and rule is a conflict.
func (r *ApprovalRepository) CreateBatch(ctx context.Context, approvals []*approvalDatamodel.Approval) error {
	if len(approvals) == 0 {
		return nil
	}
	if err := database.Conn(ctx, r.db).Create(&approvals).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return internal.ErrDuplicateApproval.WithCause(err)
		}
		return internal.NewStorageError("approval", approvals[0].ExpenseID, "create_batch", err)
	}
	return nil
}

func (r *ApprovalRepository) GetByID(ctx context.Context, id int64) (*approvalDatamodel.Approval, error) {
	var a approvalDatamodel.Approval
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&a).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrApprovalNotFound
		}
		return nil, internal.NewStorageError("approval", id, "get", err)
	}
	return &a, nil
}

func (r *ApprovalRepository) ListByExpense(ctx context.Context, expenseID int64) ([]*approvalDatamodel.Approval, error) {
	var approvals []*approvalDatamodel.Approval
	err := database.Conn(ctx, r.db).
		Where("expense_id = ?", expenseID).
		Order("order_index ASC, id ASC").
		Find(&approvals).Error
	if err != nil {
		return nil, internal.NewStorageError("approval", expenseID, "list_by_expense", err)
	}
	return approvals, nil
}

func (r *ApprovalRepository) List(ctx context.Context, q approval.ListQuery) ([]*approvalDatamodel.Approval, error) {
	query := database.Conn(ctx, r.db).
		Model(&approvalDatamodel.Approval{}).
		Select("approvals.*").
		Joins("JOIN expenses ON expenses.id = approvals.expense_id").
		Where("expenses.company_id = ?", q.CompanyID)

	if q.ApproverID != nil {
		query = query.Where("approvals.approver_user_id = ?", *q.ApproverID)
	}
	if q.Status != "" {
		query = query.Where("approvals.status = ?", string(q.Status))
	}
	if q.ExpenseID != nil {
		query = query.Where("approvals.expense_id = ?", *q.ExpenseID)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}

	var approvals []*approvalDatamodel.Approval
	if err := query.Order("approvals.created_at DESC, approvals.id DESC").Find(&approvals).Error; err != nil {
		return nil, internal.NewStorageError("approval", nil, "list", err)
	}
	return approvals, nil
}

// Respond records the decision only while the approval is pending and its expense is still submitted.
func (r *ApprovalRepository) Respond(ctx context.Context, id int64, status approval.Status, comments *string, at time.Time) (bool, error) {
	result := database.Conn(ctx, r.db).
		Model(&approvalDatamodel.Approval{}).
		Where("id = ? AND status = ?", id, string(approval.StatusPending)).
		Where("EXISTS (SELECT 1 FROM expenses WHERE expenses.id = approvals.expense_id AND expenses.status = ?)", string(expense.StatusSubmitted)).
		Updates(map[string]interface{}{
			"status":       string(status),
			"comments":     comments,
			"responded_at": at,
		})
	if result.Error != nil {
		return false, internal.NewStorageError("approval", id, "respond", result.Error)
	}
	return result.RowsAffected == 1, nil
}
