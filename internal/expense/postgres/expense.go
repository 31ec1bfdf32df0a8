package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/database"
	expenseDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-approval/internal/expense"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExpenseRepository implements expense.Repository and the workflow's status writes using GORM
type ExpenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

var _ expense.Repository = (*ExpenseRepository)(nil)

func (r *ExpenseRepository) Create(ctx context.Context, exp *expenseDatamodel.Expense) error {
	if err := database.Conn(ctx, r.db).Create(exp).Error; err != nil {
		return internal.NewStorageError("expense", nil, "create", err)
	}
	return nil
}

func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*expenseDatamodel.Expense, error) {
	var exp expenseDatamodel.Expense
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&exp).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrExpenseNotFound
		}
		return nil, internal.NewStorageError("expense", id, "get", err)
	}
	return &exp, nil
}

// GetForUpdate reads the row under a row lock so concurrent decisions on one expense serialize.
func (r *ExpenseRepository) GetForUpdate(ctx context.Context, id int64) (*expenseDatamodel.Expense, error) {
	var exp expenseDatamodel.Expense
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&exp).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrExpenseNotFound
		}
		return nil, internal.NewStorageError("expense", id, "lock", err)
	}
	return &exp, nil
}

func (r *ExpenseRepository) List(ctx context.Context, q expense.ListQuery) ([]*expenseDatamodel.Expense, error) {
	var expenses []*expenseDatamodel.Expense
	tx := database.Conn(ctx, r.db).Where("company_id = ?", q.CompanyID)
	if q.UserID != nil {
		tx = tx.Where("user_id = ?", *q.UserID)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", string(q.Status))
	}
	err := tx.Order("created_at DESC, id DESC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&expenses).Error
	if err != nil {
		return nil, internal.NewStorageError("expense", nil, "list", err)
	}
	return expenses, nil
}

// UpdateDraft writes the editable columns only while the row is still a draft.
func (r *ExpenseRepository) UpdateDraft(ctx context.Context, exp *expenseDatamodel.Expense) error {
	res := database.Conn(ctx, r.db).Model(&expenseDatamodel.Expense{}).
		Where("id = ? AND status = ?", exp.ID, string(expense.StatusDraft)).
		Updates(map[string]interface{}{
			"category_id":  exp.CategoryID,
			"amount":       exp.Amount,
			"currency":     exp.Currency,
			"expense_date": exp.ExpenseDate,
			"description":  exp.Description,
			"paid_by":      exp.PaidBy,
		})
	if res.Error != nil {
		return internal.NewStorageError("expense", exp.ID, "update", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrCannotModifyExpense
	}
	return nil
}

func (r *ExpenseRepository) DeleteDraft(ctx context.Context, id int64) error {
	res := database.Conn(ctx, r.db).
		Where("id = ? AND status = ?", id, string(expense.StatusDraft)).
		Delete(&expenseDatamodel.Expense{})
	if res.Error != nil {
		return internal.NewStorageError("expense", id, "delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrCannotModifyExpense
	}
	return nil
}

// MarkSubmitted moves a draft to submitted and records the conversion. It reports
// false when the row was no longer a draft, which is how concurrent submits lose.
func (r *ExpenseRepository) MarkSubmitted(ctx context.Context, id int64, companyAmount, rate decimal.Decimal, at time.Time) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&expenseDatamodel.Expense{}).
		Where("id = ? AND status = ?", id, string(expense.StatusDraft)).
		Updates(map[string]interface{}{
			"status":         string(expense.StatusSubmitted),
			"submitted_at":   at,
			"company_amount": decimal.NewNullDecimal(companyAmount),
			"exchange_rate":  decimal.NewNullDecimal(rate),
		})
	if res.Error != nil {
		return false, internal.NewStorageError("expense", id, "submit", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// TransitionStatus is a compare-and-set on the status column.
func (r *ExpenseRepository) TransitionStatus(ctx context.Context, id int64, from, to expense.Status) (bool, error) {
	res := database.Conn(ctx, r.db).Model(&expenseDatamodel.Expense{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return false, internal.NewStorageError("expense", id, "update status", res.Error)
	}
	return res.RowsAffected == 1, nil
}
