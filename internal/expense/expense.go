package expense

import (
	"time"

	expenseDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/expense"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// IsFinal reports whether the workflow is done with the expense.
func (s Status) IsFinal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

const (
	PaidByPersonal = "personal"
	PaidByCompany  = "company"
)

type Expense struct {
	ID            int64               `json:"id"`
	CompanyID     int64               `json:"company_id"`
	UserID        int64               `json:"user_id"`
	CategoryID    *int64              `json:"category_id,omitempty"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      string              `json:"currency"`
	ExpenseDate   Date                `json:"expense_date"`
	Description   string              `json:"description"`
	PaidBy        string              `json:"paid_by"`
	Status        Status              `json:"status"`
	SubmittedAt   *time.Time          `json:"submitted_at,omitempty"`
	CompanyAmount decimal.NullDecimal `json:"company_amount"`
	ExchangeRate  decimal.NullDecimal `json:"exchange_rate"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func (e *Expense) IsDraft() bool {
	return e.Status == StatusDraft
}

func (e *Expense) IsOwnedBy(userID int64) bool {
	return e.UserID == userID
}

func NewExpense(companyID, userID int64, dto CreateExpenseDTO, date time.Time) *Expense {
	now := time.Now()
	return &Expense{
		CompanyID:   companyID,
		UserID:      userID,
		CategoryID:  dto.CategoryID,
		Amount:      dto.Amount,
		Currency:    dto.Currency,
		ExpenseDate: Date{Time: date},
		Description: dto.Description,
		PaidBy:      dto.PaidBy,
		Status:      StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	return &expenseDatamodel.Expense{
		ID:            e.ID,
		CompanyID:     e.CompanyID,
		UserID:        e.UserID,
		CategoryID:    e.CategoryID,
		Amount:        e.Amount,
		Currency:      e.Currency,
		ExpenseDate:   e.ExpenseDate.Time,
		Description:   e.Description,
		PaidBy:        e.PaidBy,
		Status:        string(e.Status),
		SubmittedAt:   e.SubmittedAt,
		CompanyAmount: e.CompanyAmount,
		ExchangeRate:  e.ExchangeRate,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func FromDataModel(e *expenseDatamodel.Expense) *Expense {
	return &Expense{
		ID:            e.ID,
		CompanyID:     e.CompanyID,
		UserID:        e.UserID,
		CategoryID:    e.CategoryID,
		Amount:        e.Amount,
		Currency:      e.Currency,
		ExpenseDate:   Date{Time: e.ExpenseDate},
		Description:   e.Description,
		PaidBy:        e.PaidBy,
		Status:        Status(e.Status),
		SubmittedAt:   e.SubmittedAt,
		CompanyAmount: e.CompanyAmount,
		ExchangeRate:  e.ExchangeRate,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func FromDataModelSlice(expenses []*expenseDatamodel.Expense) []*Expense {
	result := make([]*Expense, len(expenses))
	for i, e := range expenses {
		result[i] = FromDataModel(e)
	}
	return result
}

// SubmitResult is what the approval workflow reports back for a submission.
type SubmitResult struct {
	Expense          *Expense `json:"expense"`
	RuleID           *int64   `json:"rule_id,omitempty"`
	RuleName         string   `json:"rule_name,omitempty"`
	ApprovalsCreated int      `json:"approvals_created"`
	AutoApproved     bool     `json:"auto_approved"`
}
