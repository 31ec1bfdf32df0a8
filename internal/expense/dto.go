package expense

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

// CreateExpenseDTO represents the request payload for creating an expense
type CreateExpenseDTO struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	ExpenseDate string          `json:"expense_date"`
	Description string          `json:"description"`
	PaidBy      string          `json:"paid_by"`
	CategoryID  *int64          `json:"category_id,omitempty"`
}

// Validate normalises the payload and returns the parsed expense date.
func (dto *CreateExpenseDTO) Validate() (time.Time, *errors.AppError) {
	dto.Currency = strings.ToUpper(strings.TrimSpace(dto.Currency))
	dto.Description = strings.TrimSpace(dto.Description)
	dto.PaidBy = strings.ToLower(strings.TrimSpace(dto.PaidBy))
	if dto.PaidBy == "" {
		dto.PaidBy = PaidByPersonal
	}

	date, dateErr := parseExpenseDate(dto.ExpenseDate)

	v := validation.NewValidator()
	v.Field("amount", dto.Amount).
		Positive(errors.ErrCodeInvalidAmount).
		MaxDecimalPlaces(2, errors.ErrCodeInvalidAmount)
	v.Field("currency", dto.Currency).Required().Currency()
	v.Field("description", dto.Description).MaxLength(500)
	v.Field("paid_by", dto.PaidBy).OneOf(PaidByPersonal, PaidByCompany)
	v.Field("expense_date", date).Custom(func(interface{}) *errors.AppError { return dateErr }).NotFuture()
	if dto.CategoryID != nil {
		v.Field("category_id", *dto.CategoryID).Custom(positiveID("category_id"))
	}
	return date, v.Validate()
}

// UpdateExpenseDTO changes a draft. Nil fields stay as they are.
type UpdateExpenseDTO struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Currency    *string          `json:"currency,omitempty"`
	ExpenseDate *string          `json:"expense_date,omitempty"`
	Description *string          `json:"description,omitempty"`
	PaidBy      *string          `json:"paid_by,omitempty"`
	CategoryID  *int64           `json:"category_id,omitempty"`
}

func (dto *UpdateExpenseDTO) Validate() (*time.Time, *errors.AppError) {
	v := validation.NewValidator()
	var date *time.Time

	if dto.Amount != nil {
		v.Field("amount", *dto.Amount).
			Positive(errors.ErrCodeInvalidAmount).
			MaxDecimalPlaces(2, errors.ErrCodeInvalidAmount)
	}
	if dto.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*dto.Currency))
		dto.Currency = &currency
		v.Field("currency", currency).Required().Currency()
	}
	if dto.Description != nil {
		desc := strings.TrimSpace(*dto.Description)
		dto.Description = &desc
		v.Field("description", desc).MaxLength(500)
	}
	if dto.PaidBy != nil {
		paidBy := strings.ToLower(strings.TrimSpace(*dto.PaidBy))
		dto.PaidBy = &paidBy
		v.Field("paid_by", paidBy).OneOf(PaidByPersonal, PaidByCompany)
	}
	if dto.ExpenseDate != nil {
		parsed, dateErr := parseExpenseDate(*dto.ExpenseDate)
		date = &parsed
		v.Field("expense_date", parsed).Custom(func(interface{}) *errors.AppError { return dateErr }).NotFuture()
	}
	if dto.CategoryID != nil {
		v.Field("category_id", *dto.CategoryID).Custom(positiveID("category_id"))
	}
	return date, v.Validate()
}

type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

func (f ListFilter) Validate() *errors.AppError {
	if f.Status != "" && !f.Status.Valid() {
		return errors.NewValidationFieldError("status", "status must be one of: draft, submitted, approved, rejected", errors.ErrCodeValidationFailed)
	}
	return nil
}

type ExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

func parseExpenseDate(raw string) (time.Time, *errors.AppError) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, errors.NewValidationFieldError("expense_date", "expense_date is required", errors.ErrCodeInvalidDate)
	}
	d, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, errors.NewValidationFieldError("expense_date", err.Error(), errors.ErrCodeInvalidDate)
	}
	return d.Time, nil
}

func positiveID(field string) func(interface{}) *errors.AppError {
	return func(value interface{}) *errors.AppError {
		if id, ok := value.(int64); ok && id <= 0 {
			return errors.NewValidationFieldError(field, field+" must be a positive id", errors.ErrCodeValidationFailed)
		}
		return nil
	}
}
