package approvalrule

import (
	"strings"

	errors "github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

const (
	DefaultPriority   = 1
	DefaultPercentage = 100
)

type CreateRuleDTO struct {
	Name               string           `json:"name"`
	CategoryID         *int64           `json:"category_id,omitempty"`
	CurrencyCode       string           `json:"currency_code,omitempty"`
	MinAmount          *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount          *decimal.Decimal `json:"max_amount,omitempty"`
	Priority           *int             `json:"priority,omitempty"`
	IsSequential       bool             `json:"is_sequential"`
	ApprovalPercentage *int             `json:"approval_percentage,omitempty"`
	ApproverUserIDs    []int64          `json:"approver_user_ids"`
}

// Validate normalises the payload and fills defaults. An empty currency becomes baseCurrency.
func (dto *CreateRuleDTO) Validate(baseCurrency string) *errors.AppError {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.CurrencyCode = strings.ToUpper(strings.TrimSpace(dto.CurrencyCode))
	if dto.CurrencyCode == "" {
		dto.CurrencyCode = baseCurrency
	}
	if dto.MinAmount == nil {
		zero := decimal.Zero
		dto.MinAmount = &zero
	}
	if dto.Priority == nil {
		p := DefaultPriority
		dto.Priority = &p
	}
	if dto.ApprovalPercentage == nil {
		p := DefaultPercentage
		dto.ApprovalPercentage = &p
	}

	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(200)
	v.Field("currency_code", dto.CurrencyCode).Required().Currency().Custom(sameCurrency(baseCurrency))
	v.Field("min_amount", *dto.MinAmount).NonNegative(errors.ErrCodeInvalidAmount).MaxDecimalPlaces(2, errors.ErrCodeInvalidAmount)
	if dto.MaxAmount != nil {
		v.Field("max_amount", *dto.MaxAmount).
			NonNegative(errors.ErrCodeInvalidAmount).
			MaxDecimalPlaces(2, errors.ErrCodeInvalidAmount).
			Custom(aboveMin(*dto.MinAmount))
	}
	v.Field("priority", *dto.Priority).IntRange(1, 10, errors.ErrCodeValidationFailed)
	v.Field("approval_percentage", *dto.ApprovalPercentage).IntRange(1, 100, errors.ErrCodeInvalidPercentage)
	v.Field("approver_user_ids", dto.ApproverUserIDs).Custom(distinctIDs)
	if dto.CategoryID != nil && *dto.CategoryID <= 0 {
		v.Field("category_id", *dto.CategoryID).Custom(func(interface{}) *errors.AppError {
			return errors.NewValidationFieldError("category_id", "category_id must be a positive id", errors.ErrCodeInvalidCategory)
		})
	}
	return v.Validate()
}

// UpdateRuleDTO changes a rule. Nil fields are left alone; a non-nil ApproverUserIDs replaces the list.
type UpdateRuleDTO struct {
	Name               *string          `json:"name,omitempty"`
	CategoryID         *int64           `json:"category_id,omitempty"`
	ClearCategory      bool             `json:"clear_category,omitempty"`
	CurrencyCode       *string          `json:"currency_code,omitempty"`
	MinAmount          *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount          *decimal.Decimal `json:"max_amount,omitempty"`
	ClearMaxAmount     bool             `json:"clear_max_amount,omitempty"`
	Priority           *int             `json:"priority,omitempty"`
	IsSequential       *bool            `json:"is_sequential,omitempty"`
	ApprovalPercentage *int             `json:"approval_percentage,omitempty"`
	IsActive           *bool            `json:"is_active,omitempty"`
	ApproverUserIDs    *[]int64         `json:"approver_user_ids,omitempty"`
}

// Apply merges the changes into r and validates the result as a whole.
func (dto *UpdateRuleDTO) Apply(r *Rule, baseCurrency string) *errors.AppError {
	if dto.Name != nil {
		r.Name = strings.TrimSpace(*dto.Name)
	}
	if dto.ClearCategory {
		r.CategoryID = nil
	} else if dto.CategoryID != nil {
		r.CategoryID = dto.CategoryID
	}
	if dto.CurrencyCode != nil {
		r.CurrencyCode = strings.ToUpper(strings.TrimSpace(*dto.CurrencyCode))
	}
	if dto.MinAmount != nil {
		r.MinAmount = *dto.MinAmount
	}
	if dto.ClearMaxAmount {
		r.MaxAmount = decimal.NullDecimal{}
	} else if dto.MaxAmount != nil {
		r.MaxAmount = decimal.NewNullDecimal(*dto.MaxAmount)
	}
	if dto.Priority != nil {
		r.Priority = *dto.Priority
	}
	if dto.IsSequential != nil {
		r.IsSequential = *dto.IsSequential
	}
	if dto.ApprovalPercentage != nil {
		r.ApprovalPercentage = *dto.ApprovalPercentage
	}
	if dto.IsActive != nil {
		r.IsActive = *dto.IsActive
	}

	v := validation.NewValidator()
	v.Field("name", r.Name).Required().MaxLength(200)
	v.Field("currency_code", r.CurrencyCode).Required().Currency().Custom(sameCurrency(baseCurrency))
	v.Field("min_amount", r.MinAmount).NonNegative(errors.ErrCodeInvalidAmount).MaxDecimalPlaces(2, errors.ErrCodeInvalidAmount)
	if r.MaxAmount.Valid {
		v.Field("max_amount", r.MaxAmount.Decimal).
			NonNegative(errors.ErrCodeInvalidAmount).
			MaxDecimalPlaces(2, errors.ErrCodeInvalidAmount).
			Custom(aboveMin(r.MinAmount))
	}
	v.Field("priority", r.Priority).IntRange(1, 10, errors.ErrCodeValidationFailed)
	v.Field("approval_percentage", r.ApprovalPercentage).IntRange(1, 100, errors.ErrCodeInvalidPercentage)
	if dto.ApproverUserIDs != nil {
		v.Field("approver_user_ids", *dto.ApproverUserIDs).Custom(distinctIDs)
	}
	return v.Validate()
}

type ListFilter struct {
	IsActive   *bool
	CategoryID *int64
}

type RulesResponse struct {
	Rules []*Rule `json:"rules"`
}

type DeleteResult struct {
	RuleID      int64 `json:"rule_id"`
	Deleted     bool  `json:"deleted"`
	Deactivated bool  `json:"deactivated"`
}

func sameCurrency(base string) func(interface{}) *errors.AppError {
	return func(value interface{}) *errors.AppError {
		if code, ok := value.(string); ok && base != "" && code != base {
			return errors.NewValidationFieldError("currency_code", "currency_code must match the company currency "+base, errors.ErrCodeInvalidCurrency)
		}
		return nil
	}
}

func aboveMin(min decimal.Decimal) func(interface{}) *errors.AppError {
	return func(value interface{}) *errors.AppError {
		if max, ok := value.(decimal.Decimal); ok && !max.GreaterThan(min) {
			return errors.NewValidationFieldError("max_amount", "max_amount must be greater than min_amount", errors.ErrCodeInvalidRange)
		}
		return nil
	}
}

func distinctIDs(value interface{}) *errors.AppError {
	ids, _ := value.([]int64)
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return errors.NewValidationFieldError("approver_user_ids", "approver ids must be positive", errors.ErrCodeInvalidApprover)
		}
		if _, dup := seen[id]; dup {
			return errors.NewValidationFieldError("approver_user_ids", "approver ids must be distinct", errors.ErrCodeInvalidApprover)
		}
		seen[id] = struct{}{}
	}
	return nil
}
