package currency

import (
	"strings"

	errors "github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

type ConvertDTO struct {
	Amount decimal.Decimal `json:"amount"`
	From   string          `json:"from"`
	To     string          `json:"to"`
}

func (dto *ConvertDTO) Validate() *errors.AppError {
	dto.From = strings.ToUpper(strings.TrimSpace(dto.From))
	dto.To = strings.ToUpper(strings.TrimSpace(dto.To))

	v := validation.NewValidator()
	v.Field("amount", dto.Amount).Positive(errors.ErrCodeInvalidAmount)
	v.Field("from", dto.From).Required().Currency()
	v.Field("to", dto.To).Required().Currency()
	return v.Validate()
}

type ConvertResponse struct {
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	OriginalCurrency string          `json:"original_currency"`
	ConvertedAmount  decimal.Decimal `json:"converted_amount"`
	TargetCurrency   string          `json:"target_currency"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`
	RateDate         string          `json:"rate_date,omitempty"`
}
