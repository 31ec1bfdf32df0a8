package currency

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/shopspring/decimal"
)

// RateTable holds the oracle's rates for one base currency.
type RateTable struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// RateProvider fetches all rates quoted against base.
type RateProvider interface {
	Rates(ctx context.Context, base string) (*RateTable, error)
}

// Conversion is an amount expressed in the target currency.
type Conversion struct {
	Amount decimal.Decimal `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
	Date   string          `json:"date,omitempty"`
}

type Normalizer struct {
	provider RateProvider
	logger   *slog.Logger
}

func NewNormalizer(provider RateProvider, logger *slog.Logger) *Normalizer {
	return &Normalizer{provider: provider, logger: logger}
}

// Rates returns the oracle table for base; a failed lookup is reported as RATE_UNAVAILABLE.
func (n *Normalizer) Rates(ctx context.Context, base string) (*RateTable, error) {
	base = strings.ToUpper(base)
	table, err := n.provider.Rates(ctx, base)
	if err != nil {
		n.logger.WarnContext(ctx, "exchange rate table lookup failed", "base", base, "error", err)
		return nil, internal.NewRateUnavailableError(base, "*", err)
	}
	return table, nil
}

// Convert expresses amount (in from) in currency to, rounded to cents.
// Identical currencies never reach the oracle.
func (n *Normalizer) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*Conversion, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return &Conversion{Amount: amount, Rate: decimal.NewFromInt(1)}, nil
	}

	table, err := n.provider.Rates(ctx, from)
	if err != nil {
		n.logger.WarnContext(ctx, "exchange rate lookup failed", "from", from, "to", to, "error", err)
		return nil, internal.NewRateUnavailableError(from, to, err)
	}

	rate, ok := table.Rates[to]
	if !ok || !rate.IsPositive() {
		n.logger.WarnContext(ctx, "exchange rate missing from oracle response", "from", from, "to", to, "date", table.Date)
		return nil, internal.NewRateUnavailableError(from, to, fmt.Errorf("no %s rate in %s table", to, from))
	}

	converted := amount.Mul(rate).Round(2)
	n.logger.DebugContext(ctx, "amount converted",
		"from", from, "to", to,
		"rate", rate.String(),
		"amount", amount.String(),
		"converted", converted.String())

	return &Conversion{Amount: converted, Rate: rate, Date: table.Date}, nil
}
