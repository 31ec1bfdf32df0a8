package approval

import (
	"github.com/frahmantamala/expense-approval/internal/approvalrule"
	"github.com/shopspring/decimal"
)

type ruleTier func(r *approvalrule.Rule) bool

// FindMatchingRule picks the single rule for an expense. Tiers are tried in order and the
// first rule satisfying a tier wins, so rules must arrive oldest first:
//
//  1. same category, amount within [min, max]
//  2. same category, no max (catch-all for the category)
//  3. any category, amount within [min, max]
//  4. any category, no max (company default)
//
// amount must already be in the company currency. A nil result means auto-approve.
func FindMatchingRule(categoryID *int64, amount decimal.Decimal, rules []*approvalrule.Rule) *approvalrule.Rule {
	tiers := []ruleTier{
		func(r *approvalrule.Rule) bool { return r.AppliesToCategory(categoryID) && r.Contains(amount) },
		func(r *approvalrule.Rule) bool { return r.AppliesToCategory(categoryID) && r.IsUnbounded() },
		func(r *approvalrule.Rule) bool { return r.IsWildcard() && r.Contains(amount) },
		func(r *approvalrule.Rule) bool { return r.IsWildcard() && r.IsUnbounded() },
	}

	for _, matches := range tiers {
		for _, r := range rules {
			if matches(r) {
				return r
			}
		}
	}
	return nil
}
