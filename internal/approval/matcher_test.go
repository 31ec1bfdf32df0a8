package approval_test

import (
	"github.com/frahmantamala/expense-approval/internal/approval"
	"github.com/frahmantamala/expense-approval/internal/approvalrule"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

func rule(id int64, categoryID *int64, min, max string) *approvalrule.Rule {
	r := &approvalrule.Rule{ID: id, CategoryID: categoryID, MinAmount: decimal.RequireFromString(min), IsActive: true}
	if max != "" {
		r.MaxAmount = decimal.NewNullDecimal(decimal.RequireFromString(max))
	}
	return r
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var _ = Describe("FindMatchingRule", func() {
	travel := int64(7)
	meals := int64(8)

	var (
		categoryRanged   *approvalrule.Rule
		categoryCatchAll *approvalrule.Rule
		wildcardRanged   *approvalrule.Rule
		globalDefault    *approvalrule.Rule
		all              []*approvalrule.Rule
	)

	BeforeEach(func() {
		categoryRanged = rule(1, &travel, "100", "500")
		categoryCatchAll = rule(2, &travel, "0", "")
		wildcardRanged = rule(3, nil, "0", "1000")
		globalDefault = rule(4, nil, "0", "")
		all = []*approvalrule.Rule{categoryRanged, categoryCatchAll, wildcardRanged, globalDefault}
	})

	It("prefers a category rule whose range contains the amount", func() {
		Expect(approval.FindMatchingRule(&travel, amount("250"), all)).To(BeIdenticalTo(categoryRanged))
	})

	It("falls back to the category catch-all outside the range", func() {
		Expect(approval.FindMatchingRule(&travel, amount("900"), all)).To(BeIdenticalTo(categoryCatchAll))
		Expect(approval.FindMatchingRule(&travel, amount("50"), all)).To(BeIdenticalTo(categoryCatchAll))
	})

	It("uses a ranged wildcard for other categories", func() {
		Expect(approval.FindMatchingRule(&meals, amount("999.99"), all)).To(BeIdenticalTo(wildcardRanged))
	})

	It("uses a ranged wildcard for uncategorised expenses", func() {
		Expect(approval.FindMatchingRule(nil, amount("10"), all)).To(BeIdenticalTo(wildcardRanged))
	})

	It("ends at the global default", func() {
		Expect(approval.FindMatchingRule(&meals, amount("5000"), all)).To(BeIdenticalTo(globalDefault))
	})

	It("uses a category catch-all even below its min_amount", func() {
		highFloor := rule(5, &travel, "1000", "")
		Expect(approval.FindMatchingRule(&travel, amount("50"), []*approvalrule.Rule{highFloor, globalDefault})).To(BeIdenticalTo(highFloor))
	})

	It("returns nil when nothing applies", func() {
		Expect(approval.FindMatchingRule(&meals, amount("5000"), []*approvalrule.Rule{categoryRanged, wildcardRanged})).To(BeNil())
		Expect(approval.FindMatchingRule(&travel, amount("1"), nil)).To(BeNil())
	})

	It("includes max_amount and excludes anything above it", func() {
		rules := []*approvalrule.Rule{categoryRanged, globalDefault}
		Expect(approval.FindMatchingRule(&travel, amount("500"), rules)).To(BeIdenticalTo(categoryRanged))
		Expect(approval.FindMatchingRule(&travel, amount("500.01"), rules)).To(BeIdenticalTo(globalDefault))
	})

	It("includes min_amount", func() {
		rules := []*approvalrule.Rule{categoryRanged, globalDefault}
		Expect(approval.FindMatchingRule(&travel, amount("100"), rules)).To(BeIdenticalTo(categoryRanged))
	})

	It("breaks ties within a tier by creation order", func() {
		older := rule(10, &travel, "0", "1000")
		newer := rule(11, &travel, "0", "1000")
		Expect(approval.FindMatchingRule(&travel, amount("10"), []*approvalrule.Rule{older, newer})).To(BeIdenticalTo(older))
	})

	It("lets category specificity beat a tighter wildcard range", func() {
		tightWildcard := rule(12, nil, "240", "260")
		Expect(approval.FindMatchingRule(&travel, amount("250"), []*approvalrule.Rule{tightWildcard, categoryCatchAll})).To(BeIdenticalTo(categoryCatchAll))
	})
})
