package approvalrule_test

import (
	"github.com/frahmantamala/expense-approval/internal/approvalrule"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("Rule", func() {
	bounded := func(min, max string) *approvalrule.Rule {
		r := &approvalrule.Rule{MinAmount: decimal.RequireFromString(min)}
		if max != "" {
			r.MaxAmount = decimal.NewNullDecimal(decimal.RequireFromString(max))
		}
		return r
	}

	DescribeTable("Contains treats both bounds as inclusive",
		func(rule *approvalrule.Rule, amount string, expected bool) {
			Expect(rule.Contains(decimal.RequireFromString(amount))).To(Equal(expected))
		},
		Entry("at min", bounded("100", "500"), "100", true),
		Entry("below min", bounded("100", "500"), "99.99", false),
		Entry("at max", bounded("100", "500"), "500", true),
		Entry("one cent above max", bounded("100", "500"), "500.01", false),
		Entry("unbounded", bounded("0", ""), "1000000", true),
	)

	It("only matches its own category", func() {
		seven, eight := int64(7), int64(8)
		rule := &approvalrule.Rule{CategoryID: &seven}

		Expect(rule.AppliesToCategory(&seven)).To(BeTrue())
		Expect(rule.AppliesToCategory(&eight)).To(BeFalse())
		Expect(rule.AppliesToCategory(nil)).To(BeFalse())
		Expect((&approvalrule.Rule{}).AppliesToCategory(&seven)).To(BeFalse())
	})

	It("numbers approvers by position", func() {
		approvers := approvalrule.NewApprovers([]int64{30, 10, 20})
		Expect(approvers).To(Equal([]approvalrule.Approver{
			{UserID: 30, OrderIndex: 0},
			{UserID: 10, OrderIndex: 1},
			{UserID: 20, OrderIndex: 2},
		}))
	})
})
