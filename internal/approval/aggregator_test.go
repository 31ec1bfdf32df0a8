package approval_test

import (
	"math"
	"time"

	"github.com/frahmantamala/expense-approval/internal/approval"
	"github.com/frahmantamala/expense-approval/internal/approvalrule"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func votes(statuses ...approval.Status) []*approval.Approval {
	out := make([]*approval.Approval, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, &approval.Approval{ID: int64(i + 1), Status: s, OrderIndex: i, RuleID: 1})
	}
	return out
}

var _ = Describe("Aggregator", func() {
	P, A, R := approval.StatusPending, approval.StatusApproved, approval.StatusRejected

	It("counts votes", func() {
		t := approval.Summarize(votes(A, P, R, A))
		Expect(t).To(Equal(approval.Tally{Total: 4, Approved: 2, Rejected: 1, Pending: 1}))
		Expect(t.Percentage()).To(Equal(50))
	})

	DescribeTable("Decide",
		func(vs []*approval.Approval, required int, expected approval.Outcome) {
			Expect(approval.Decide(approval.Summarize(vs), required)).To(Equal(expected))
		},
		Entry("50% reached by one of two", votes(A, P), 50, approval.OutcomeApproved),
		Entry("100% needs everyone", votes(A, A, P), 100, approval.OutcomePending),
		Entry("100% with everyone", votes(A, A, A), 100, approval.OutcomeApproved),
		Entry("60% of three needs two", votes(A, P, P), 60, approval.OutcomePending),
		Entry("60% of three with two", votes(A, A, P), 60, approval.OutcomeApproved),
		Entry("one rejection vetoes", votes(A, A, R), 50, approval.OutcomeRejected),
		Entry("rejection beats a met threshold", votes(A, R), 1, approval.OutcomeRejected),
		Entry("nothing to count", votes(), 100, approval.OutcomePending),
	)

	It("approves exactly when ceil(P/100*N) approvals arrive", func() {
		for n := 1; n <= 7; n++ {
			for p := 1; p <= 100; p++ {
				needed := int(math.Ceil(float64(p) * float64(n) / 100))
				for approved := 0; approved <= n; approved++ {
					t := approval.Tally{Total: n, Approved: approved, Pending: n - approved}
					Expect(t.MeetsThreshold(p)).To(Equal(approved >= needed), "n=%d p=%d approved=%d", n, p, approved)
				}
			}
		}
	})

	Describe("sequential order", func() {
		It("blocks anyone behind a pending approver", func() {
			vs := votes(P, P, P)
			Expect(approval.CanActNow(vs, vs[0])).To(BeTrue())
			Expect(approval.CanActNow(vs, vs[1])).To(BeFalse())

			vs[0].Status = A
			Expect(approval.CanActNow(vs, vs[1])).To(BeTrue())
			Expect(approval.CanActNow(vs, vs[2])).To(BeFalse())
		})

		It("names the next approver in line", func() {
			vs := votes(A, P, P)
			next := approval.NextInLine(vs)
			Expect(next).To(HaveLen(1))
			Expect(next[0].OrderIndex).To(Equal(1))
			Expect(approval.NextInLine(votes(A, A))).To(BeEmpty())
		})
	})
})

var _ = Describe("NewApprovalRecords", func() {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	It("creates one pending record per approver in order", func() {
		r := &approvalrule.Rule{ID: 9, Approvers: approvalrule.NewApprovers([]int64{30, 20, 10})}

		records := approval.NewApprovalRecords(42, r, now)

		Expect(records).To(HaveLen(3))
		for i, rec := range records {
			Expect(rec.ExpenseID).To(Equal(int64(42)))
			Expect(rec.RuleID).To(Equal(int64(9)))
			Expect(rec.Status).To(Equal(approval.StatusPending))
			Expect(rec.OrderIndex).To(Equal(i))
		}
		Expect(records[0].ApproverUserID).To(Equal(int64(30)))
	})

	It("creates nothing for a rule without approvers", func() {
		Expect(approval.NewApprovalRecords(42, &approvalrule.Rule{ID: 9}, now)).To(BeEmpty())
		Expect(approval.NewApprovalRecords(42, nil, now)).To(BeEmpty())
	})
})
