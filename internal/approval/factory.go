package approval

import (
	"time"

	"github.com/frahmantamala/expense-approval/internal/approvalrule"
)

// NewApprovalRecords expands the rule's approvers into pending approvals, keeping order_index.
// An empty result means the expense needs no approval.
func NewApprovalRecords(expenseID int64, rule *approvalrule.Rule, now time.Time) []*Approval {
	if rule == nil || len(rule.Approvers) == 0 {
		return nil
	}

	records := make([]*Approval, 0, len(rule.Approvers))
	for _, a := range rule.Approvers {
		records = append(records, &Approval{
			ExpenseID:      expenseID,
			RuleID:         rule.ID,
			ApproverUserID: a.UserID,
			Status:         StatusPending,
			OrderIndex:     a.OrderIndex,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return records
}
