package approval

import (
	"time"

	approvalDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approval"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Approval is one approver's vote on one submitted expense.
type Approval struct {
	ID             int64      `json:"id"`
	ExpenseID      int64      `json:"expense_id"`
	RuleID         int64      `json:"rule_id"`
	ApproverUserID int64      `json:"approver_user_id"`
	Status         Status     `json:"status"`
	OrderIndex     int        `json:"order_index"`
	Comments       *string    `json:"comments,omitempty"`
	RespondedAt    *time.Time `json:"responded_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (a *Approval) IsPending() bool {
	return a.Status == StatusPending
}

func ToDataModel(a *Approval) *approvalDatamodel.Approval {
	return &approvalDatamodel.Approval{
		ID:             a.ID,
		ExpenseID:      a.ExpenseID,
		RuleID:         a.RuleID,
		ApproverUserID: a.ApproverUserID,
		Status:         string(a.Status),
		OrderIndex:     a.OrderIndex,
		Comments:       a.Comments,
		RespondedAt:    a.RespondedAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func ToDataModelSlice(approvals []*Approval) []*approvalDatamodel.Approval {
	rows := make([]*approvalDatamodel.Approval, 0, len(approvals))
	for _, a := range approvals {
		rows = append(rows, ToDataModel(a))
	}
	return rows
}

func FromDataModel(a *approvalDatamodel.Approval) *Approval {
	return &Approval{
		ID:             a.ID,
		ExpenseID:      a.ExpenseID,
		RuleID:         a.RuleID,
		ApproverUserID: a.ApproverUserID,
		Status:         Status(a.Status),
		OrderIndex:     a.OrderIndex,
		Comments:       a.Comments,
		RespondedAt:    a.RespondedAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*approvalDatamodel.Approval) []*Approval {
	approvals := make([]*Approval, 0, len(rows))
	for _, r := range rows {
		approvals = append(approvals, FromDataModel(r))
	}
	return approvals
}
