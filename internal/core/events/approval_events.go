package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeExpenseSubmitted    = "expense.submitted"
	EventTypeExpenseAutoApproved = "expense.auto_approved"
	EventTypeApprovalRequested   = "approval.requested"
	EventTypeApprovalApproved    = "approval.approved"
	EventTypeApprovalRejected    = "approval.rejected"
	EventTypeExpenseApproved     = "expense.approved"
	EventTypeExpenseRejected     = "expense.rejected"
)

// WorkflowEventTypes lists everything the approval workflow publishes.
var WorkflowEventTypes = []string{
	EventTypeExpenseSubmitted,
	EventTypeExpenseAutoApproved,
	EventTypeApprovalRequested,
	EventTypeApprovalApproved,
	EventTypeApprovalRejected,
	EventTypeExpenseApproved,
	EventTypeExpenseRejected,
}

type ExpenseEvent struct {
	BaseEvent
	ExpenseID int64  `json:"expense_id"`
	CompanyID int64  `json:"company_id"`
	UserID    int64  `json:"user_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	RuleID    *int64 `json:"rule_id,omitempty"`
}

func NewExpenseEvent(eventType string, expenseID, companyID, userID int64, amount, currency string, ruleID *int64) *ExpenseEvent {
	data := map[string]interface{}{
		"expense_id": expenseID,
		"company_id": companyID,
		"user_id":    userID,
		"amount":     amount,
		"currency":   currency,
	}
	if ruleID != nil {
		data["rule_id"] = *ruleID
	}

	return &ExpenseEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      data,
		},
		ExpenseID: expenseID,
		CompanyID: companyID,
		UserID:    userID,
		Amount:    amount,
		Currency:  currency,
		RuleID:    ruleID,
	}
}

type ApprovalEvent struct {
	BaseEvent
	ApprovalID     int64  `json:"approval_id"`
	ExpenseID      int64  `json:"expense_id"`
	CompanyID      int64  `json:"company_id"`
	ApproverUserID int64  `json:"approver_user_id"`
	OrderIndex     int    `json:"order_index"`
	Comments       string `json:"comments,omitempty"`
}

func NewApprovalEvent(eventType string, approvalID, expenseID, companyID, approverUserID int64, orderIndex int, comments string) *ApprovalEvent {
	return &ApprovalEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"approval_id":      approvalID,
				"expense_id":       expenseID,
				"company_id":       companyID,
				"approver_user_id": approverUserID,
				"order_index":      orderIndex,
				"comments":         comments,
			},
		},
		ApprovalID:     approvalID,
		ExpenseID:      expenseID,
		CompanyID:      companyID,
		ApproverUserID: approverUserID,
		OrderIndex:     orderIndex,
		Comments:       comments,
	}
}
