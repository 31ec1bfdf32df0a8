package approval

import (
	"strings"
	"time"

	errors "github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/expense"
	"github.com/shopspring/decimal"
)

type DecisionDTO struct {
	Comments string `json:"comments"`
}

func (dto *DecisionDTO) Normalize() {
	dto.Comments = strings.TrimSpace(dto.Comments)
}

// ValidateRejection requires a reason for every rejection.
func (dto *DecisionDTO) ValidateRejection() *errors.AppError {
	dto.Normalize()
	if dto.Comments == "" {
		return errors.ErrRejectionComments
	}
	return nil
}

type DecisionResult struct {
	Approval           *Approval      `json:"approval"`
	ExpenseStatus      expense.Status `json:"expense_status"`
	Tally              Tally          `json:"tally"`
	CurrentPercentage  int            `json:"current_percentage"`
	RequiredPercentage int            `json:"required_percentage"`
}

// ApprovalStatus is the aggregate view of one expense's approvals.
type ApprovalStatus struct {
	ExpenseID          int64          `json:"expense_id"`
	ExpenseStatus      expense.Status `json:"expense_status"`
	HasApprovals       bool           `json:"has_approvals"`
	RuleID             *int64         `json:"rule_id,omitempty"`
	RuleName           string         `json:"rule_name,omitempty"`
	IsSequential       bool           `json:"is_sequential"`
	Total              int            `json:"total"`
	Approved           int            `json:"approved"`
	Rejected           int            `json:"rejected"`
	Pending            int            `json:"pending"`
	ApprovalPercentage int            `json:"approval_percentage"`
	RequiredPercentage int            `json:"required_percentage"`
	Approvals          []*Approval    `json:"approvals"`
}

type ListFilter struct {
	Status    Status
	ExpenseID *int64
	Limit     int
	Offset    int
}

func (f ListFilter) Validate() *errors.AppError {
	if f.Status != "" && !f.Status.Valid() {
		return errors.NewValidationFieldError("status", "status must be one of: pending, approved, rejected", errors.ErrCodeValidationFailed)
	}
	return nil
}

// ListQuery scopes a listing to a company; a nil ApproverID lists every approver.
type ListQuery struct {
	CompanyID  int64
	ApproverID *int64
	Status     Status
	ExpenseID  *int64
	Limit      int
	Offset     int
}

type ApprovalsResponse struct {
	Approvals []*Approval `json:"approvals"`
	Limit     int         `json:"limit"`
	Offset    int         `json:"offset"`
}

// InboxItem is a pending approval with enough of the expense to decide on it.
type InboxItem struct {
	ApprovalID    int64               `db:"approval_id" json:"approval_id"`
	ExpenseID     int64               `db:"expense_id" json:"expense_id"`
	RuleID        int64               `db:"rule_id" json:"rule_id"`
	RuleName      string              `db:"rule_name" json:"rule_name"`
	OrderIndex    int                 `db:"order_index" json:"order_index"`
	IsSequential  bool                `db:"is_sequential" json:"is_sequential"`
	CanActNow     bool                `db:"can_act_now" json:"can_act_now"`
	SubmitterID   int64               `db:"submitter_id" json:"submitter_id"`
	SubmitterName string              `db:"submitter_name" json:"submitter_name"`
	CategoryName  *string             `db:"category_name" json:"category_name,omitempty"`
	Description   string              `db:"description" json:"description"`
	Amount        decimal.Decimal     `db:"amount" json:"amount"`
	Currency      string              `db:"currency" json:"currency"`
	CompanyAmount decimal.NullDecimal `db:"company_amount" json:"company_amount"`
	SubmittedAt   *time.Time          `db:"submitted_at" json:"submitted_at,omitempty"`
	RequestedAt   time.Time           `db:"requested_at" json:"requested_at"`
}

type InboxResponse struct {
	Items  []*InboxItem `json:"items"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

type HistoryResponse struct {
	ExpenseID int64         `json:"expense_id"`
	Entries   []*AuditEntry `json:"entries"`
}
