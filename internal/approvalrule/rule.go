package approvalrule

import (
	"time"

	ruleDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/approvalrule"
	"github.com/shopspring/decimal"
)

type Approver struct {
	UserID     int64 `json:"approver_user_id"`
	OrderIndex int   `json:"order_index"`
}

type Rule struct {
	ID                 int64               `json:"id"`
	CompanyID          int64               `json:"company_id"`
	Name               string              `json:"name"`
	CategoryID         *int64              `json:"category_id"`
	CurrencyCode       string              `json:"currency_code"`
	MinAmount          decimal.Decimal     `json:"min_amount"`
	MaxAmount          decimal.NullDecimal `json:"max_amount"`
	Priority           int                 `json:"priority"`
	IsSequential       bool                `json:"is_sequential"`
	ApprovalPercentage int                 `json:"approval_percentage"`
	IsActive           bool                `json:"is_active"`
	Approvers          []Approver          `json:"approvers"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func (r *Rule) IsWildcard() bool {
	return r.CategoryID == nil
}

func (r *Rule) IsUnbounded() bool {
	return !r.MaxAmount.Valid
}

// AppliesToCategory matches only a rule bound to exactly this category; wildcards are handled separately.
func (r *Rule) AppliesToCategory(categoryID *int64) bool {
	return r.CategoryID != nil && categoryID != nil && *r.CategoryID == *categoryID
}

// Contains checks amount against [min, max] with both ends inclusive; no max means no ceiling.
func (r *Rule) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(r.MinAmount) {
		return false
	}
	if r.MaxAmount.Valid && amount.GreaterThan(r.MaxAmount.Decimal) {
		return false
	}
	return true
}

// ApproverIDs returns the approvers in order_index order.
func (r *Rule) ApproverIDs() []int64 {
	ids := make([]int64, 0, len(r.Approvers))
	for _, a := range r.Approvers {
		ids = append(ids, a.UserID)
	}
	return ids
}

// NewApprovers assigns order_index by position.
func NewApprovers(userIDs []int64) []Approver {
	approvers := make([]Approver, 0, len(userIDs))
	for i, id := range userIDs {
		approvers = append(approvers, Approver{UserID: id, OrderIndex: i})
	}
	return approvers
}

func ToDataModel(r *Rule) *ruleDatamodel.ApprovalRule {
	data := &ruleDatamodel.ApprovalRule{
		ID:                 r.ID,
		CompanyID:          r.CompanyID,
		Name:               r.Name,
		CategoryID:         r.CategoryID,
		CurrencyCode:       r.CurrencyCode,
		MinAmount:          r.MinAmount,
		MaxAmount:          r.MaxAmount,
		Priority:           r.Priority,
		IsSequential:       r.IsSequential,
		ApprovalPercentage: r.ApprovalPercentage,
		IsActive:           r.IsActive,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	data.Approvers = ApproversToDataModel(r.ID, r.Approvers)
	return data
}

func ApproversToDataModel(ruleID int64, approvers []Approver) []ruleDatamodel.RuleApprover {
	rows := make([]ruleDatamodel.RuleApprover, 0, len(approvers))
	for _, a := range approvers {
		rows = append(rows, ruleDatamodel.RuleApprover{
			RuleID:         ruleID,
			ApproverUserID: a.UserID,
			OrderIndex:     a.OrderIndex,
		})
	}
	return rows
}

func FromDataModel(data *ruleDatamodel.ApprovalRule) *Rule {
	r := &Rule{
		ID:                 data.ID,
		CompanyID:          data.CompanyID,
		Name:               data.Name,
		CategoryID:         data.CategoryID,
		CurrencyCode:       data.CurrencyCode,
		MinAmount:          data.MinAmount,
		MaxAmount:          data.MaxAmount,
		Priority:           data.Priority,
		IsSequential:       data.IsSequential,
		ApprovalPercentage: data.ApprovalPercentage,
		IsActive:           data.IsActive,
		Approvers:          make([]Approver, 0, len(data.Approvers)),
		CreatedAt:          data.CreatedAt,
		UpdatedAt:          data.UpdatedAt,
	}
	for _, a := range data.Approvers {
		r.Approvers = append(r.Approvers, Approver{UserID: a.ApproverUserID, OrderIndex: a.OrderIndex})
	}
	return r
}

func FromDataModelSlice(data []*ruleDatamodel.ApprovalRule) []*Rule {
	rules := make([]*Rule, 0, len(data))
	for _, d := range data {
		rules = append(rules, FromDataModel(d))
	}
	return rules
}
