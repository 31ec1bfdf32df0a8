package approvalrule

import (
	"time"

	"github.com/shopspring/decimal"
)

type ApprovalRule struct {
	ID                 int64               `gorm:"primaryKey"`
	CompanyID          int64               `gorm:"column:company_id;not null;index"`
	Name               string              `gorm:"column:name;not null"`
	CategoryID         *int64              `gorm:"column:category_id"`
	CurrencyCode       string              `gorm:"column:currency_code;type:char(3);not null"`
	MinAmount          decimal.Decimal     `gorm:"column:min_amount;type:numeric(14,2);not null"`
	MaxAmount          decimal.NullDecimal `gorm:"column:max_amount;type:numeric(14,2)"`
	Priority           int                 `gorm:"column:priority;not null"`
	IsSequential       bool                `gorm:"column:is_sequential;not null"`
	ApprovalPercentage int                 `gorm:"column:approval_percentage;not null"`
	IsActive           bool                `gorm:"column:is_active;not null"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Approvers []RuleApprover `gorm:"foreignKey:RuleID;constraint:OnDelete:CASCADE"`
}

func (ApprovalRule) TableName() string {
	return "approval_rules"
}

type RuleApprover struct {
	ID             int64     `gorm:"primaryKey"`
	RuleID         int64     `gorm:"column:rule_id;not null;uniqueIndex:idx_rule_approvers_order;uniqueIndex:idx_rule_approvers_user"`
	ApproverUserID int64     `gorm:"column:approver_user_id;not null;uniqueIndex:idx_rule_approvers_user"`
	OrderIndex     int       `gorm:"column:order_index;not null;uniqueIndex:idx_rule_approvers_order"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RuleApprover) TableName() string {
	return "approval_rule_approvers"
}
