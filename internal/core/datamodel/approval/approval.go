package approval

import "time"

type Approval struct {
	ID             int64      `gorm:"primaryKey"`
	ExpenseID      int64      `gorm:"column:expense_id;not null;uniqueIndex:idx_approvals_expense_rule_approver"`
	RuleID         int64      `gorm:"column:rule_id;not null;uniqueIndex:idx_approvals_expense_rule_approver"`
	ApproverUserID int64      `gorm:"column:approver_user_id;not null;uniqueIndex:idx_approvals_expense_rule_approver;index"`
	Status         string     `gorm:"column:status;not null"`
	OrderIndex     int        `gorm:"column:order_index;not null"`
	Comments       *string    `gorm:"column:comments"`
	RespondedAt    *time.Time `gorm:"column:responded_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Approval) TableName() string {
	return "approvals"
}
