package audit

import "time"

// Entry is an append-only record of one workflow decision.
type Entry struct {
	ID           int64     `gorm:"primaryKey"`
	CompanyID    int64     `gorm:"column:company_id;not null"`
	ExpenseID    int64     `gorm:"column:expense_id;not null;index"`
	ApprovalID   *int64    `gorm:"column:approval_id"`
	ActorUserID  *int64    `gorm:"column:actor_user_id"`
	Action       string    `gorm:"column:action;not null"`
	StatusBefore string    `gorm:"column:status_before"`
	StatusAfter  string    `gorm:"column:status_after"`
	Comments     string    `gorm:"column:comments"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Entry) TableName() string {
	return "approval_audit_log"
}
