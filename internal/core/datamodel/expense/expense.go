package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

type Expense struct {
	ID            int64               `gorm:"primaryKey"`
	CompanyID     int64               `gorm:"column:company_id;not null;index"`
	UserID        int64               `gorm:"column:user_id;not null;index"`
	CategoryID    *int64              `gorm:"column:category_id"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(14,2);not null"`
	Currency      string              `gorm:"column:currency;type:char(3);not null"`
	ExpenseDate   time.Time           `gorm:"column:expense_date;type:date;not null"`
	Description   string              `gorm:"column:description"`
	PaidBy        string              `gorm:"column:paid_by;not null"`
	Status        string              `gorm:"column:status;not null;index"`
	SubmittedAt   *time.Time          `gorm:"column:submitted_at"`
	CompanyAmount decimal.NullDecimal `gorm:"column:company_amount;type:numeric(14,2)"`
	ExchangeRate  decimal.NullDecimal `gorm:"column:exchange_rate;type:numeric(18,8)"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Expense) TableName() string {
	return "expenses"
}
