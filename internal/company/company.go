package company

import (
	"time"

	companyDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/company"
)

type Company struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	CurrencyCode string    `json:"currency_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewCompany(name, currencyCode string) *Company {
	now := time.Now()
	return &Company{
		Name:         name,
		CurrencyCode: currencyCode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func ToDataModel(c *Company) *companyDatamodel.Company {
	return &companyDatamodel.Company{
		ID:           c.ID,
		Name:         c.Name,
		CurrencyCode: c.CurrencyCode,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func FromDataModel(c *companyDatamodel.Company) *Company {
	return &Company{
		ID:           c.ID,
		Name:         c.Name,
		CurrencyCode: c.CurrencyCode,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
