package company

import (
	"strings"

	errors "github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/common/validation"
)

// RegisterInput carries a new tenant and its first administrator. The password arrives hashed.
type RegisterInput struct {
	CompanyName  string
	CurrencyCode string
	AdminName    string
	AdminEmail   string
	PasswordHash string
}

func (in *RegisterInput) Normalize() {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.CurrencyCode = strings.ToUpper(strings.TrimSpace(in.CurrencyCode))
	in.AdminName = strings.TrimSpace(in.AdminName)
	in.AdminEmail = strings.ToLower(strings.TrimSpace(in.AdminEmail))
}

func (in RegisterInput) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("company_name", in.CompanyName).Required().MaxLength(200)
	v.Field("currency_code", in.CurrencyCode).Required().Currency()
	v.Field("name", in.AdminName).Required().MaxLength(200)
	v.Field("email", in.AdminEmail).Required().Email()
	v.Field("password_hash", in.PasswordHash).Required()
	return v.Validate()
}
