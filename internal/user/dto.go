package user

import (
	"strings"

	errors "github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/common/validation"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
)

type CreateUserDTO struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	ManagerID *int64 `json:"manager_id,omitempty"`
}

func (dto *CreateUserDTO) Validate() *errors.AppError {
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	dto.Name = strings.TrimSpace(dto.Name)

	v := validation.NewValidator()
	v.Field("email", dto.Email).Required().Email()
	v.Field("name", dto.Name).Required().MaxLength(200)
	v.Field("password", dto.Password).Required().MinLength(8)
	v.Field("role", dto.Role).Required().Custom(validRole("role"))
	return v.Validate()
}

type UpdateUserDTO struct {
	Name      *string `json:"name,omitempty"`
	Role      *string `json:"role,omitempty"`
	ManagerID *int64  `json:"manager_id,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

func (dto *UpdateUserDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	if dto.Name != nil {
		trimmed := strings.TrimSpace(*dto.Name)
		dto.Name = &trimmed
		v.Field("name", trimmed).Required().MaxLength(200)
	}
	if dto.Role != nil {
		v.Field("role", *dto.Role).Custom(validRole("role"))
	}
	return v.Validate()
}

type UsersResponse struct {
	Users []*User `json:"users"`
}

func validRole(field string) func(interface{}) *errors.AppError {
	return func(value interface{}) *errors.AppError {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if _, err := identity.ParseRole(s); err != nil {
			return errors.NewValidationFieldError(field, "role must be one of: admin, manager, employee", errors.ErrCodeInvalidRole)
		}
		return nil
	}
}
