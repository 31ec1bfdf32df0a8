package identity

import (
	"context"
	"fmt"
	"strings"
)

// Role is the closed set of company roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleManager:
		return RoleManager, nil
	case RoleEmployee:
		return RoleEmployee, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// CanApprove reports whether the role may be configured as a rule approver.
func (r Role) CanApprove() bool {
	switch r {
	case RoleAdmin, RoleManager:
		return true
	case RoleEmployee:
		return false
	}
	return false
}

// SeesCompany reports whether the role reads company-wide data instead of only its own.
func (r Role) SeesCompany() bool {
	switch r {
	case RoleAdmin, RoleManager:
		return true
	case RoleEmployee:
		return false
	}
	return false
}

// Identity is the authenticated caller.
type Identity struct {
	UserID    int64  `json:"user_id"`
	CompanyID int64  `json:"company_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

func (i *Identity) IsManager() bool {
	return i != nil && i.Role == RoleManager
}

type ctxKey string

const contextIdentityKey ctxKey = "identity"

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextIdentityKey, id)
}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextIdentityKey).(*Identity)
	return id, ok && id != nil
}
