package user

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/expense-approval/internal"
	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
)

type RepositoryAPI interface {
	Create(ctx context.Context, user *userDatamodel.User) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByIDs(ctx context.Context, companyID int64, ids []int64) ([]*userDatamodel.User, error)
	ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]*userDatamodel.User, error)
	Update(ctx context.Context, user *userDatamodel.User) error
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo   RepositoryAPI
	hasher PasswordHasher
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromDataModel(u), nil
}

// getInCompany hides users of other tenants behind NotFound.
func (s *Service) getInCompany(ctx context.Context, companyID, userID int64) (*User, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.CompanyID != companyID {
		return nil, errors.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context, caller *identity.Identity, limit, offset int) ([]*User, error) {
	if !caller.Role.SeesCompany() {
		self, err := s.GetByID(ctx, caller.UserID)
		if err != nil {
			return nil, err
		}
		return []*User{self}, nil
	}

	users, err := s.repo.ListByCompany(ctx, caller.CompanyID, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list users", "company_id", caller.CompanyID, "error", err)
		return nil, err
	}
	return FromDataModelSlice(users), nil
}

func (s *Service) GetUser(ctx context.Context, caller *identity.Identity, userID int64) (*User, error) {
	if !caller.Role.SeesCompany() && caller.UserID != userID {
		return nil, errors.ErrUnauthorizedAccess
	}
	return s.getInCompany(ctx, caller.CompanyID, userID)
}

func (s *Service) CreateUser(ctx context.Context, caller *identity.Identity, dto CreateUserDTO) (*User, error) {
	if !caller.Role.SeesCompany() {
		return nil, errors.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role, _ := identity.ParseRole(dto.Role)
	if role == identity.RoleAdmin && !caller.IsAdmin() {
		s.logger.WarnContext(ctx, "manager attempted to create an admin", "user_id", caller.UserID)
		return nil, errors.ErrUnauthorizedAccess
	}
	if dto.ManagerID != nil {
		if _, err := s.getInCompany(ctx, caller.CompanyID, *dto.ManagerID); err != nil {
			return nil, errors.NewValidationFieldError("manager_id", "manager must belong to the company", errors.ErrCodeValidationFailed)
		}
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	data := &userDatamodel.User{
		CompanyID:    caller.CompanyID,
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: hash,
		Role:         string(role),
		ManagerID:    dto.ManagerID,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, data); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user created", "user_id", data.ID, "company_id", data.CompanyID, "role", data.Role)
	return FromDataModel(data), nil
}

func (s *Service) UpdateUser(ctx context.Context, caller *identity.Identity, userID int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	target, err := s.getInCompany(ctx, caller.CompanyID, userID)
	if err != nil {
		return nil, err
	}

	self := caller.UserID == userID
	canEdit := self || caller.IsAdmin() || (caller.IsManager() && target.Role == identity.RoleEmployee)
	if !canEdit {
		return nil, errors.ErrUnauthorizedAccess
	}

	if dto.Role != nil {
		role, _ := identity.ParseRole(*dto.Role)
		if role != target.Role {
			if !caller.Role.SeesCompany() {
				return nil, errors.ErrUnauthorizedAccess
			}
			if (role == identity.RoleAdmin || target.Role == identity.RoleAdmin) && !caller.IsAdmin() {
				return nil, errors.ErrUnauthorizedAccess
			}
			target.Role = role
		}
	}
	if dto.IsActive != nil && *dto.IsActive != target.IsActive {
		if !caller.IsAdmin() || self {
			return nil, errors.ErrUnauthorizedAccess
		}
		target.IsActive = *dto.IsActive
	}
	if dto.Name != nil {
		target.Name = *dto.Name
	}
	if dto.ManagerID != nil {
		if *dto.ManagerID == userID {
			return nil, errors.NewValidationFieldError("manager_id", "user cannot manage themselves", errors.ErrCodeValidationFailed)
		}
		if _, err := s.getInCompany(ctx, caller.CompanyID, *dto.ManagerID); err != nil {
			return nil, errors.NewValidationFieldError("manager_id", "manager must belong to the company", errors.ErrCodeValidationFailed)
		}
		target.ManagerID = dto.ManagerID
	}

	if err := s.repo.Update(ctx, ToDataModel(target)); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user updated", "user_id", userID, "by", caller.UserID)
	return target, nil
}

// DeactivateUser is the DELETE semantics: the row stays for audit references.
func (s *Service) DeactivateUser(ctx context.Context, caller *identity.Identity, userID int64) error {
	if !caller.IsAdmin() {
		return errors.ErrUnauthorizedAccess
	}
	if caller.UserID == userID {
		return errors.NewValidationError("cannot deactivate yourself", errors.ErrCodeValidationFailed)
	}

	target, err := s.getInCompany(ctx, caller.CompanyID, userID)
	if err != nil {
		return err
	}
	if !target.IsActive {
		return nil
	}
	target.IsActive = false
	if err := s.repo.Update(ctx, ToDataModel(target)); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user deactivated", "user_id", userID, "by", caller.UserID)
	return nil
}

// FindUsers returns the users of companyID among ids. Missing ids are simply absent.
func (s *Service) FindUsers(ctx context.Context, companyID int64, ids []int64) ([]*User, error) {
	users, err := s.repo.GetByIDs(ctx, companyID, ids)
	if err != nil {
		return nil, err
	}
	return FromDataModelSlice(users), nil
}
