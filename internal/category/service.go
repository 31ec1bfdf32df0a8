package category

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-approval/internal"
	categoryDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/category"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
)

type RepositoryAPI interface {
	ListActive(ctx context.Context, companyID int64) ([]*categoryDatamodel.ExpenseCategory, error)
	GetByID(ctx context.Context, id int64) (*categoryDatamodel.ExpenseCategory, error)
	Create(ctx context.Context, category *categoryDatamodel.ExpenseCategory) error
	Update(ctx context.Context, category *categoryDatamodel.ExpenseCategory) error
	Deactivate(ctx context.Context, id int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetAllCategories(ctx context.Context, companyID int64) ([]CategoryResponse, error) {
	dataCategories, err := s.repo.ListActive(ctx, companyID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get categories from repository", "company_id", companyID, "error", err)
		return nil, err
	}

	responses := make([]CategoryResponse, 0, len(dataCategories))
	for _, dataCategory := range dataCategories {
		responses = append(responses, FromDataModel(dataCategory).ToResponse())
	}
	return responses, nil
}

// GetByID hides other tenants' categories behind NotFound.
func (s *Service) GetByID(ctx context.Context, companyID, id int64) (*Category, error) {
	data, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if data.CompanyID != companyID {
		return nil, internal.ErrCategoryNotFound
	}
	return FromDataModel(data), nil
}

// EnsureActive fails unless id names an active category of the company.
func (s *Service) EnsureActive(ctx context.Context, companyID, id int64) error {
	c, err := s.GetByID(ctx, companyID, id)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeNotFound {
			return internal.NewValidationFieldError("category_id", "category does not exist or is inactive", internal.ErrCodeInvalidCategory)
		}
		return err
	}
	if !c.IsActiveCategory() {
		return internal.NewValidationFieldError("category_id", "category does not exist or is inactive", internal.ErrCodeInvalidCategory)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, caller *identity.Identity, dto CreateCategoryDTO) (*Category, error) {
	if !caller.Role.SeesCompany() {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	data := ToDataModel(NewCategory(caller.CompanyID, dto.Name, dto.Description))
	if err := s.repo.Create(ctx, data); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "category created", "category_id", data.ID, "company_id", data.CompanyID)
	return FromDataModel(data), nil
}

func (s *Service) Update(ctx context.Context, caller *identity.Identity, id int64, dto UpdateCategoryDTO) (*Category, error) {
	if !caller.Role.SeesCompany() {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.GetByID(ctx, caller.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if dto.Name != nil {
		c.Name = *dto.Name
	}
	if dto.Description != nil {
		c.Description = *dto.Description
	}
	if dto.IsActive != nil {
		c.IsActive = *dto.IsActive
	}

	data := ToDataModel(c)
	if err := s.repo.Update(ctx, data); err != nil {
		return nil, err
	}
	return FromDataModel(data), nil
}

// Delete deactivates; expenses keep pointing at the row.
func (s *Service) Delete(ctx context.Context, caller *identity.Identity, id int64) error {
	if !caller.Role.SeesCompany() {
		return internal.ErrUnauthorizedAccess
	}
	if _, err := s.GetByID(ctx, caller.CompanyID, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "category deactivated", "category_id", id, "by", caller.UserID)
	return nil
}
