package company

import (
	"context"
	"log/slog"

	companyDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/company"
	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
)

type RepositoryAPI interface {
	Create(ctx context.Context, company *companyDatamodel.Company) error
	GetByID(ctx context.Context, id int64) (*companyDatamodel.Company, error)
}

type UserCreator interface {
	Create(ctx context.Context, user *userDatamodel.User) error
}

type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo   RepositoryAPI
	users  UserCreator
	txm    TxManager
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, users UserCreator, txm TxManager, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		txm:    txm,
		logger: logger,
	}
}

// Register creates the company and its first admin atomically.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Company, *userDatamodel.User, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}

	company := NewCompany(in.CompanyName, in.CurrencyCode)
	companyData := ToDataModel(company)
	admin := &userDatamodel.User{
		Email:        in.AdminEmail,
		Name:         in.AdminName,
		PasswordHash: in.PasswordHash,
		Role:         string(identity.RoleAdmin),
		IsActive:     true,
	}

	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, companyData); err != nil {
			return err
		}
		admin.CompanyID = companyData.ID
		return s.users.Create(ctx, admin)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "company registration failed", "email", in.AdminEmail, "error", err)
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "company registered",
		"company_id", companyData.ID,
		"admin_user_id", admin.ID,
		"currency", companyData.CurrencyCode)

	return FromDataModel(companyData), admin, nil
}

func (s *Service) GetCompany(ctx context.Context, id int64) (*Company, error) {
	data, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(data), nil
}

// BaseCurrency is the currency every threshold of the company is expressed in.
func (s *Service) BaseCurrency(ctx context.Context, companyID int64) (string, error) {
	c, err := s.GetCompany(ctx, companyID)
	if err != nil {
		return "", err
	}
	return c.CurrencyCode, nil
}
