package postgres

import (
	"context"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/company"
	"github.com/frahmantamala/expense-approval/internal/core/database"
	companyDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/company"
	"gorm.io/gorm"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) company.RepositoryAPI {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(ctx context.Context, c *companyDatamodel.Company) error {
	if err := database.Conn(ctx, r.db).Create(c).Error; err != nil {
		return internal.NewStorageError("company", nil, "create", err)
	}
	return nil
}

func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*companyDatamodel.Company, error) {
	var c companyDatamodel.Company
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&c).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrCompanyNotFound
		}
		return nil, internal.NewStorageError("company", id, "get", err)
	}
	return &c, nil
}
