package postgres

import (
	"context"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/category"
	"github.com/frahmantamala/expense-approval/internal/core/database"
	categoryDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/category"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) category.RepositoryAPI {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) ListActive(ctx context.Context, companyID int64) ([]*categoryDatamodel.ExpenseCategory, error) {
	var categories []*categoryDatamodel.ExpenseCategory
	err := database.Conn(ctx, r.db).
		Where("company_id = ? AND is_active = ?", companyID, true).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, internal.NewStorageError("category", nil, "list", err)
	}
	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*categoryDatamodel.ExpenseCategory, error) {
	var cat categoryDatamodel.ExpenseCategory
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&cat).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrCategoryNotFound
		}
		return nil, internal.NewStorageError("category", id, "get", err)
	}
	return &cat, nil
}

func (r *CategoryRepository) Create(ctx context.Context, cat *categoryDatamodel.ExpenseCategory) error {
	if err := database.Conn(ctx, r.db).Create(cat).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return internal.ErrDuplicateCategory
		}
		return internal.NewStorageError("category", nil, "create", err)
	}
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, cat *categoryDatamodel.ExpenseCategory) error {
	err := database.Conn(ctx, r.db).Model(&categoryDatamodel.ExpenseCategory{}).
		Where("id = ?", cat.ID).
		Updates(map[string]interface{}{
			"name":        cat.Name,
			"description": cat.Description,
			"is_active":   cat.IsActive,
		}).Error
	if err != nil {
		if database.IsDuplicateKey(err) {
			return internal.ErrDuplicateCategory
		}
		return internal.NewStorageError("category", cat.ID, "update", err)
	}
	return nil
}

func (r *CategoryRepository) Deactivate(ctx context.Context, id int64) error {
	err := database.Conn(ctx, r.db).Model(&categoryDatamodel.ExpenseCategory{}).
		Where("id = ?", id).
		Update("is_active", false).Error
	if err != nil {
		return internal.NewStorageError("category", id, "deactivate", err)
	}
	return nil
}
