package postgres

import (
	"context"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/core/database"
	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-approval/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ user.RepositoryAPI = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	if err := database.Conn(ctx, r.db).Create(u).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return internal.ErrDuplicateEmail
		}
		return internal.NewStorageError("user", nil, "create", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&u).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewStorageError("user", id, "get", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, companyID int64, ids []int64) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	if len(ids) == 0 {
		return users, nil
	}
	err := database.Conn(ctx, r.db).
		Where("company_id = ? AND id IN ?", companyID, ids).
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		return nil, internal.NewStorageError("user", ids, "list", err)
	}
	return users, nil
}

func (r *UserRepository) ListByCompany(ctx context.Context, companyID int64, limit, offset int) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := database.Conn(ctx, r.db).
		Where("company_id = ?", companyID).
		Order("name ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, internal.NewStorageError("user", nil, "list", err)
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	err := database.Conn(ctx, r.db).Model(&userDatamodel.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"name":       u.Name,
			"role":       u.Role,
			"manager_id": u.ManagerID,
			"is_active":  u.IsActive,
		}).Error
	if err != nil {
		return internal.NewStorageError("user", u.ID, "update", err)
	}
	return nil
}
