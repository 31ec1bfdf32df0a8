package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/auth"
	"github.com/jmoiron/sqlx"
)

const credentialColumns = `id, company_id, email, name, role, password_hash, is_active`

// CredentialRepository reads login data straight off the users table.
type CredentialRepository struct {
	db *sqlx.DB
}

func NewCredentialRepository(db *sqlx.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

var _ auth.CredentialRepository = (*CredentialRepository)(nil)

func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	var creds auth.Credentials
	query := r.db.Rebind(`SELECT ` + credentialColumns + ` FROM users WHERE email = ?`)
	if err := r.db.GetContext(ctx, &creds, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewStorageError("user", email, "get credentials", err)
	}
	return &creds, nil
}

func (r *CredentialRepository) GetByUserID(ctx context.Context, userID int64) (*auth.Credentials, error) {
	var creds auth.Credentials
	query := r.db.Rebind(`SELECT ` + credentialColumns + ` FROM users WHERE id = ?`)
	if err := r.db.GetContext(ctx, &creds, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewStorageError("user", userID, "get credentials", err)
	}
	return &creds, nil
}
