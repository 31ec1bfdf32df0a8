package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/company"
	userDatamodel "github.com/frahmantamala/expense-approval/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-approval/internal/core/identity"
	"golang.org/x/crypto/bcrypt"
)

type CredentialRepository interface {
	GetByEmail(ctx context.Context, email string) (*Credentials, error)
	GetByUserID(ctx context.Context, userID int64) (*Credentials, error)
}

type CompanyRegistrar interface {
	Register(ctx context.Context, in company.RegisterInput) (*company.Company, *userDatamodel.User, error)
}

// Service is the main auth service with dependencies
type Service struct {
	credentials    CredentialRepository
	companies      CompanyRegistrar
	tokenGenerator TokenGenerator
	bcryptCost     int
	accessTTL      int64
	logger         *slog.Logger
}

// NewService creates a new auth service
func NewService(credentials CredentialRepository, companies CompanyRegistrar, tokenGen TokenGenerator, cfg internal.SecurityConfig, logger *slog.Logger) *Service {
	cost := cfg.BCryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ttl := cfg.AccessTokenDuration
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Service{
		credentials:    credentials,
		companies:      companies,
		tokenGenerator: tokenGen,
		bcryptCost:     cost,
		accessTTL:      int64(ttl.Seconds()),
		logger:         logger,
	}
}

// Signup creates the company and its admin, then logs the admin in.
func (s *Service) Signup(ctx context.Context, dto SignupDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to hash password", err)
	}

	_, admin, err := s.companies.Register(ctx, company.RegisterInput{
		CompanyName:  dto.CompanyName,
		CurrencyCode: dto.CurrencyCode,
		AdminName:    dto.Name,
		AdminEmail:   dto.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return AuthTokens{}, err
	}

	return s.issue(&identity.Identity{
		UserID:    admin.ID,
		CompanyID: admin.CompanyID,
		Email:     admin.Email,
		Name:      admin.Name,
		Role:      identity.Role(admin.Role),
	})
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	creds, err := s.credentials.GetByEmail(ctx, dto.Email)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeNotFound {
			return AuthTokens{}, internal.ErrInvalidCredentials
		}
		return AuthTokens{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.WarnContext(ctx, "login failed: password mismatch", "user_id", creds.UserID)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}
	if !creds.IsActive {
		return AuthTokens{}, internal.ErrUserInactive
	}

	return s.issue(creds.Identity())
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	// role or activation may have changed since the refresh token was issued
	id, err := s.LoadIdentity(ctx, claims)
	if err != nil {
		return AuthTokens{}, err
	}

	return s.issue(id)
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

// LoadIdentity reloads the caller from storage. Inactive or deleted users are rejected.
func (s *Service) LoadIdentity(ctx context.Context, claims *Claims) (*identity.Identity, error) {
	userID, err := claims.ParseUserID()
	if err != nil {
		return nil, err
	}

	creds, err := s.credentials.GetByUserID(ctx, userID)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeNotFound {
			return nil, internal.ErrInvalidToken
		}
		return nil, err
	}
	if !creds.IsActive {
		return nil, internal.ErrUserInactive
	}
	return creds.Identity(), nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) issue(id *identity.Identity) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(id)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(id)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.accessTTL,
	}, nil
}
