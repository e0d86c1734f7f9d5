package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/groovoo/service-desk/internal/auth"
	"github.com/groovoo/service-desk/internal/config"
	"github.com/groovoo/service-desk/internal/domain"
	"github.com/groovoo/service-desk/internal/repository"
	apperrors "github.com/groovoo/service-desk/pkg/util/errorutil"
)

// AuthService coordinates registration, login and logout flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	resolver   *auth.Resolver
	revoked    auth.RevocationList
	bcryptCost int
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	Revocations auth.RevocationList
	Now         func() time.Time
}

// AuthResult is returned on successful register or login.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	revoked := deps.Revocations
	if revoked == nil {
		revoked = auth.NewMemoryRevocationList()
	}
	tokenMgr := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL())
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   tokenMgr,
		resolver:   auth.NewResolver(tokenMgr, deps.UserRepo, revoked),
		revoked:    revoked,
		bcryptCost: cfg.BcryptCost,
		now:        clockOrDefault(deps.Now),
	}
}

// Register creates a staff account and logs it in.
func (s *AuthService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if err := requireCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("username already registered", map[string]any{"username": username})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return s.issue(user)
}

// Login authenticates a staff member. Unknown users and wrong passwords look the same.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if err := requireCredentials(username, password); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(user)
}

// Logout revokes the presented token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return apperrors.NewUnauthorized("missing token")
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAtTime()); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// ResolveCaller maps a bearer token to the user it identifies.
func (s *AuthService) ResolveCaller(ctx context.Context, token string) (*domain.User, error) {
	principal, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return principal.User, nil
}

// Resolver exposes the token resolver for middleware usage.
func (s *AuthService) Resolver() *auth.Resolver {
	return s.resolver
}

// TokenManager exposes the underlying token manager.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func requireCredentials(username, password string) error {
	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) == 0 {
		return nil
	}
	return apperrors.NewValidationError("username and password are required", map[string]any{
		"missing":   missing,
		"submitted": map[string]any{"username": username},
	})
}
