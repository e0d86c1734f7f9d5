package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/groovoo/service-desk/internal/domain"
	"github.com/groovoo/service-desk/internal/repository"
	apperrors "github.com/groovoo/service-desk/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated staff member and the token they presented.
type Principal struct {
	User   *domain.User
	Claims *Claims
}

// UserID returns the caller id or "" for a nil principal.
func (p *Principal) UserID() string {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.ID
}

// Resolver turns a bearer token into the staff member it was issued to.
type Resolver struct {
	tokens  *TokenManager
	users   repository.UserRepository
	revoked RevocationList
}

// NewResolver wires the token manager, user lookup and revocation list. revoked may be nil.
func NewResolver(tokens *TokenManager, users repository.UserRepository, revoked RevocationList) *Resolver {
	return &Resolver{tokens: tokens, users: users, revoked: revoked}
}

// Resolve fails with Unauthorized for bad, expired or revoked tokens and unknown users.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Principal, error) {
	claims, err := r.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	if r.revoked != nil {
		revoked, err := r.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("check token revocation: %w", err))
		}
		if revoked {
			return nil, apperrors.NewUnauthorized("token has been revoked")
		}
	}

	user, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, apperrors.MapError(err)
	}
	return &Principal{User: user, Claims: claims}, nil
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	resolver *Resolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(resolver *Resolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	principal, err := m.resolver.Resolve(c.UserContext(), token)
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
