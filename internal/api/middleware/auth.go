package middleware

import (
	"context"
	"errors"
	"net/http"

	"codearena/internal/common"
	"codearena/internal/common/security"
	"codearena/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

// Identity is the authenticated caller, resolved from the bearer token and
// handed explicitly to service calls.
type Identity struct {
	UserID string
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

type contextKey string

const identityCtxKey contextKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey).(Identity)
	return id, ok && id.UserID != ""
}

// identityFromToken reads the token verified by jwtauth.Verifier.
func identityFromToken(ctx context.Context) (Identity, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Identity{}, err
	}
	if token == nil {
		return Identity{}, jwtauth.ErrNoTokenFound
	}

	userID, err := security.GetUserIDFromClaims(claims)
	if err != nil {
		return Identity{}, err
	}
	role, err := security.GetUserRoleFromClaims(claims)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: userID, Role: role}, nil
}

// Authenticator rejects requests without a valid bearer token.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := identityFromToken(r.Context())
		if err != nil {
			if errors.Is(err, jwtauth.ErrNoTokenFound) {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// OptionalIdentity attaches the caller's identity when a valid token is
// present and otherwise lets the request through anonymously.
func OptionalIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := identityFromToken(r.Context()); err == nil {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok || !id.IsAdmin() {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
