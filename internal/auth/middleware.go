package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/db"
	apperrors "github.com/videotube/backend/internal/errors"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Authenticate resolves an access token to the account it was issued to.
func (s *TokenService) Authenticate(ctx context.Context, tokenString string) (*Account, error) {
	claims, err := s.VerifyAccess(tokenString)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, apperrors.TokenExpired()
		}
		return nil, apperrors.InvalidToken("invalid access token")
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperrors.InvalidToken("invalid access token")
	}

	account, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, db.ErrAccountNotFound) {
			return nil, apperrors.InvalidToken("invalid access token")
		}
		return nil, apperrors.Unauthorized("unable to verify access token").WithCause(err)
	}

	return publicAccount(account), nil
}

// Middleware rejects requests without a valid access token and attaches the
// caller's account to the request context. The accessToken cookie wins over
// an Authorization bearer header.
func Middleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := apperrors.GetRequestID(r.Context())

			tokenString := accessTokenFrom(r)
			if tokenString == "" {
				apperrors.WriteError(w, requestID, apperrors.Unauthorized("unauthorized request"))
				return
			}

			account, err := tokens.Authenticate(r.Context(), tokenString)
			if err != nil {
				apperrors.WriteError(w, requestID, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
		})
	}
}

// RequireAccount returns the authenticated caller or a 401.
func RequireAccount(ctx context.Context) (*Account, error) {
	a := AccountFromContext(ctx)
	if a == nil {
		return nil, apperrors.Unauthorized("unauthorized request")
	}
	return a, nil
}

func accessTokenFrom(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
