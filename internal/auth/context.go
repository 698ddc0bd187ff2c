package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/db"
)

type contextKey string

const accountContextKey contextKey = "account"

// Account is the public view of a registered account. It never carries the
// password or refresh token digests.
type Account struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func publicAccount(a *db.Account) *Account {
	return &Account{
		ID:         a.ID,
		Username:   a.Username,
		Email:      a.Email,
		FullName:   a.FullName,
		Avatar:     a.AvatarURL,
		CoverImage: a.CoverImageURL,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func WithAccount(ctx context.Context, a *Account) context.Context {
	return context.WithValue(ctx, accountContextKey, a)
}

// AccountFromContext returns the caller attached by the gate, or nil.
func AccountFromContext(ctx context.Context) *Account {
	a, ok := ctx.Value(accountContextKey).(*Account)
	if !ok {
		return nil
	}
	return a
}
