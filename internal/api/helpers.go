package api

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/db"
	apperrors "github.com/videotube/backend/internal/errors"
)

// authorize returns the caller if they own the resource.
func authorize(ctx context.Context, ownerID uuid.UUID, resource string) (*auth.Account, error) {
	account, err := auth.RequireAccount(ctx)
	if err != nil {
		return nil, err
	}
	if account.ID != ownerID {
		return nil, apperrors.Forbidden("you do not have permission to modify this " + resource)
	}
	return account, nil
}

// storeError maps a repository failure: notFound becomes a 404 for resource,
// anything else a database error.
func storeError(err, notFound error, resource, action string) error {
	if notFound != nil && errors.Is(err, notFound) {
		return apperrors.NotFound(resource)
	}
	return apperrors.DatabaseError("failed to " + action).WithCause(err)
}

// firstNonBlank is used for fields that older clients send under another name.
func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func summaryOf(a *auth.Account) *db.AccountSummary {
	return &db.AccountSummary{
		ID:        a.ID,
		Username:  a.Username,
		FullName:  a.FullName,
		AvatarURL: a.Avatar,
	}
}
