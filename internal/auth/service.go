package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/db"
	apperrors "github.com/videotube/backend/internal/errors"
	"github.com/videotube/backend/internal/logger"
	"github.com/videotube/backend/internal/request"
	"github.com/videotube/backend/internal/storage"
)

// AccountStore is the persistence the account flows need.
type AccountStore interface {
	TokenStore
	Create(ctx context.Context, a *db.Account) error
	GetByEmail(ctx context.Context, email string) (*db.Account, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
}

type Service struct {
	accounts   AccountStore
	tokens     *TokenService
	media      storage.Store
	bcryptCost int
	log        *logger.Logger
}

func NewService(accounts AccountStore, tokens *TokenService, media storage.Store, bcryptCost int) *Service {
	return &Service{
		accounts:   accounts,
		tokens:     tokens,
		media:      media,
		bcryptCost: bcryptCost,
		log:        logger.Default().WithComponent("auth"),
	}
}

func (s *Service) Tokens() *TokenService {
	return s.tokens
}

type RegisterInput struct {
	FullName   string `json:"fullName" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
	Avatar     *storage.File
	CoverImage *storage.File
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = NormalizeEmail(in.Email)
	in.Username = NormalizeUsername(in.Username)
	if in.FullName == "" || in.Email == "" || in.Username == "" || strings.TrimSpace(in.Password) == "" {
		return nil, apperrors.BadRequest("all fields are required")
	}
	if err := request.Validate(in); err != nil {
		return nil, err
	}

	exists, err := s.accounts.ExistsByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to check existing accounts").WithCause(err)
	}
	if exists {
		return nil, apperrors.Conflict("user with email or username already exists")
	}

	if in.Avatar == nil {
		return nil, apperrors.BadRequest("avatar is required")
	}

	avatar, err := storage.Put(ctx, s.media, storage.PrefixAvatars, in.Avatar)
	if err != nil {
		return nil, apperrors.StorageError("failed to upload avatar").WithCause(err)
	}
	uploaded := []string{avatar.Key}

	account := &db.Account{
		ID:        uuid.New(),
		Username:  in.Username,
		Email:     in.Email,
		FullName:  in.FullName,
		AvatarURL: avatar.URL,
		AvatarKey: avatar.Key,
	}

	if in.CoverImage != nil {
		cover, err := storage.Put(ctx, s.media, storage.PrefixCovers, in.CoverImage)
		if err != nil {
			s.discard(ctx, uploaded...)
			return nil, apperrors.StorageError("failed to upload cover image").WithCause(err)
		}
		uploaded = append(uploaded, cover.Key)
		account.CoverImageURL = cover.URL
		account.CoverImageKey = cover.Key
	}

	account.PasswordHash, err = hashPassword(in.Password, s.bcryptCost)
	if err != nil {
		s.discard(ctx, uploaded...)
		return nil, apperrors.InternalError("failed to hash password").WithCause(err)
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		s.discard(ctx, uploaded...)
		if errors.Is(err, db.ErrAccountExists) {
			return nil, apperrors.Conflict("user with email or username already exists")
		}
		return nil, apperrors.DatabaseError("failed to register user").WithCause(err)
	}

	s.log.Info(ctx, "account registered", map[string]interface{}{"account_id": account.ID.String()})
	return publicAccount(account), nil
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and issues a fresh token pair.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Account, *TokenPair, error) {
	in.Email = NormalizeEmail(in.Email)
	if in.Email == "" || in.Password == "" {
		return nil, nil, apperrors.BadRequest("email and password are required")
	}

	account, err := s.accounts.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, db.ErrAccountNotFound) {
			return nil, nil, apperrors.NotFound("user")
		}
		return nil, nil, apperrors.DatabaseError("failed to load account").WithCause(err)
	}

	if !checkPassword(account.PasswordHash, in.Password) {
		return nil, nil, apperrors.InvalidCredentials("incorrect password")
	}

	pair, err := s.tokens.Issue(ctx, account.ID)
	if err != nil {
		return nil, nil, err
	}
	return publicAccount(account), pair, nil
}

func (s *Service) Logout(ctx context.Context, accountID uuid.UUID) error {
	if err := s.tokens.Revoke(ctx, accountID); err != nil && !errors.Is(err, db.ErrAccountNotFound) {
		return apperrors.DatabaseError("failed to log out").WithCause(err)
	}
	return nil
}

// Refresh rotates the presented refresh token into a new pair. Every failure
// is reported as 401, including store and signing errors.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.Unauthorized("unauthorized request")
	}

	pair, err := s.tokens.Rotate(ctx, refreshToken)
	if err != nil {
		appErr := apperrors.As(err)
		if appErr.HTTPStatus != http.StatusUnauthorized {
			return nil, apperrors.Unauthorized(appErr.Message).WithCause(err)
		}
		return nil, appErr
	}
	return pair, nil
}

func (s *Service) discard(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.media.Delete(ctx, key); err != nil {
			s.log.Warn(ctx, "failed to delete orphaned upload", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}
