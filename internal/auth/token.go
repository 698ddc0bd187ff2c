package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/videotube/backend/internal/db"
	apperrors "github.com/videotube/backend/internal/errors"
)

const tokenIssuer = "videotube"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// TokenStore persists the digest of each account's current refresh token.
type TokenStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*db.Account, error)
	SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash string) error
	SwapRefreshTokenHash(ctx context.Context, id uuid.UUID, oldHash, newHash string) (bool, error)
}

type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// AccessClaims carries enough identity to render a request without a lookup.
type AccessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

// TokenService mints and verifies access/refresh token pairs. Each account
// holds at most one live refresh token; issuing or rotating replaces it.
type TokenService struct {
	store         TokenStore
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenService(store TokenStore, cfg TokenConfig) *TokenService {
	return &TokenService{
		store:         store,
		accessSecret:  []byte(cfg.AccessSecret),
		accessTTL:     cfg.AccessTTL,
		refreshSecret: []byte(cfg.RefreshSecret),
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

// Issue mints a new pair for the account and records its refresh token,
// replacing whatever was stored before.
func (s *TokenService) Issue(ctx context.Context, accountID uuid.UUID) (*TokenPair, error) {
	account, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperrors.InternalError("error generating tokens").WithCause(err)
	}

	pair, err := s.mint(account)
	if err != nil {
		return nil, apperrors.InternalError("error generating tokens").WithCause(err)
	}

	if err := s.store.SetRefreshTokenHash(ctx, account.ID, hashToken(pair.RefreshToken)); err != nil {
		return nil, apperrors.InternalError("error generating tokens").WithCause(err)
	}

	return pair, nil
}

// VerifyAccess checks signature and expiry only.
func (s *TokenService) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(tokenString, s.accessSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh checks the token itself and that it is the one currently
// stored for its account.
func (s *TokenService) VerifyRefresh(ctx context.Context, tokenString string) (*db.Account, error) {
	claims := &jwt.RegisteredClaims{}
	if err := s.parse(tokenString, s.refreshSecret, claims); err != nil {
		return nil, apperrors.InvalidToken("invalid or expired refresh token").WithCause(err)
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperrors.InvalidToken("invalid refresh token")
	}

	account, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, db.ErrAccountNotFound) {
			return nil, apperrors.InvalidToken("invalid refresh token")
		}
		return nil, apperrors.InvalidToken("invalid refresh token").WithCause(err)
	}

	if !account.RefreshTokenHash.Valid || !digestEqual(account.RefreshTokenHash.String, hashToken(tokenString)) {
		return nil, apperrors.InvalidToken("refresh token is expired or used")
	}

	return account, nil
}

// Rotate exchanges a valid refresh token for a new pair. The swap only
// succeeds if the presented token is still the stored one, so two concurrent
// rotations of the same token cannot both win.
func (s *TokenService) Rotate(ctx context.Context, tokenString string) (*TokenPair, error) {
	account, err := s.VerifyRefresh(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	pair, err := s.mint(account)
	if err != nil {
		return nil, apperrors.InternalError("error generating tokens").WithCause(err)
	}

	swapped, err := s.store.SwapRefreshTokenHash(ctx, account.ID, hashToken(tokenString), hashToken(pair.RefreshToken))
	if err != nil {
		return nil, apperrors.InternalError("error generating tokens").WithCause(err)
	}
	if !swapped {
		return nil, apperrors.InvalidToken("refresh token is expired or used")
	}

	return pair, nil
}

// Revoke clears the stored refresh token so no outstanding one verifies.
func (s *TokenService) Revoke(ctx context.Context, accountID uuid.UUID) error {
	return s.store.SetRefreshTokenHash(ctx, accountID, "")
}

func (s *TokenService) mint(account *db.Account) (*TokenPair, error) {
	now := s.now()
	accessExp := now.Add(s.accessTTL)
	refreshExp := now.Add(s.refreshTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, &AccessClaims{
		Email:    account.Email,
		Username: account.Username,
		FullName: account.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID.String(),
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	accessToken, err := access.SignedString(s.accessSecret)
	if err != nil {
		return nil, err
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.RegisteredClaims{
		Subject:   account.ID.String(),
		ID:        uuid.NewString(),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(refreshExp),
	})
	refreshToken, err := refresh.SignedString(s.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *TokenService) parse(tokenString string, secret []byte, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func digestEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
