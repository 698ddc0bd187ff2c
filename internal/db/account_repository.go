package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAccountNotFound = errors.New("account not found")
var ErrAccountExists = errors.New("account with email or username already exists")

// Account is a registered user. Secret fields never leave the service layer.
type Account struct {
	ID               uuid.UUID
	Username         string
	Email            string
	FullName         string
	AvatarURL        string
	AvatarKey        string
	CoverImageURL    string
	CoverImageKey    string
	PasswordHash     string
	RefreshTokenHash sql.NullString
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AccountSummary is the public projection embedded in other resources.
type AccountSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatar"`
}

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, username, email, full_name, avatar_url, avatar_key,
	cover_image_url, cover_image_key, password_hash, refresh_token_hash, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	a := &Account{}
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.FullName, &a.AvatarURL, &a.AvatarKey,
		&a.CoverImageURL, &a.CoverImageKey, &a.PasswordHash, &a.RefreshTokenHash,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, a *Account) error {
	query := `
		INSERT INTO users (id, username, email, full_name, avatar_url, avatar_key,
			cover_image_url, cover_image_key, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.Username, a.Email, a.FullName, a.AvatarURL, a.AvatarKey,
		a.CoverImageURL, a.CoverImageKey, a.PasswordHash,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAccountExists
		}
		return err
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE email = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

// ExistsByEmailOrUsername reports whether either identifier is already taken.
func (r *AccountRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR username = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, username).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// SetRefreshTokenHash overwrites the stored refresh token digest. An empty
// hash clears it.
func (r *AccountRepository) SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `UPDATE users SET refresh_token_hash = $2, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, sql.NullString{String: hash, Valid: hash != ""})
	if err != nil {
		return err
	}
	return expectRow(res, ErrAccountNotFound)
}

// SwapRefreshTokenHash replaces the stored digest only if it still equals oldHash.
// It returns false when another rotation got there first.
func (r *AccountRepository) SwapRefreshTokenHash(ctx context.Context, id uuid.UUID, oldHash, newHash string) (bool, error) {
	query := `
		UPDATE users SET refresh_token_hash = $3, updated_at = NOW()
		WHERE id = $1 AND refresh_token_hash = $2
	`

	res, err := r.db.ExecContext(ctx, query, id, oldHash, newHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Summary loads the public projection of an account.
func (r *AccountRepository) Summary(ctx context.Context, id uuid.UUID) (*AccountSummary, error) {
	query := `SELECT id, username, full_name, avatar_url FROM users WHERE id = $1`

	s := &AccountSummary{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Username, &s.FullName, &s.AvatarURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return s, nil
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
