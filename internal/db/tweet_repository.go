package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrTweetNotFound = errors.New("tweet not found")

type Tweet struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"ownerId"`
	Owner     *AccountSummary `json:"owner,omitempty"`
	Content   string          `json:"content"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type TweetRepository struct {
	db DBTX
}

func NewTweetRepository(db DBTX) *TweetRepository {
	return &TweetRepository{db: db}
}

func (r *TweetRepository) Create(ctx context.Context, t *Tweet) error {
	query := `
		INSERT INTO tweets (id, owner_id, content)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return r.db.QueryRowContext(ctx, query, t.ID, t.OwnerID, t.Content).Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *TweetRepository) GetByID(ctx context.Context, id uuid.UUID) (*Tweet, error) {
	query := `SELECT id, owner_id, content, created_at, updated_at FROM tweets WHERE id = $1`

	t := &Tweet{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTweetNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListByOwner returns every tweet of an account, newest first.
func (r *TweetRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Tweet, error) {
	query := `
		SELECT t.id, t.owner_id, t.content, t.created_at, t.updated_at,
			u.id, u.username, u.full_name, u.avatar_url
		FROM tweets t
		JOIN users u ON u.id = t.owner_id
		WHERE t.owner_id = $1
		ORDER BY t.created_at DESC, t.id
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tweets := make([]Tweet, 0)
	for rows.Next() {
		t := Tweet{Owner: &AccountSummary{}}
		if err := rows.Scan(
			&t.ID, &t.OwnerID, &t.Content, &t.CreatedAt, &t.UpdatedAt,
			&t.Owner.ID, &t.Owner.Username, &t.Owner.FullName, &t.Owner.AvatarURL,
		); err != nil {
			return nil, err
		}
		tweets = append(tweets, t)
	}
	return tweets, rows.Err()
}

func (r *TweetRepository) UpdateContent(ctx context.Context, t *Tweet) error {
	query := `UPDATE tweets SET content = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, t.ID, t.Content).Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTweetNotFound
	}
	return err
}

func (r *TweetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tweets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, ErrTweetNotFound)
}
