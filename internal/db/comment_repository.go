package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrCommentNotFound = errors.New("comment not found")

type Comment struct {
	ID        uuid.UUID       `json:"id"`
	VideoID   uuid.UUID       `json:"videoId"`
	OwnerID   uuid.UUID       `json:"ownerId"`
	Owner     *AccountSummary `json:"owner,omitempty"`
	Content   string          `json:"content"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type CommentRepository struct {
	db DBTX
}

func NewCommentRepository(db DBTX) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (id, video_id, owner_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return r.db.QueryRowContext(ctx, query, c.ID, c.VideoID, c.OwnerID, c.Content).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*Comment, error) {
	query := `
		SELECT id, video_id, owner_id, content, created_at, updated_at
		FROM comments
		WHERE id = $1
	`

	c := &Comment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListByVideo returns a page of a video's comments, newest first.
func (r *CommentRepository) ListByVideo(ctx context.Context, videoID uuid.UUID, limit, offset int) ([]Comment, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE video_id = $1`, videoID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at,
			u.id, u.username, u.full_name, u.avatar_url
		FROM comments c
		JOIN users u ON u.id = c.owner_id
		WHERE c.video_id = $1
		ORDER BY c.created_at DESC, c.id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, videoID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	comments := make([]Comment, 0)
	for rows.Next() {
		c := Comment{Owner: &AccountSummary{}}
		if err := rows.Scan(
			&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
			&c.Owner.ID, &c.Owner.Username, &c.Owner.FullName, &c.Owner.AvatarURL,
		); err != nil {
			return nil, 0, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

func (r *CommentRepository) UpdateContent(ctx context.Context, c *Comment) error {
	query := `UPDATE comments SET content = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, c.ID, c.Content).Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCommentNotFound
	}
	return err
}

func (r *CommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, ErrCommentNotFound)
}
