package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrVideoNotFound = errors.New("video not found")

type Video struct {
	ID           uuid.UUID       `json:"id"`
	OwnerID      uuid.UUID       `json:"ownerId"`
	Owner        *AccountSummary `json:"owner,omitempty"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	VideoURL     string          `json:"videoFile"`
	VideoKey     string          `json:"-"`
	ThumbnailURL string          `json:"thumbnail"`
	ThumbnailKey string          `json:"-"`
	Duration     float64         `json:"duration"`
	Views        int64           `json:"views"`
	IsPublished  bool            `json:"isPublished"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// VideoFilter narrows and orders a video listing.
type VideoFilter struct {
	Query   string
	OwnerID uuid.UUID
	SortBy  string
	Asc     bool
	Limit   int
	Offset  int
}

var videoSortColumns = map[string]string{
	"createdAt": "v.created_at",
	"views":     "v.views",
	"title":     "v.title",
	"duration":  "v.duration_seconds",
}

// IsVideoSortField reports whether field can be used as VideoFilter.SortBy.
func IsVideoSortField(field string) bool {
	_, ok := videoSortColumns[field]
	return ok
}

type VideoRepository struct {
	db DBTX
}

func NewVideoRepository(db DBTX) *VideoRepository {
	return &VideoRepository{db: db}
}

const videoSelect = `
	SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.video_key,
		v.thumbnail_url, v.thumbnail_key, v.duration_seconds, v.views, v.is_published,
		v.created_at, v.updated_at,
		u.id, u.username, u.full_name, u.avatar_url
	FROM videos v
	JOIN users u ON u.id = v.owner_id
`

func scanVideo(row interface{ Scan(...any) error }) (*Video, error) {
	v := &Video{Owner: &AccountSummary{}}
	err := row.Scan(
		&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.VideoKey,
		&v.ThumbnailURL, &v.ThumbnailKey, &v.Duration, &v.Views, &v.IsPublished,
		&v.CreatedAt, &v.UpdatedAt,
		&v.Owner.ID, &v.Owner.Username, &v.Owner.FullName, &v.Owner.AvatarURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *VideoRepository) Create(ctx context.Context, v *Video) error {
	query := `
		INSERT INTO videos (id, owner_id, title, description, video_url, video_key,
			thumbnail_url, thumbnail_key, duration_seconds, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
		RETURNING views, is_published, created_at, updated_at
	`

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return r.db.QueryRowContext(ctx, query,
		v.ID, v.OwnerID, v.Title, v.Description, v.VideoURL, v.VideoKey,
		v.ThumbnailURL, v.ThumbnailKey, v.Duration,
	).Scan(&v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt)
}

func (r *VideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*Video, error) {
	return scanVideo(r.db.QueryRowContext(ctx, videoSelect+` WHERE v.id = $1`, id))
}

// List returns one page of videos matching f plus the total match count.
func (r *VideoRepository) List(ctx context.Context, f VideoFilter) ([]Video, int, error) {
	var where []string
	var args []any

	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("v.title ILIKE $%d", len(args)))
	}
	if f.OwnerID != uuid.Nil {
		args = append(args, f.OwnerID)
		where = append(where, fmt.Sprintf("v.owner_id = $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM videos v` + clause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	column, ok := videoSortColumns[f.SortBy]
	if !ok {
		column = videoSortColumns["createdAt"]
	}
	direction := "DESC"
	if f.Asc {
		direction = "ASC"
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf("%s%s ORDER BY %s %s, v.id LIMIT $%d OFFSET $%d",
		videoSelect, clause, column, direction, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	videos := make([]Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, 0, err
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return videos, total, nil
}

// Update persists title, description and thumbnail fields.
func (r *VideoRepository) Update(ctx context.Context, v *Video) error {
	query := `
		UPDATE videos
		SET title = $2, description = $3, thumbnail_url = $4, thumbnail_key = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query, v.ID, v.Title, v.Description, v.ThumbnailURL, v.ThumbnailKey).
		Scan(&v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVideoNotFound
	}
	return err
}

func (r *VideoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, ErrVideoNotFound)
}

// TogglePublish flips is_published and returns the new value.
func (r *VideoRepository) TogglePublish(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE videos SET is_published = NOT is_published, updated_at = NOW()
		WHERE id = $1
		RETURNING is_published
	`

	var published bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&published)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrVideoNotFound
	}
	return published, err
}

func (r *VideoRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, ErrVideoNotFound)
}

func (r *VideoRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
