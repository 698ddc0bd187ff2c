package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrPlaylistNotFound = errors.New("playlist not found")
var ErrVideoAlreadyInPlaylist = errors.New("video already in playlist")

type Playlist struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoCount  int       `json:"videoCount"`
	Videos      []Video   `json:"videos,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type PlaylistRepository struct {
	db *DB
}

func NewPlaylistRepository(db *DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

func (r *PlaylistRepository) Create(ctx context.Context, p *Playlist) error {
	query := `
		INSERT INTO playlists (id, owner_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.db.QueryRowContext(ctx, query, p.ID, p.OwnerID, p.Name, p.Description).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *PlaylistRepository) GetByID(ctx context.Context, id uuid.UUID) (*Playlist, error) {
	query := `
		SELECT p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at,
			(SELECT COUNT(*) FROM playlist_videos pv WHERE pv.playlist_id = p.id)
		FROM playlists p
		WHERE p.id = $1
	`

	p := &Playlist{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.VideoCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlaylistNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetWithVideos loads a playlist and its videos in playlist order.
func (r *PlaylistRepository) GetWithVideos(ctx context.Context, id uuid.UUID) (*Playlist, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	query := videoSelect + `
		JOIN playlist_videos pv ON pv.video_id = v.id
		WHERE pv.playlist_id = $1
		ORDER BY pv.position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	p.Videos = make([]Video, 0, p.VideoCount)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		p.Videos = append(p.Videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return p, nil
}

func (r *PlaylistRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Playlist, error) {
	query := `
		SELECT p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at,
			COUNT(pv.video_id)
		FROM playlists p
		LEFT JOIN playlist_videos pv ON pv.playlist_id = p.id
		WHERE p.owner_id = $1
		GROUP BY p.id
		ORDER BY p.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	playlists := make([]Playlist, 0)
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.VideoCount,
		); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

func (r *PlaylistRepository) Update(ctx context.Context, p *Playlist) error {
	query := `
		UPDATE playlists SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query, p.ID, p.Name, p.Description).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPlaylistNotFound
	}
	return err
}

func (r *PlaylistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRow(res, ErrPlaylistNotFound)
}

// AddVideo appends videoID to the end of the playlist. The primary key on
// (playlist_id, video_id) makes the duplicate check and insert one step.
func (r *PlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID uuid.UUID) error {
	return r.db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		var locked uuid.UUID
		err := tx.QueryRowContext(ctx, `SELECT id FROM playlists WHERE id = $1 FOR UPDATE`, playlistID).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrPlaylistNotFound
			}
			return err
		}

		query := `
			INSERT INTO playlist_videos (playlist_id, video_id, position)
			SELECT $1, $2, COALESCE(MAX(position) + 1, 0) FROM playlist_videos WHERE playlist_id = $1
			ON CONFLICT (playlist_id, video_id) DO NOTHING
		`
		res, err := tx.ExecContext(ctx, query, playlistID, videoID)
		if err != nil {
			return err
		}
		if err := expectRow(res, ErrVideoAlreadyInPlaylist); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE playlists SET updated_at = NOW() WHERE id = $1`, playlistID)
		return err
	})
}

// RemoveVideo drops videoID from the playlist and closes the gap in
// positions. Removing a video that is not present is not an error.
func (r *PlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID uuid.UUID) error {
	return r.db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		var position int
		err := tx.QueryRowContext(ctx,
			`DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2 RETURNING position`,
			playlistID, videoID,
		).Scan(&position)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		reorder := `
			UPDATE playlist_videos SET position = position - 1
			WHERE playlist_id = $1 AND position > $2
		`
		if _, err := tx.ExecContext(ctx, reorder, playlistID, position); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE playlists SET updated_at = NOW() WHERE id = $1`, playlistID)
		return err
	})
}
