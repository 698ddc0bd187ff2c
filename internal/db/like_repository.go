package db

import (
	"context"

	"github.com/google/uuid"
)

type LikeRepository struct {
	db *DB
}

func NewLikeRepository(db *DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// ToggleVideoLike likes or unlikes a video and reports whether it is liked
// afterwards.
func (r *LikeRepository) ToggleVideoLike(ctx context.Context, videoID, accountID uuid.UUID) (bool, error) {
	var liked bool

	err := r.db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE video_id = $1 AND liked_by = $2`, videoID, accountID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n > 0 {
			liked = false
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO likes (id, video_id, liked_by)
			VALUES ($1, $2, $3)
			ON CONFLICT (video_id, liked_by) DO NOTHING
		`, uuid.New(), videoID, accountID)
		if err != nil {
			return err
		}
		liked = true
		return nil
	})

	return liked, err
}
