package db

import (
	"context"

	"github.com/google/uuid"
)

// ChannelStats aggregates a channel's content and audience. Channels with no
// rows report zeros.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
}

type DashboardRepository struct {
	db DBTX
}

func NewDashboardRepository(db DBTX) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) ChannelStats(ctx context.Context, channelID uuid.UUID) (*ChannelStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM videos WHERE owner_id = $1),
			(SELECT COALESCE(SUM(views), 0) FROM videos WHERE owner_id = $1),
			(SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1),
			(SELECT COUNT(*) FROM likes l JOIN videos v ON v.id = l.video_id WHERE v.owner_id = $1)
	`

	s := &ChannelStats{}
	err := r.db.QueryRowContext(ctx, query, channelID).Scan(
		&s.TotalVideos, &s.TotalViews, &s.TotalSubscribers, &s.TotalLikes,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}
