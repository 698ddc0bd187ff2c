package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/db"
	apperrors "github.com/videotube/backend/internal/errors"
	"github.com/videotube/backend/internal/logger"
	"github.com/videotube/backend/internal/request"
)

// StatsCache memoizes channel stats. A nil *StatsCache is valid and caches
// nothing.
type StatsCache struct {
	cache JSONCache
	ttl   time.Duration
	log   *logger.Logger
}

func NewStatsCache(cache JSONCache, ttl time.Duration) *StatsCache {
	return &StatsCache{cache: cache, ttl: ttl, log: logger.Default().WithComponent("stats-cache")}
}

func statsKey(channelID uuid.UUID) string {
	return "stats:channel:" + channelID.String()
}

func (c *StatsCache) get(ctx context.Context, channelID uuid.UUID) (*db.ChannelStats, bool) {
	if c == nil || c.cache == nil {
		return nil, false
	}
	var stats db.ChannelStats
	if !c.cache.GetJSON(ctx, statsKey(channelID), &stats) {
		return nil, false
	}
	return &stats, true
}

func (c *StatsCache) set(ctx context.Context, channelID uuid.UUID, stats *db.ChannelStats) {
	if c == nil || c.cache == nil || c.ttl <= 0 {
		return
	}
	// SetJSON logs its own failures.
	_ = c.cache.SetJSON(ctx, statsKey(channelID), stats, c.ttl)
}

// Invalidate drops the cached stats for a channel after a change that
// affects them.
func (c *StatsCache) Invalidate(ctx context.Context, channelID uuid.UUID) {
	if c == nil || c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, statsKey(channelID)); err != nil {
		c.log.Warn(ctx, "failed to invalidate channel stats", map[string]interface{}{
			"channel_id": channelID.String(),
			"error":      err.Error(),
		})
	}
}

type DashboardHandlers struct {
	stats  StatsStore
	videos VideoStore
	cache  *StatsCache
}

func NewDashboardHandlers(stats StatsStore, videos VideoStore, cache *StatsCache) *DashboardHandlers {
	return &DashboardHandlers{stats: stats, videos: videos, cache: cache}
}

// Stats handles GET /dashboard/{channelId}/stats.
func (h *DashboardHandlers) Stats(w http.ResponseWriter, r *http.Request) error {
	channelID, err := request.PathUUID(r, "channelId")
	if err != nil {
		return err
	}

	ctx := r.Context()
	if stats, ok := h.cache.get(ctx, channelID); ok {
		return apperrors.Respond(w, r, http.StatusOK, stats, "Channel stats fetched successfully")
	}

	stats, err := h.stats.ChannelStats(ctx, channelID)
	if err != nil {
		return storeError(err, nil, "channel stats", "load channel stats")
	}
	h.cache.set(ctx, channelID, stats)

	return apperrors.Respond(w, r, http.StatusOK, stats, "Channel stats fetched successfully")
}

// Videos handles GET /dashboard/{channelId}/videos, newest first.
func (h *DashboardHandlers) Videos(w http.ResponseWriter, r *http.Request) error {
	channelID, err := request.PathUUID(r, "channelId")
	if err != nil {
		return err
	}

	page := request.Pagination(r)
	videos, total, err := h.videos.List(r.Context(), db.VideoFilter{
		OwnerID: channelID,
		SortBy:  "createdAt",
		Limit:   page.Limit,
		Offset:  page.Offset(),
	})
	if err != nil {
		return storeError(err, nil, "videos", "list channel videos")
	}

	return apperrors.Respond(w, r, http.StatusOK, videoPage{
		Videos: videos,
		Total:  total,
		Page:   page.Page,
		Limit:  page.Limit,
	}, "Channel videos fetched successfully")
}
