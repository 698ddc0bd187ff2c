package api

import (
	"net/http"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/db"
	apperrors "github.com/videotube/backend/internal/errors"
	"github.com/videotube/backend/internal/request"
)

type LikeHandlers struct {
	likes  LikeStore
	videos VideoStore
	stats  *StatsCache
}

func NewLikeHandlers(likes LikeStore, videos VideoStore, stats *StatsCache) *LikeHandlers {
	return &LikeHandlers{likes: likes, videos: videos, stats: stats}
}

// ToggleVideoLike handles POST /likes/toggle/v/{videoId}.
func (h *LikeHandlers) ToggleVideoLike(w http.ResponseWriter, r *http.Request) error {
	account, err := auth.RequireAccount(r.Context())
	if err != nil {
		return err
	}

	videoID, err := request.PathUUID(r, "videoId")
	if err != nil {
		return err
	}

	ctx := r.Context()
	video, err := h.videos.GetByID(ctx, videoID)
	if err != nil {
		return storeError(err, db.ErrVideoNotFound, "video", "load video")
	}

	liked, err := h.likes.ToggleVideoLike(ctx, video.ID, account.ID)
	if err != nil {
		return storeError(err, nil, "like", "toggle like")
	}
	h.stats.Invalidate(ctx, video.OwnerID)

	message := "Video unliked"
	if liked {
		message = "Video liked"
	}
	return apperrors.Respond(w, r, http.StatusOK, map[string]bool{"liked": liked}, message)
}
