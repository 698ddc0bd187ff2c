package api

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/db"
	apperrors "github.com/videotube/backend/internal/errors"
	"github.com/videotube/backend/internal/logger"
	"github.com/videotube/backend/internal/request"
	"github.com/videotube/backend/internal/storage"
)

const EventVideoPublished = "video_published"

type VideoHandlers struct {
	videos    VideoStore
	media     storage.Store
	notifier  Notifier
	stats     *StatsCache
	maxUpload int64
	log       *logger.Logger
}

func NewVideoHandlers(videos VideoStore, media storage.Store, notifier Notifier, stats *StatsCache, maxUploadBytes int64) *VideoHandlers {
	return &VideoHandlers{
		videos:    videos,
		media:     media,
		notifier:  notifierOrNoop(notifier),
		stats:     stats,
		maxUpload: maxUploadBytes,
		log:       logger.Default().WithComponent("videos"),
	}
}

type videoPage struct {
	Videos []db.Video `json:"videos"`
	Total  int        `json:"total"`
	Page   int        `json:"page"`
	Limit  int        `json:"limit"`
}

// List handles GET /videos.
func (h *VideoHandlers) List(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	page := request.Pagination(r)

	filter := db.VideoFilter{
		Query:  q.Get("query"),
		SortBy: q.Get("sortBy"),
		Asc:    strings.EqualFold(q.Get("sortType"), "asc"),
		Limit:  page.Limit,
		Offset: page.Offset(),
	}
	if !db.IsVideoSortField(filter.SortBy) {
		filter.SortBy = "createdAt"
	}
	// A malformed owner filter is ignored rather than rejected.
	if ownerID, err := uuid.Parse(q.Get("userId")); err == nil {
		filter.OwnerID = ownerID
	}

	videos, total, err := h.videos.List(r.Context(), filter)
	if err != nil {
		return storeError(err, nil, "videos", "list videos")
	}
	if videos == nil {
		videos = []db.Video{}
	}

	return apperrors.Respond(w, r, http.StatusOK, videoPage{
		Videos: videos,
		Total:  total,
		Page:   page.Page,
		Limit:  page.Limit,
	}, "Videos fetched successfully")
}

// Publish handles POST /videos (multipart/form-data).
func (h *VideoHandlers) Publish(w http.ResponseWriter, r *http.Request) error {
	account, err := auth.RequireAccount(r.Context())
	if err != nil {
		return err
	}

	if err := request.ParseMultipart(w, r, h.maxUpload); err != nil {
		return err
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		return apperrors.BadRequest("title and description are required")
	}

	var duration float64
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		duration, err = strconv.ParseFloat(raw, 64)
		if err != nil || duration < 0 {
			return apperrors.BadRequest("duration must be a non-negative number of seconds")
		}
	}

	videoFile, closeVideo, err := request.FormFile(r, "video")
	if err != nil {
		return err
	}
	defer closeVideo()
	if videoFile == nil {
		videoFile, closeVideo, err = request.FormFile(r, "videoFile")
		if err != nil {
			return err
		}
		defer closeVideo()
	}
	if videoFile == nil {
		return apperrors.BadRequest("video file is required")
	}

	thumbnail, closeThumb, err := request.FormFile(r, "thumbnail")
	if err != nil {
		return err
	}
	defer closeThumb()

	ctx := r.Context()
	uploadedVideo, err := storage.Put(ctx, h.media, storage.PrefixVideos, videoFile)
	if err != nil {
		return apperrors.StorageError("failed to upload video").WithCause(err)
	}

	video := &db.Video{
		ID:          uuid.New(),
		OwnerID:     account.ID,
		Title:       title,
		Description: description,
		VideoURL:    uploadedVideo.URL,
		VideoKey:    uploadedVideo.Key,
		Duration:    duration,
	}

	if thumbnail != nil {
		uploadedThumb, err := storage.Put(ctx, h.media, storage.PrefixThumbnails, thumbnail)
		if err != nil {
			h.discard(ctx, uploadedVideo.Key)
			return apperrors.StorageError("failed to upload thumbnail").WithCause(err)
		}
		video.ThumbnailURL = uploadedThumb.URL
		video.ThumbnailKey = uploadedThumb.Key
	}

	if err := h.videos.Create(ctx, video); err != nil {
		h.discard(ctx, video.VideoKey, video.ThumbnailKey)
		return apperrors.DatabaseError("failed to publish video").WithCause(err)
	}
	video.Owner = summaryOf(account)

	h.stats.Invalidate(ctx, account.ID)
	if video.IsPublished {
		h.notifier.ChannelActivity(ctx, account.ID, EventVideoPublished, video)
	}

	return apperrors.Respond(w, r, http.StatusCreated, video, "Video published successfully")
}

// Get handles GET /videos/{videoId}. Every read counts as a view.
func (h *VideoHandlers) Get(w http.ResponseWriter, r *http.Request) error {
	videoID, err := request.PathUUID(r, "videoId")
	if err != nil {
		return err
	}

	if err := h.videos.IncrementViews(r.Context(), videoID); err != nil {
		return storeError(err, db.ErrVideoNotFound, "video", "record view")
	}

	video, err := h.videos.GetByID(r.Context(), videoID)
	if err != nil {
		return storeError(err, db.ErrVideoNotFound, "video", "load video")
	}

	return apperrors.Respond(w, r, http.StatusOK, video, "Video fetched successfully")
}

type updateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Update handles PATCH /videos/{videoId}. It accepts JSON, or multipart when
// a replacement thumbnail is sent.
func (h *VideoHandlers) Update(w http.ResponseWriter, r *http.Request) error {
	video, err := h.owned(r)
	if err != nil {
		return err
	}

	var (
		in        updateVideoRequest
		thumbnail *storage.File
	)
	if isMultipart(r) {
		if err := request.ParseMultipart(w, r, h.maxUpload); err != nil {
			return err
		}
		in.Title = r.FormValue("title")
		in.Description = r.FormValue("description")

		var closeThumb func()
		thumbnail, closeThumb, err = request.FormFile(r, "thumbnail")
		if err != nil {
			return err
		}
		defer closeThumb()
	} else if err := request.DecodeJSON(w, r, &in); err != nil {
		return err
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		video.Title = title
	}
	if description := strings.TrimSpace(in.Description); description != "" {
		video.Description = description
	}

	ctx := r.Context()
	oldThumbKey := ""
	if thumbnail != nil {
		uploaded, err := storage.Put(ctx, h.media, storage.PrefixThumbnails, thumbnail)
		if err != nil {
			return apperrors.StorageError("failed to upload thumbnail").WithCause(err)
		}
		oldThumbKey = video.ThumbnailKey
		video.ThumbnailURL = uploaded.URL
		video.ThumbnailKey = uploaded.Key
	}

	if err := h.videos.Update(ctx, video); err != nil {
		if thumbnail != nil {
			h.discard(ctx, video.ThumbnailKey)
		}
		return storeError(err, db.ErrVideoNotFound, "video", "update video")
	}
	h.discard(ctx, oldThumbKey)

	return apperrors.Respond(w, r, http.StatusOK, video, "Video updated successfully")
}

// Delete handles DELETE /videos/{videoId}. Media removal failures are logged
// and do not fail the request.
func (h *VideoHandlers) Delete(w http.ResponseWriter, r *http.Request) error {
	video, err := h.owned(r)
	if err != nil {
		return err
	}

	ctx := r.Context()
	if err := h.videos.Delete(ctx, video.ID); err != nil {
		return storeError(err, db.ErrVideoNotFound, "video", "delete video")
	}
	h.discard(ctx, video.VideoKey, video.ThumbnailKey)
	h.stats.Invalidate(ctx, video.OwnerID)

	return apperrors.Respond(w, r, http.StatusOK, nil, "Video deleted successfully")
}

// TogglePublish handles PATCH /videos/{videoId}/toggle-publish.
func (h *VideoHandlers) TogglePublish(w http.ResponseWriter, r *http.Request) error {
	video, err := h.owned(r)
	if err != nil {
		return err
	}

	published, err := h.videos.TogglePublish(r.Context(), video.ID)
	if err != nil {
		return storeError(err, db.ErrVideoNotFound, "video", "toggle publish status")
	}

	return apperrors.Respond(w, r, http.StatusOK, map[string]bool{"isPublished": published},
		"Publish status toggled successfully")
}

// owned loads the video named in the path and checks the caller owns it.
func (h *VideoHandlers) owned(r *http.Request) (*db.Video, error) {
	videoID, err := request.PathUUID(r, "videoId")
	if err != nil {
		return nil, err
	}

	video, err := h.videos.GetByID(r.Context(), videoID)
	if err != nil {
		return nil, storeError(err, db.ErrVideoNotFound, "video", "load video")
	}

	if _, err := authorize(r.Context(), video.OwnerID, "video"); err != nil {
		return nil, err
	}
	return video, nil
}

func (h *VideoHandlers) discard(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := h.media.Delete(ctx, key); err != nil {
			h.log.Warn(ctx, "failed to delete media", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "multipart/form-data"
}
