package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/db"
	apperrors "github.com/videotube/backend/internal/errors"
	"github.com/videotube/backend/internal/request"
)

type PlaylistHandlers struct {
	playlists PlaylistStore
	videos    VideoStore
}

func NewPlaylistHandlers(playlists PlaylistStore, videos VideoStore) *PlaylistHandlers {
	return &PlaylistHandlers{playlists: playlists, videos: videos}
}

type createPlaylistRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type updatePlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *PlaylistHandlers) Create(w http.ResponseWriter, r *http.Request) error {
	account, err := auth.RequireAccount(r.Context())
	if err != nil {
		return err
	}

	var in createPlaylistRequest
	if err := request.DecodeJSON(w, r, &in); err != nil {
		return err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := request.Validate(in); err != nil {
		return err
	}

	playlist := &db.Playlist{
		ID:          uuid.New(),
		OwnerID:     account.ID,
		Name:        in.Name,
		Description: in.Description,
	}
	if err := h.playlists.Create(r.Context(), playlist); err != nil {
		return storeError(err, nil, "playlist", "create playlist")
	}

	return apperrors.Respond(w, r, http.StatusCreated, playlist, "Playlist created successfully")
}

// ListByUser handles GET /playlists/user/{userId}.
func (h *PlaylistHandlers) ListByUser(w http.ResponseWriter, r *http.Request) error {
	userID, err := request.PathUUID(r, "userId")
	if err != nil {
		return err
	}

	playlists, err := h.playlists.ListByOwner(r.Context(), userID)
	if err != nil {
		return storeError(err, nil, "playlists", "list playlists")
	}
	if playlists == nil {
		playlists = []db.Playlist{}
	}

	return apperrors.Respond(w, r, http.StatusOK, playlists, "Playlists fetched successfully")
}

// Get handles GET /playlists/{playlistId} with its videos in order.
func (h *PlaylistHandlers) Get(w http.ResponseWriter, r *http.Request) error {
	playlistID, err := request.PathUUID(r, "playlistId")
	if err != nil {
		return err
	}

	playlist, err := h.playlists.GetWithVideos(r.Context(), playlistID)
	if err != nil {
		return storeError(err, db.ErrPlaylistNotFound, "playlist", "load playlist")
	}

	return apperrors.Respond(w, r, http.StatusOK, playlist, "Playlist fetched successfully")
}

func (h *PlaylistHandlers) Update(w http.ResponseWriter, r *http.Request) error {
	playlist, err := h.owned(r)
	if err != nil {
		return err
	}

	var in updatePlaylistRequest
	if err := request.DecodeJSON(w, r, &in); err != nil {
		return err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		playlist.Name = name
	}
	if description := strings.TrimSpace(in.Description); description != "" {
		playlist.Description = description
	}

	if err := h.playlists.Update(r.Context(), playlist); err != nil {
		return storeError(err, db.ErrPlaylistNotFound, "playlist", "update playlist")
	}

	return apperrors.Respond(w, r, http.StatusOK, playlist, "Playlist updated successfully")
}

func (h *PlaylistHandlers) Delete(w http.ResponseWriter, r *http.Request) error {
	playlist, err := h.owned(r)
	if err != nil {
		return err
	}

	if err := h.playlists.Delete(r.Context(), playlist.ID); err != nil {
		return storeError(err, db.ErrPlaylistNotFound, "playlist", "delete playlist")
	}

	return apperrors.Respond(w, r, http.StatusOK, nil, "Playlist deleted successfully")
}

// AddVideo handles PATCH /playlists/{playlistId}/add/{videoId}. The video is
// appended at the end; adding it twice is rejected.
func (h *PlaylistHandlers) AddVideo(w http.ResponseWriter, r *http.Request) error {
	videoID, err := request.PathUUID(r, "videoId")
	if err != nil {
		return err
	}
	playlist, err := h.owned(r)
	if err != nil {
		return err
	}

	ctx := r.Context()
	exists, err := h.videos.Exists(ctx, videoID)
	if err != nil {
		return storeError(err, nil, "video", "load video")
	}
	if !exists {
		return apperrors.NotFound("video")
	}

	if err := h.playlists.AddVideo(ctx, playlist.ID, videoID); err != nil {
		if errors.Is(err, db.ErrVideoAlreadyInPlaylist) {
			return apperrors.BadRequest("video already in playlist")
		}
		return storeError(err, db.ErrPlaylistNotFound, "playlist", "add video to playlist")
	}

	return h.respondWithVideos(w, r, playlist.ID, "Video added to playlist")
}

// RemoveVideo handles PATCH /playlists/{playlistId}/remove/{videoId}.
// Removing a video that is not in the playlist succeeds.
func (h *PlaylistHandlers) RemoveVideo(w http.ResponseWriter, r *http.Request) error {
	videoID, err := request.PathUUID(r, "videoId")
	if err != nil {
		return err
	}
	playlist, err := h.owned(r)
	if err != nil {
		return err
	}

	if err := h.playlists.RemoveVideo(r.Context(), playlist.ID, videoID); err != nil {
		return storeError(err, db.ErrPlaylistNotFound, "playlist", "remove video from playlist")
	}

	return h.respondWithVideos(w, r, playlist.ID, "Video removed from playlist")
}

func (h *PlaylistHandlers) respondWithVideos(w http.ResponseWriter, r *http.Request, playlistID uuid.UUID, message string) error {
	playlist, err := h.playlists.GetWithVideos(r.Context(), playlistID)
	if err != nil {
		return storeError(err, db.ErrPlaylistNotFound, "playlist", "load playlist")
	}
	return apperrors.Respond(w, r, http.StatusOK, playlist, message)
}

func (h *PlaylistHandlers) owned(r *http.Request) (*db.Playlist, error) {
	playlistID, err := request.PathUUID(r, "playlistId")
	if err != nil {
		return nil, err
	}

	playlist, err := h.playlists.GetByID(r.Context(), playlistID)
	if err != nil {
		return nil, storeError(err, db.ErrPlaylistNotFound, "playlist", "load playlist")
	}

	if _, err := authorize(r.Context(), playlist.OwnerID, "playlist"); err != nil {
		return nil, err
	}
	return playlist, nil
}
