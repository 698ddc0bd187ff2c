package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/db"
	apperrors "github.com/videotube/backend/internal/errors"
	"github.com/videotube/backend/internal/request"
)

type CommentHandlers struct {
	comments CommentStore
	videos   VideoStore
}

func NewCommentHandlers(comments CommentStore, videos VideoStore) *CommentHandlers {
	return &CommentHandlers{comments: comments, videos: videos}
}

// commentRequest accepts the body under "content" or the older "text".
type commentRequest struct {
	Content string `json:"content"`
	Text    string `json:"text"`
}

func (c commentRequest) body() string {
	return strings.TrimSpace(firstNonBlank(c.Content, c.Text))
}

type commentPage struct {
	Comments []db.Comment `json:"comments"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	Limit    int          `json:"limit"`
}

// List handles GET /videos/{videoId}/comments, newest first.
func (h *CommentHandlers) List(w http.ResponseWriter, r *http.Request) error {
	videoID, err := request.PathUUID(r, "videoId")
	if err != nil {
		return err
	}

	exists, err := h.videos.Exists(r.Context(), videoID)
	if err != nil {
		return storeError(err, nil, "video", "load video")
	}
	if !exists {
		return apperrors.NotFound("video")
	}

	page := request.Pagination(r)
	comments, total, err := h.comments.ListByVideo(r.Context(), videoID, page.Limit, page.Offset())
	if err != nil {
		return storeError(err, nil, "comments", "list comments")
	}
	if comments == nil {
		comments = []db.Comment{}
	}

	return apperrors.Respond(w, r, http.StatusOK, commentPage{
		Comments: comments,
		Total:    total,
		Page:     page.Page,
		Limit:    page.Limit,
	}, "Comments fetched successfully")
}

// Add handles POST /videos/{videoId}/comments.
func (h *CommentHandlers) Add(w http.ResponseWriter, r *http.Request) error {
	account, err := auth.RequireAccount(r.Context())
	if err != nil {
		return err
	}

	videoID, err := request.PathUUID(r, "videoId")
	if err != nil {
		return err
	}

	var in commentRequest
	if err := request.DecodeJSON(w, r, &in); err != nil {
		return err
	}
	content := in.body()
	if content == "" {
		return apperrors.BadRequest("content is required")
	}

	exists, err := h.videos.Exists(r.Context(), videoID)
	if err != nil {
		return storeError(err, nil, "video", "load video")
	}
	if !exists {
		return apperrors.NotFound("video")
	}

	comment := &db.Comment{
		ID:      uuid.New(),
		VideoID: videoID,
		OwnerID: account.ID,
		Content: content,
		Owner:   summaryOf(account),
	}
	if err := h.comments.Create(r.Context(), comment); err != nil {
		return storeError(err, nil, "comment", "add comment")
	}

	return apperrors.Respond(w, r, http.StatusCreated, comment, "Comment added successfully")
}

// Update handles PATCH /comments/{commentId}.
func (h *CommentHandlers) Update(w http.ResponseWriter, r *http.Request) error {
	comment, err := h.owned(r)
	if err != nil {
		return err
	}

	var in commentRequest
	if err := request.DecodeJSON(w, r, &in); err != nil {
		return err
	}
	content := in.body()
	if content == "" {
		return apperrors.BadRequest("content is required")
	}

	comment.Content = content
	if err := h.comments.UpdateContent(r.Context(), comment); err != nil {
		return storeError(err, db.ErrCommentNotFound, "comment", "update comment")
	}

	return apperrors.Respond(w, r, http.StatusOK, comment, "Comment updated successfully")
}

// Delete handles DELETE /comments/{commentId}.
func (h *CommentHandlers) Delete(w http.ResponseWriter, r *http.Request) error {
	comment, err := h.owned(r)
	if err != nil {
		return err
	}

	if err := h.comments.Delete(r.Context(), comment.ID); err != nil {
		return storeError(err, db.ErrCommentNotFound, "comment", "delete comment")
	}

	return apperrors.Respond(w, r, http.StatusOK, nil, "Comment deleted successfully")
}

func (h *CommentHandlers) owned(r *http.Request) (*db.Comment, error) {
	commentID, err := request.PathUUID(r, "commentId")
	if err != nil {
		return nil, err
	}

	comment, err := h.comments.GetByID(r.Context(), commentID)
	if err != nil {
		return nil, storeError(err, db.ErrCommentNotFound, "comment", "load comment")
	}

	if _, err := authorize(r.Context(), comment.OwnerID, "comment"); err != nil {
		return nil, err
	}
	return comment, nil
}
