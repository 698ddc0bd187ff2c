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

const EventTweetCreated = "tweet_created"

type TweetHandlers struct {
	tweets   TweetStore
	accounts AccountDirectory
	notifier Notifier
}

func NewTweetHandlers(tweets TweetStore, accounts AccountDirectory, notifier Notifier) *TweetHandlers {
	return &TweetHandlers{tweets: tweets, accounts: accounts, notifier: notifierOrNoop(notifier)}
}

type tweetRequest struct {
	Content string `json:"content"`
}

func (h *TweetHandlers) Create(w http.ResponseWriter, r *http.Request) error {
	account, err := auth.RequireAccount(r.Context())
	if err != nil {
		return err
	}

	var in tweetRequest
	if err := request.DecodeJSON(w, r, &in); err != nil {
		return err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return apperrors.BadRequest("content is required")
	}

	tweet := &db.Tweet{
		ID:      uuid.New(),
		OwnerID: account.ID,
		Content: content,
		Owner:   summaryOf(account),
	}
	if err := h.tweets.Create(r.Context(), tweet); err != nil {
		return storeError(err, nil, "tweet", "create tweet")
	}

	h.notifier.ChannelActivity(r.Context(), account.ID, EventTweetCreated, tweet)
	return apperrors.Respond(w, r, http.StatusCreated, tweet, "Tweet created successfully")
}

// ListByUser handles GET /tweets/user/{userId}, newest first.
func (h *TweetHandlers) ListByUser(w http.ResponseWriter, r *http.Request) error {
	userID, err := request.PathUUID(r, "userId")
	if err != nil {
		return err
	}

	if _, err := h.accounts.Summary(r.Context(), userID); err != nil {
		return storeError(err, db.ErrAccountNotFound, "user", "load user")
	}

	tweets, err := h.tweets.ListByOwner(r.Context(), userID)
	if err != nil {
		return storeError(err, nil, "tweets", "list tweets")
	}
	if tweets == nil {
		tweets = []db.Tweet{}
	}

	return apperrors.Respond(w, r, http.StatusOK, tweets, "Tweets fetched successfully")
}

// Update replaces the content only when a non-blank one is sent.
func (h *TweetHandlers) Update(w http.ResponseWriter, r *http.Request) error {
	tweet, err := h.owned(r)
	if err != nil {
		return err
	}

	var in tweetRequest
	if err := request.DecodeJSON(w, r, &in); err != nil {
		return err
	}

	if content := strings.TrimSpace(in.Content); content != "" {
		tweet.Content = content
		if err := h.tweets.UpdateContent(r.Context(), tweet); err != nil {
			return storeError(err, db.ErrTweetNotFound, "tweet", "update tweet")
		}
	}

	return apperrors.Respond(w, r, http.StatusOK, tweet, "Tweet updated successfully")
}

func (h *TweetHandlers) Delete(w http.ResponseWriter, r *http.Request) error {
	tweet, err := h.owned(r)
	if err != nil {
		return err
	}

	if err := h.tweets.Delete(r.Context(), tweet.ID); err != nil {
		return storeError(err, db.ErrTweetNotFound, "tweet", "delete tweet")
	}

	return apperrors.Respond(w, r, http.StatusOK, nil, "Tweet deleted successfully")
}

func (h *TweetHandlers) owned(r *http.Request) (*db.Tweet, error) {
	tweetID, err := request.PathUUID(r, "tweetId")
	if err != nil {
		return nil, err
	}

	tweet, err := h.tweets.GetByID(r.Context(), tweetID)
	if err != nil {
		return nil, storeError(err, db.ErrTweetNotFound, "tweet", "load tweet")
	}

	if _, err := authorize(r.Context(), tweet.OwnerID, "tweet"); err != nil {
		return nil, err
	}
	return tweet, nil
}
