package api

import (
	"net/http"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/db"
	apperrors "github.com/videotube/backend/internal/errors"
	"github.com/videotube/backend/internal/request"
)

type SubscriptionHandlers struct {
	subscriptions SubscriptionStore
	accounts      AccountDirectory
	stats         *StatsCache
}

func NewSubscriptionHandlers(subscriptions SubscriptionStore, accounts AccountDirectory, stats *StatsCache) *SubscriptionHandlers {
	return &SubscriptionHandlers{subscriptions: subscriptions, accounts: accounts, stats: stats}
}

// Toggle handles POST /subscriptions/{channelId}/toggle.
func (h *SubscriptionHandlers) Toggle(w http.ResponseWriter, r *http.Request) error {
	account, err := auth.RequireAccount(r.Context())
	if err != nil {
		return err
	}

	channelID, err := request.PathUUID(r, "channelId")
	if err != nil {
		return err
	}
	if channelID == account.ID {
		return apperrors.BadRequest("you cannot subscribe to yourself")
	}

	ctx := r.Context()
	if _, err := h.accounts.Summary(ctx, channelID); err != nil {
		return storeError(err, db.ErrAccountNotFound, "channel", "load channel")
	}

	subscribed, err := h.subscriptions.Toggle(ctx, account.ID, channelID)
	if err != nil {
		return storeError(err, nil, "subscription", "toggle subscription")
	}
	h.stats.Invalidate(ctx, channelID)

	data := map[string]bool{"subscribed": subscribed}
	if subscribed {
		return apperrors.Respond(w, r, http.StatusCreated, data, "Subscribed")
	}
	return apperrors.Respond(w, r, http.StatusOK, data, "Unsubscribed")
}

// Subscribers handles GET /subscriptions/channel/{channelId}/subscribers.
func (h *SubscriptionHandlers) Subscribers(w http.ResponseWriter, r *http.Request) error {
	channelID, err := request.PathUUID(r, "channelId")
	if err != nil {
		return err
	}

	subs, err := h.subscriptions.ListSubscribers(r.Context(), channelID)
	if err != nil {
		return storeError(err, nil, "subscribers", "list subscribers")
	}
	if subs == nil {
		subs = []db.Subscription{}
	}

	return apperrors.Respond(w, r, http.StatusOK, subs, "Subscribers fetched successfully")
}

// Channels handles GET /subscriptions/user/{subscriberId}/channels.
func (h *SubscriptionHandlers) Channels(w http.ResponseWriter, r *http.Request) error {
	subscriberID, err := request.PathUUID(r, "subscriberId")
	if err != nil {
		return err
	}

	subs, err := h.subscriptions.ListChannels(r.Context(), subscriberID)
	if err != nil {
		return storeError(err, nil, "channels", "list subscribed channels")
	}
	if subs == nil {
		subs = []db.Subscription{}
	}

	return apperrors.Respond(w, r, http.StatusOK, subs, "Subscribed channels fetched successfully")
}
