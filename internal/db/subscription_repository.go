package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Subscription is one edge of the subscriber -> channel graph, with the
// account on the other end of the edge populated.
type Subscription struct {
	ID           uuid.UUID      `json:"id"`
	Account      AccountSummary `json:"account"`
	SubscribedAt time.Time      `json:"subscribedAt"`
}

type SubscriptionRepository struct {
	db *DB
}

func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Toggle removes the edge if it exists, otherwise creates it. It reports
// whether the subscriber is subscribed afterwards.
func (r *SubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error) {
	var subscribed bool

	err := r.db.WithTx(ctx, func(ctx context.Context, tx DBTX) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`,
			subscriberID, channelID,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n > 0 {
			subscribed = false
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO subscriptions (id, subscriber_id, channel_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (subscriber_id, channel_id) DO NOTHING
		`, uuid.New(), subscriberID, channelID)
		if err != nil {
			return err
		}
		subscribed = true
		return nil
	})

	return subscribed, err
}

// ListSubscribers returns the accounts subscribed to channelID.
func (r *SubscriptionRepository) ListSubscribers(ctx context.Context, channelID uuid.UUID) ([]Subscription, error) {
	return r.list(ctx, `
		SELECT s.id, u.id, u.username, u.full_name, u.avatar_url, s.created_at
		FROM subscriptions s
		JOIN users u ON u.id = s.subscriber_id
		WHERE s.channel_id = $1
		ORDER BY s.created_at DESC
	`, channelID)
}

// ListChannels returns the channels subscriberID is subscribed to.
func (r *SubscriptionRepository) ListChannels(ctx context.Context, subscriberID uuid.UUID) ([]Subscription, error) {
	return r.list(ctx, `
		SELECT s.id, u.id, u.username, u.full_name, u.avatar_url, s.created_at
		FROM subscriptions s
		JOIN users u ON u.id = s.channel_id
		WHERE s.subscriber_id = $1
		ORDER BY s.created_at DESC
	`, subscriberID)
}

func (r *SubscriptionRepository) list(ctx context.Context, query string, id uuid.UUID) ([]Subscription, error) {
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]Subscription, 0)
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(
			&s.ID, &s.Account.ID, &s.Account.Username, &s.Account.FullName, &s.Account.AvatarURL, &s.SubscribedAt,
		); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// SubscriberIDs returns only the ids of channelID's subscribers.
func (r *SubscriptionRepository) SubscriberIDs(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT subscriber_id FROM subscriptions WHERE channel_id = $1`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
