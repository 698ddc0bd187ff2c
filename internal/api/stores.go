package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/db"
)

// The handlers depend on these narrow views of the repositories in
// internal/db rather than the concrete types.

type AccountDirectory interface {
	Summary(ctx context.Context, id uuid.UUID) (*db.AccountSummary, error)
}

type VideoStore interface {
	Create(ctx context.Context, v *db.Video) error
	GetByID(ctx context.Context, id uuid.UUID) (*db.Video, error)
	List(ctx context.Context, f db.VideoFilter) ([]db.Video, int, error)
	Update(ctx context.Context, v *db.Video) error
	Delete(ctx context.Context, id uuid.UUID) error
	TogglePublish(ctx context.Context, id uuid.UUID) (bool, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type CommentStore interface {
	Create(ctx context.Context, c *db.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*db.Comment, error)
	ListByVideo(ctx context.Context, videoID uuid.UUID, limit, offset int) ([]db.Comment, int, error)
	UpdateContent(ctx context.Context, c *db.Comment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type TweetStore interface {
	Create(ctx context.Context, t *db.Tweet) error
	GetByID(ctx context.Context, id uuid.UUID) (*db.Tweet, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]db.Tweet, error)
	UpdateContent(ctx context.Context, t *db.Tweet) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PlaylistStore interface {
	Create(ctx context.Context, p *db.Playlist) error
	GetByID(ctx context.Context, id uuid.UUID) (*db.Playlist, error)
	GetWithVideos(ctx context.Context, id uuid.UUID) (*db.Playlist, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]db.Playlist, error)
	Update(ctx context.Context, p *db.Playlist) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddVideo(ctx context.Context, playlistID, videoID uuid.UUID) error
	RemoveVideo(ctx context.Context, playlistID, videoID uuid.UUID) error
}

type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID uuid.UUID) (bool, error)
	ListSubscribers(ctx context.Context, channelID uuid.UUID) ([]db.Subscription, error)
	ListChannels(ctx context.Context, subscriberID uuid.UUID) ([]db.Subscription, error)
}

type LikeStore interface {
	ToggleVideoLike(ctx context.Context, videoID, accountID uuid.UUID) (bool, error)
}

type StatsStore interface {
	ChannelStats(ctx context.Context, channelID uuid.UUID) (*db.ChannelStats, error)
}

// JSONCache is satisfied by *cache.Cache.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dst any) bool
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Notifier pushes channel activity to the channel's subscribers.
type Notifier interface {
	ChannelActivity(ctx context.Context, channelID uuid.UUID, eventType string, payload any)
}

type noopNotifier struct{}

func (noopNotifier) ChannelActivity(context.Context, uuid.UUID, string, any) {}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
