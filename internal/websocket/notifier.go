package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/logger"
)

type SubscriberLister interface {
	SubscriberIDs(ctx context.Context, channelID uuid.UUID) ([]uuid.UUID, error)
}

// Notifier pushes channel activity to the channel's connected subscribers.
// Delivery happens in the background and never fails the caller.
type Notifier struct {
	hub     *Hub
	subs    SubscriberLister
	timeout time.Duration
	wg      sync.WaitGroup
	log     *logger.Logger
}

func NewNotifier(hub *Hub, subs SubscriberLister) *Notifier {
	return &Notifier{
		hub:     hub,
		subs:    subs,
		timeout: 5 * time.Second,
		log:     logger.Default().WithComponent("notifier"),
	}
}

func (n *Notifier) ChannelActivity(ctx context.Context, channelID uuid.UUID, eventType string, payload any) {
	// Outlive the request that triggered the event.
	ctx = context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()

		recipients, err := n.subs.SubscriberIDs(ctx, channelID)
		if err != nil {
			n.log.Warn(ctx, "failed to load subscribers for notification", map[string]interface{}{
				"channel_id": channelID.String(),
				"type":       eventType,
				"error":      err.Error(),
			})
			return
		}

		n.hub.Send(recipients, &Event{
			Type:      eventType,
			ChannelID: channelID,
			Payload:   payload,
			SentAt:    time.Now().UTC(),
		})
	}()
}

// Wait blocks until in-flight notifications have been handed to the hub.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
