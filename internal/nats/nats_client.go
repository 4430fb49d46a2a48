package nats

import (
	"context"
	"fmt"
	"sync"

	"github.com/alviansyahburhani/RealTimeChatLocationApp/pkg/logger"
	"github.com/nats-io/nats.go"
)

// EventsSubject is the single subject carrying every relay broadcast.
// NATS preserves publish order per connection, which is what carries the
// relay's per-sender ordering guarantee end to end.
const EventsSubject = "relay.events"

type NATSClient struct {
	Conn   *nats.Conn
	logger logger.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewNATSClient(ctx context.Context, url string) (*NATSClient, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSClient{
		Conn:   nc,
		logger: logger.FromContext(ctx).WithModule("nats"),
	}, nil
}

// Close drops all subscriptions and then the connection.
func (c *NATSClient) Close() {
	c.mu.Lock()
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.subs = nil
	c.mu.Unlock()

	c.Conn.Close()
}
