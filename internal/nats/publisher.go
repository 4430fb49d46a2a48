package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/domain"
)

// PublishEvent puts an outbound envelope on the relay subject. Delivery is
// fire-and-forget; there is no ack from subscribers.
func (c *NATSClient) PublishEvent(ctx context.Context, env domain.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to serialize envelope: %w", err)
	}

	if err := c.Conn.Publish(EventsSubject, data); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", env.Event.Type, err)
	}
	return nil
}
