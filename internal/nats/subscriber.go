package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/domain"
	"github.com/nats-io/nats.go"
)

// SubscribeEvents registers handleFunc for every envelope on the relay
// subject. Frames that fail to decode are skipped; one bad producer must
// not take the fan-out loop down.
func (c *NATSClient) SubscribeEvents(ctx context.Context, handleFunc func(domain.Envelope)) error {
	sub, err := c.Conn.Subscribe(EventsSubject, func(msg *nats.Msg) {
		var env domain.Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			c.logger.Debugf("skipping undecodable envelope: %v", err)
			return
		}
		handleFunc(env)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", EventsSubject, err)
	}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return nil
}
