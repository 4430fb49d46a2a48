package service

import (
	"context"
	"fmt"

	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/domain"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/nats"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/redis"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/registry"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/session"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/pkg/logger"
)

// RelayService defines the interface
type RelayService interface {
	// Join registers a new participant and returns the registry snapshot
	// for its initialUsers frame. The snapshot includes the participant
	// itself. Everyone else gets a userJoined broadcast.
	Join(ctx context.Context, id string) (map[string]domain.Participant, error)

	// Leave removes the participant before broadcasting userDisconnected,
	// so stale updates for the departed id can never be re-broadcast.
	Leave(ctx context.Context, id string) error

	// BroadcastChat validates and relays a chat message to every
	// connection, the sender included. A location message also opens a
	// live-share session keyed by the message id.
	BroadcastChat(ctx context.Context, senderID string, msg domain.ChatMessage) error

	// UpdateLocation mutates the sender's registry entry and broadcasts
	// the full updated record. Updates for departed senders are dropped
	// silently.
	UpdateLocation(ctx context.Context, id string, coords domain.Coordinates) error

	// StopSharing ends the session and broadcasts locationShareEnded.
	// The broadcast goes out even for unknown or already-ended ids so
	// clients can reconcile optimistic local state.
	StopSharing(ctx context.Context, msgID int64) error

	// ActiveParticipants lists the presence mirror.
	ActiveParticipants(ctx context.Context) ([]string, error)

	// ConnectedIDs lists the authoritative in-process registry, so the
	// mirror can be checked against it.
	ConnectedIDs() []string
}

type relayService struct {
	registry    *registry.Registry
	tracker     *session.Tracker
	natsClient  *nats.NATSClient
	redisClient *redis.RedisClient
	logger      logger.Logger
}

func NewRelayService(
	ctx context.Context,
	reg *registry.Registry,
	tracker *session.Tracker,
	nc *nats.NATSClient,
	rc *redis.RedisClient,
) RelayService {
	return &relayService{
		registry:    reg,
		tracker:     tracker,
		natsClient:  nc,
		redisClient: rc,
		logger:      logger.FromContext(ctx).WithModule("relay"),
	}
}

func (s *relayService) Join(ctx context.Context, id string) (map[string]domain.Participant, error) {
	if !s.registry.Add(id) {
		// Ids are relay-assigned, so a collision means internal breakage.
		// Fatal to this connection only.
		return nil, fmt.Errorf("participant %s is already registered", id)
	}

	if err := s.redisClient.AddActiveParticipant(ctx, id); err != nil {
		s.logger.Errorf("failed to mirror presence for %s: %v", id, err)
	}

	snapshot := s.registry.Snapshot()

	if err := s.publish(ctx, domain.EventUserJoined, snapshot[id], id); err != nil {
		// Roll the registration back so a failed join leaves no ghost in
		// future snapshots or the presence mirror.
		s.registry.Remove(id)
		if rerr := s.redisClient.RemoveActiveParticipant(ctx, id); rerr != nil {
			s.logger.Errorf("failed to unmirror presence for %s after failed join: %v", id, rerr)
		}
		return nil, err
	}

	s.logger.Infof("participant %s joined (%d online)", id, len(snapshot))
	return snapshot, nil
}

func (s *relayService) Leave(ctx context.Context, id string) error {
	// Remove before broadcasting: a late locationUpdate for this id must
	// find no registry entry.
	if !s.registry.Remove(id) {
		return nil
	}

	if err := s.redisClient.RemoveActiveParticipant(ctx, id); err != nil {
		s.logger.Errorf("failed to unmirror presence for %s: %v", id, err)
	}

	if err := s.publish(ctx, domain.EventUserDisconnected, id, ""); err != nil {
		return err
	}

	s.logger.Infof("participant %s left", id)
	return nil
}

func (s *relayService) BroadcastChat(ctx context.Context, senderID string, msg domain.ChatMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	if msg.Type == domain.MessageTypeLocation {
		s.tracker.Start(senderID, msg.ID)
	}

	// Echo to everyone including the sender, so every client renders the
	// same authoritative message order.
	return s.publish(ctx, domain.EventNewChatMessage, msg, "")
}

func (s *relayService) UpdateLocation(ctx context.Context, id string, coords domain.Coordinates) error {
	participant, ok := s.registry.UpdateLocation(id, coords.Latitude, coords.Longitude)
	if !ok {
		// Benign race: the update arrived after the disconnect.
		s.logger.Debugf("dropping location update for departed participant %s", id)
		return nil
	}

	return s.publish(ctx, domain.EventLocationUpdate, participant, "")
}

func (s *relayService) StopSharing(ctx context.Context, msgID int64) error {
	if !s.tracker.Stop(msgID) {
		s.logger.Debugf("stop for unknown or ended session %d", msgID)
	}

	return s.publish(ctx, domain.EventLocationShareEnded, domain.SharingStopped{MsgID: msgID}, "")
}

func (s *relayService) ActiveParticipants(ctx context.Context) ([]string, error) {
	return s.redisClient.ListActiveParticipants(ctx)
}

func (s *relayService) ConnectedIDs() []string {
	return s.registry.IDs()
}

func (s *relayService) publish(ctx context.Context, t domain.EventType, payload interface{}, exclude string) error {
	event, err := domain.NewEvent(t, payload)
	if err != nil {
		return err
	}
	if err := s.natsClient.PublishEvent(ctx, domain.Envelope{Event: event, Exclude: exclude}); err != nil {
		s.logger.Errorf("publish %s failed: %v", t, err)
		return err
	}
	return nil
}
