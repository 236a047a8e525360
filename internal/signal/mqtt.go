package signal

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// defaultChannelTTL is how long a channel's last reading stays usable.
// Channels republish retained readings on change; a channel silent for
// longer than the TTL has almost certainly been removed or powered off,
// and its counts must stop contributing to aggregation.
const defaultChannelTTL = 5 * time.Minute

// channelReading holds one channel's latest report for an entity.
type channelReading struct {
	readings []Reading
	seenAt   time.Time
}

// MQTTSource is a Source fed by channel readings published on the
// broker. It does not subscribe itself; composition wires its
// HandleReading method into the MQTT client so the package stays free
// of transport dependencies.
//
// Expected topic shape: <prefix>/signal/<channel>/<entity>
// Expected payload: {"readings":[{"name":"iron-plate","count":500},...]}
//
// Thread Safety: all methods are safe for concurrent use.
type MQTTSource struct {
	mu       sync.RWMutex
	channels map[string]map[string]channelReading // entity -> channel -> latest
	ttl      time.Duration
	now      func() time.Time
}

// NewMQTTSource creates an MQTTSource with the given channel TTL.
// A non-positive TTL selects the default.
func NewMQTTSource(ttl time.Duration) *MQTTSource {
	if ttl <= 0 {
		ttl = defaultChannelTTL
	}
	return &MQTTSource{
		channels: make(map[string]map[string]channelReading),
		ttl:      ttl,
		now:      time.Now,
	}
}

// readingPayload is the wire format of a channel report.
type readingPayload struct {
	Readings []Reading `json:"readings"`
}

// HandleReading ingests one channel report. Wire it into the MQTT
// client's subscription for the signal wildcard topic.
func (s *MQTTSource) HandleReading(topic string, payload []byte) error {
	channel, entity, err := splitSignalTopic(topic)
	if err != nil {
		return err
	}

	var msg readingPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("parsing signal payload on %q: %w", topic, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byChannel, ok := s.channels[entity]
	if !ok {
		byChannel = make(map[string]channelReading)
		s.channels[entity] = byChannel
	}

	// Empty payload retracts the channel (retained-message delete).
	if len(msg.Readings) == 0 {
		delete(byChannel, channel)
		if len(byChannel) == 0 {
			delete(s.channels, entity)
		}
		return nil
	}

	byChannel[channel] = channelReading{
		readings: msg.Readings,
		seenAt:   s.now(),
	}
	return nil
}

// Read returns the aggregated readings for an entity, summing all
// channels whose last report is within the TTL.
func (s *MQTTSource) Read(entityID string) ([]Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byChannel, ok := s.channels[entityID]
	if !ok {
		return nil, nil
	}

	cutoff := s.now().Add(-s.ttl)
	channels := make([][]Reading, 0, len(byChannel))
	for _, cr := range byChannel {
		if cr.seenAt.Before(cutoff) {
			continue
		}
		channels = append(channels, cr.readings)
	}

	return Aggregate(channels...), nil
}

// Forget drops all cached channel state for an entity. Called when the
// host reports the entity removed so stale retained data cannot feed a
// takeover controller.
func (s *MQTTSource) Forget(entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, entityID)
}

// splitSignalTopic extracts channel and entity from a signal topic.
// Shape: <prefix>/signal/<channel>/<entity>
func splitSignalTopic(topic string) (channel, entity string, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[len(parts)-3] != "signal" {
		return "", "", fmt.Errorf("unexpected signal topic %q", topic)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
