package sink

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Publisher is the interface MQTTSink needs from the MQTT client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTSink is a Sink that publishes request registrations as retained
// broker messages for the provisioning bridge to act on.
//
// Topic shape: <prefix>/request/<owner>/<entry>
// Register payload: {"min":1000,"max":2000}; removal publishes an empty
// retained payload so the broker drops the topic.
//
// The sink tracks what it has registered per owner so the adapter's
// enumerate-and-remove pass works without a broker round trip.
//
// Thread Safety: all methods are safe for concurrent use.
type MQTTSink struct {
	publisher   Publisher
	topicPrefix string
	qos         byte

	mu         sync.Mutex
	registered map[string]map[string]struct{} // owner -> entry set
}

// NewMQTTSink creates an MQTT-backed sink publishing under the given
// topic prefix (e.g. "stockflow").
func NewMQTTSink(publisher Publisher, topicPrefix string, qos byte) *MQTTSink {
	return &MQTTSink{
		publisher:   publisher,
		topicPrefix: topicPrefix,
		qos:         qos,
		registered:  make(map[string]map[string]struct{}),
	}
}

// Locate implements Locator; one broker serves every owner.
func (s *MQTTSink) Locate(string) (Sink, error) { return s, nil }

// Requests enumerates entries this sink has registered for the owner.
func (s *MQTTSink) Requests(owner string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]struct{}, len(s.registered[owner]))
	for entry := range s.registered[owner] {
		out[entry] = struct{}{}
	}
	return out, nil
}

// RemoveRequest retracts one entry's retained request message.
func (s *MQTTSink) RemoveRequest(owner, entry string) error {
	if err := s.publisher.Publish(s.requestTopic(owner, entry), nil, s.qos, true); err != nil {
		return fmt.Errorf("retracting request: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entries, ok := s.registered[owner]; ok {
		delete(entries, entry)
		if len(entries) == 0 {
			delete(s.registered, owner)
		}
	}
	return nil
}

// requestPayload is the wire format of a request registration.
type requestPayload struct {
	Min int64  `json:"min"`
	Max *int64 `json:"max,omitempty"`
}

// RegisterRequest publishes a request with minimum and maximum quantities.
func (s *MQTTSink) RegisterRequest(owner, entry string, minimum, maximum int64) error {
	return s.publish(owner, entry, requestPayload{Min: minimum, Max: &maximum})
}

// RegisterRequestMin publishes a request with only a minimum quantity.
func (s *MQTTSink) RegisterRequestMin(owner, entry string, minimum int64) error {
	return s.publish(owner, entry, requestPayload{Min: minimum})
}

func (s *MQTTSink) publish(owner, entry string, payload requestPayload) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling request: %w", err)
	}
	if err := s.publisher.Publish(s.requestTopic(owner, entry), b, s.qos, true); err != nil {
		return fmt.Errorf("publishing request: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.registered[owner]
	if !ok {
		entries = make(map[string]struct{})
		s.registered[owner] = entries
	}
	entries[entry] = struct{}{}
	return nil
}

func (s *MQTTSink) requestTopic(owner, entry string) string {
	return fmt.Sprintf("%s/request/%s/%s", s.topicPrefix, owner, entry)
}
