//go:build integration

package mqtt

import (
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/stockflow-core/internal/infrastructure/config"
)

// These tests need a broker at 127.0.0.1:1883:
//
//	go test -tags=integration -count=1 -v ./internal/infrastructure/mqtt/...

func integrationConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: clientID,
			TLS:      false,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// TestIntegration_SubscriptionTracking checks the bookkeeping that
// reconnection replay depends on. It does not force a disconnect (that
// would need external broker control); it verifies that Subscribe and
// Unsubscribe keep the replay set accurate.
func TestIntegration_SubscriptionTracking(t *testing.T) {
	client, err := Connect(integrationConfig("stockflow-int-sub-track"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topics := []string{
		Topics{}.SignalReading("item", "platform-1"),
		Topics{}.SignalReading("fluid", "platform-1"),
		Topics{}.PresencePlatform("platform-1"),
	}

	handler := func(topic string, payload []byte) error { return nil }

	for _, topic := range topics {
		if err := client.Subscribe(topic, 1, handler); err != nil {
			t.Fatalf("Subscribe(%s) error = %v", topic, err)
		}
	}

	if got := client.SubscriptionCount(); got != len(topics) {
		t.Errorf("SubscriptionCount() = %d, want %d", got, len(topics))
	}
	for _, topic := range topics {
		if !client.HasSubscription(topic) {
			t.Errorf("HasSubscription(%s) = false, want true", topic)
		}
	}

	if err := client.Unsubscribe(topics[0]); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}

	if got := client.SubscriptionCount(); got != len(topics)-1 {
		t.Errorf("SubscriptionCount() after unsubscribe = %d, want %d", got, len(topics)-1)
	}
	if client.HasSubscription(topics[0]) {
		t.Errorf("HasSubscription(%s) = true after unsubscribe", topics[0])
	}
}

// TestIntegration_MessageRoundtrip publishes a signal reading with one
// client and receives it on another through a wildcard subscription.
func TestIntegration_MessageRoundtrip(t *testing.T) {
	pubClient, err := Connect(integrationConfig("stockflow-int-pub"))
	if err != nil {
		t.Fatalf("Connect() publisher error = %v", err)
	}
	defer pubClient.Close()

	subClient, err := Connect(integrationConfig("stockflow-int-sub"))
	if err != nil {
		t.Fatalf("Connect() subscriber error = %v", err)
	}
	defer subClient.Close()

	expected := `{"item":"iron-plate","count":4200}`

	received := make(chan string, 1)
	var once sync.Once

	err = subClient.Subscribe(Topics{}.AllSignalReadings(), 1, func(topic string, payload []byte) error {
		once.Do(func() {
			received <- string(payload)
		})
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	// Give the broker a moment to settle the subscription.
	time.Sleep(100 * time.Millisecond)

	topic := Topics{}.SignalReading("item", "platform-aquilo-1")
	if err := pubClient.PublishString(topic, expected, 1, false); err != nil {
		t.Fatalf("PublishString() error = %v", err)
	}

	select {
	case msg := <-received:
		if msg != expected {
			t.Errorf("received %q, want %q", msg, expected)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for message")
	}
}

// TestIntegration_LoggerSwap verifies the logger can be attached and
// detached while connected.
func TestIntegration_LoggerSwap(t *testing.T) {
	client, err := Connect(integrationConfig("stockflow-int-logger"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	client.SetLogger(&recordingLogger{})
	if client.getLogger() == nil {
		t.Error("getLogger() = nil after SetLogger()")
	}

	client.SetLogger(nil)
	if client.getLogger() != nil {
		t.Error("getLogger() should be nil after SetLogger(nil)")
	}
}

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) Warn(msg string, args ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}
