//go:build integration

package mqtt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/stockflow-core/internal/infrastructure/config"
)

// testConfig returns a broker configuration pointing at the local Mosquitto
// instance these tests expect on 127.0.0.1:1883.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "stockflow-test",
			TLS:      false,
		},
		Auth: config.MQTTAuthConfig{
			Username: "",
			Password: "",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// mustConnect connects with the given client ID and fails the test if the
// broker is unreachable. An empty clientID keeps the testConfig default.
// The connection is closed automatically when the test finishes.
func mustConnect(t *testing.T, clientID string) *Client {
	t.Helper()

	cfg := testConfig()
	if clientID != "" {
		cfg.Broker.ClientID = clientID
	}

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return client
}

func TestConnect(t *testing.T) {
	client := mustConnect(t, "")

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
}

func TestConnectInvalidBroker(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999

	_, err := Connect(cfg)
	if err == nil {
		t.Fatal("Connect() expected error for unreachable broker")
	}
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_BrokerRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19998

	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClose(t *testing.T) {
	client := mustConnect(t, "")

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close(), want false")
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero-value client error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}
	if client.IsConnected() {
		t.Error("IsConnected() = true for zero-value client, want false")
	}
}

func TestHealthCheck(t *testing.T) {
	client := mustConnect(t, "")

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil", err)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	client := mustConnect(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() expected error for cancelled context")
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	client := mustConnect(t, "")
	client.Close()

	err := client.HealthCheck(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestPublish(t *testing.T) {
	client := mustConnect(t, "")

	topic := Topics{}.Request("test-platform", "test-entry")
	payload := []byte(`{"item":"iron-plate","count":100}`)

	if err := client.Publish(topic, payload, 1, false); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
}

func TestPublishString(t *testing.T) {
	client := mustConnect(t, "")

	topic := Topics{}.Request("test-platform", "test-entry")
	if err := client.PublishString(topic, `{"item":"copper-cable"}`, 1, false); err != nil {
		t.Errorf("PublishString() error = %v", err)
	}
}

func TestPublishRetained(t *testing.T) {
	client := mustConnect(t, "")

	topic := Topics{}.CoreGroupRequests("test-group")
	if err := client.PublishRetained(topic, []byte(`{"entries":[]}`)); err != nil {
		t.Errorf("PublishRetained() error = %v", err)
	}
}

func TestPublishNilPayload(t *testing.T) {
	client := mustConnect(t, "")

	if err := client.Publish("stockflow/test/empty", nil, 1, false); err != nil {
		t.Errorf("Publish() with nil payload error = %v", err)
	}
}

func TestPublishLargePayload(t *testing.T) {
	client := mustConnect(t, "")

	// Roughly the size of a full signal snapshot for a large platform.
	payload := make([]byte, 64*1024)
	for i := range payload {
		payload[i] = byte(i % 256)
	}

	if err := client.Publish("stockflow/test/large", payload, 1, false); err != nil {
		t.Errorf("Publish() with large payload error = %v", err)
	}
}

func TestPublishValidation(t *testing.T) {
	client := mustConnect(t, "")

	tests := []struct {
		name    string
		topic   string
		qos     byte
		wantErr error
	}{
		{name: "empty topic", topic: "", qos: 1, wantErr: ErrInvalidTopic},
		{name: "qos out of range", topic: "stockflow/test/qos", qos: 3, wantErr: ErrInvalidQoS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, []byte("x"), tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublishDisconnected(t *testing.T) {
	client := mustConnect(t, "")
	client.Close()

	err := client.Publish("stockflow/test/down", []byte("x"), 1, false)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribe(t *testing.T) {
	client := mustConnect(t, "")

	topic := "stockflow/test/subscribe"
	err := client.Subscribe(topic, 1, func(string, []byte) error { return nil })
	if err != nil {
		t.Errorf("Subscribe() error = %v", err)
	}

	if !client.HasSubscription(topic) {
		t.Error("HasSubscription() = false, want true")
	}
	if got := client.SubscriptionCount(); got != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", got)
	}
}

func TestSubscribeValidation(t *testing.T) {
	client := mustConnect(t, "")

	nop := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{name: "empty topic", topic: "", qos: 1, handler: nop, wantErr: ErrInvalidTopic},
		{name: "qos out of range", topic: "stockflow/test/qos", qos: 3, handler: nop, wantErr: ErrInvalidQoS},
		{name: "nil handler", topic: "stockflow/test/nil-handler", qos: 1, handler: nil, wantErr: ErrSubscribeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeDisconnected(t *testing.T) {
	client := mustConnect(t, "")
	client.Close()

	err := client.Subscribe("stockflow/test/down", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestUnsubscribe(t *testing.T) {
	client := mustConnect(t, "")

	topic := "stockflow/test/unsubscribe"
	if err := client.Subscribe(topic, 1, func(string, []byte) error { return nil }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := client.Unsubscribe(topic); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}

	if client.HasSubscription(topic) {
		t.Error("HasSubscription() = true after Unsubscribe(), want false")
	}
	if got := client.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", got)
	}
}

func TestUnsubscribeEmptyTopic(t *testing.T) {
	client := mustConnect(t, "")

	if err := client.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestUnsubscribeDisconnected(t *testing.T) {
	client := mustConnect(t, "")
	client.Close()

	if err := client.Unsubscribe("stockflow/test/down"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscriptionCount_Empty(t *testing.T) {
	client := mustConnect(t, "")

	if got := client.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", got)
	}
}

func TestHasSubscription_NotSubscribed(t *testing.T) {
	client := mustConnect(t, "")

	if client.HasSubscription("stockflow/test/never") {
		t.Error("HasSubscription() = true for unsubscribed topic, want false")
	}
}

func TestMultipleSubscriptions(t *testing.T) {
	client := mustConnect(t, "")

	topics := []string{
		Topics{}.SignalReading("item", "platform-1"),
		Topics{}.SignalReading("fluid", "platform-1"),
		Topics{}.SignalReading("item", "platform-2"),
	}
	nop := func(string, []byte) error { return nil }

	for _, topic := range topics {
		if err := client.Subscribe(topic, 1, nop); err != nil {
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
}

func TestPublishSubscribeRoundtrip(t *testing.T) {
	pub := mustConnect(t, "stockflow-test-pub")
	sub := mustConnect(t, "stockflow-test-sub")

	topic := "stockflow/test/roundtrip"
	want := `{"item":"iron-plate","count":4200}`
	received := make(chan string, 1)

	err := sub.Subscribe(topic, 1, func(_ string, payload []byte) error {
		received <- string(payload)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	// Let the broker register the subscription before publishing.
	time.Sleep(100 * time.Millisecond)

	if err := pub.PublishString(topic, want, 1, false); err != nil {
		t.Fatalf("PublishString() error = %v", err)
	}

	select {
	case got := <-received:
		if got != want {
			t.Errorf("received payload = %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Error("timed out waiting for message")
	}
}

func TestWildcardSubscription(t *testing.T) {
	pub := mustConnect(t, "stockflow-test-wild-pub")
	sub := mustConnect(t, "stockflow-test-wild-sub")

	pattern := "stockflow/test/+/readings"
	var mu sync.Mutex
	seen := make(map[string]bool)

	err := sub.Subscribe(pattern, 1, func(topic string, _ []byte) error {
		mu.Lock()
		seen[topic] = true
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	topics := []string{
		"stockflow/test/platform-nauvis/readings",
		"stockflow/test/platform-vulcanus/readings",
		"stockflow/test/platform-aquilo/readings",
	}
	for _, topic := range topics {
		if err := pub.PublishString(topic, `{"signals":12}`, 1, false); err != nil {
			t.Fatalf("PublishString(%s) error = %v", topic, err)
		}
	}

	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, topic := range topics {
		if !seen[topic] {
			t.Errorf("no message received on %s", topic)
		}
	}
}

func TestHandlerReturnsError(t *testing.T) {
	client := mustConnect(t, "stockflow-test-handler-err")

	topic := "stockflow/test/handler-error"
	called := make(chan struct{}, 1)

	err := client.Subscribe(topic, 1, func(string, []byte) error {
		called <- struct{}{}
		return errors.New("handler error")
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := client.PublishString(topic, "x", 1, false); err != nil {
		t.Fatalf("PublishString() error = %v", err)
	}

	// A failing handler must not tear down the subscription or the client;
	// the error is logged and dropped.
	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Error("handler was not called")
	}
}

func TestOnConnectCallback(t *testing.T) {
	client := mustConnect(t, "stockflow-test-callback")

	// Connect() has already returned, so paho's on-connect handler may have
	// fired before we install ours. Either outcome is fine; the point of the
	// test is that installing the callback after connect does not race.
	called := make(chan struct{}, 1)
	client.SetOnConnect(func() {
		select {
		case called <- struct{}{}:
		default:
		}
	})

	select {
	case <-called:
	case <-time.After(50 * time.Millisecond):
	}
}

func TestOnDisconnectCallback(t *testing.T) {
	client := mustConnect(t, "stockflow-test-disconnect-cb")

	fired := make(chan bool, 1)
	client.SetOnDisconnect(func(error) {
		fired <- true
	})

	// Graceful close does not invoke the disconnect handler; this only
	// verifies the setter is safe on a live connection.
	client.Close()
}
