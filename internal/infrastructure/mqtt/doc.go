// Package mqtt provides MQTT client connectivity for Stockflow Core.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Stockflow uses MQTT as the message bus connecting the Core to the
// field: signal channels publish counter readings, presence topics
// carry entity and platform liveness, and the provisioning bridge
// consumes request registrations. The broker (Mosquitto) decouples
// Core from the individual field publishers.
//
//	Signal Channels → MQTT Broker → Stockflow Core → Provisioning Bridge
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to all signal channel readings
//	err = client.Subscribe(mqtt.Topics{}.AllSignalReadings(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a request registration
//	topic := mqtt.Topics{}.Request("platform-aquilo-1", "iron-plate")
//	client.Publish(topic, []byte(`{"min":1000,"max":2000}`), 1, true)
package mqtt
