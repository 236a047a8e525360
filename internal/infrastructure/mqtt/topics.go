package mqtt

import "fmt"

// Topic prefixes per the Stockflow MQTT hierarchy.
//
// Field traffic uses the flat scheme: stockflow/{category}/{key}/{id}
// which matches what the signal channels and provisioning bridges publish.
const (
	// TopicPrefix is the base for all Stockflow topics.
	TopicPrefix = "stockflow"

	// TopicPrefixCore is the base for core-published topics.
	TopicPrefixCore = "stockflow/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "stockflow/system"
)

// Topics provides builders for Stockflow MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	readingTopic := topics.SignalReading("belt-counter", "combinator-17")
//	// Returns: "stockflow/signal/belt-counter/combinator-17"
type Topics struct{}

// =============================================================================
// Field Topics
// =============================================================================

// SignalReading returns the topic a signal channel publishes readings on.
//
// Example: stockflow/signal/belt-counter/combinator-17
func (Topics) SignalReading(channel, entityID string) string {
	return fmt.Sprintf("%s/signal/%s/%s", TopicPrefix, channel, entityID)
}

// PresenceEntity returns the topic carrying a controller entity's
// online/offline status.
//
// Example: stockflow/presence/entity/combinator-17
func (Topics) PresenceEntity(entityID string) string {
	return fmt.Sprintf("%s/presence/entity/%s", TopicPrefix, entityID)
}

// PresencePlatform returns the topic carrying a platform's status.
//
// Example: stockflow/presence/platform/platform-aquilo-1
func (Topics) PresencePlatform(ownerID string) string {
	return fmt.Sprintf("%s/presence/platform/%s", TopicPrefix, ownerID)
}

// Request returns the topic the provisioning bridge reads request
// registrations from. Payloads are retained; an empty payload retracts.
//
// Example: stockflow/request/platform-aquilo-1/iron-plate
func (Topics) Request(ownerID, entry string) string {
	return fmt.Sprintf("%s/request/%s/%s", TopicPrefix, ownerID, entry)
}

// =============================================================================
// Core Topics
// =============================================================================

// CoreGroupRequests returns the canonical request-set topic for a group.
// This is the authoritative state published by Core after each cycle.
//
// Example: stockflow/core/group/platform-aquilo-1-g3/requests
func (Topics) CoreGroupRequests(groupID string) string {
	return fmt.Sprintf("%s/group/%s/requests", TopicPrefixCore, groupID)
}

// CoreEvent returns the topic for system events.
//
// Example: stockflow/core/event/controller_registered
func (Topics) CoreEvent(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefixCore, eventType)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic.
//
// Example: stockflow/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemShutdown returns the shutdown signal topic.
//
// Example: stockflow/system/shutdown
func (Topics) SystemShutdown() string {
	return fmt.Sprintf("%s/shutdown", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllSignalReadings returns a pattern matching every signal channel.
//
// Pattern: stockflow/signal/+/+
func (Topics) AllSignalReadings() string {
	return fmt.Sprintf("%s/signal/+/+", TopicPrefix)
}

// AllPresence returns a pattern matching entity and platform presence.
//
// Pattern: stockflow/presence/+/+
func (Topics) AllPresence() string {
	return fmt.Sprintf("%s/presence/+/+", TopicPrefix)
}

// AllRequests returns a pattern matching all request registrations.
//
// Pattern: stockflow/request/+/+
func (Topics) AllRequests() string {
	return fmt.Sprintf("%s/request/+/+", TopicPrefix)
}

// AllCoreEvents returns a pattern matching all core events.
//
// Pattern: stockflow/core/event/+
func (Topics) AllCoreEvents() string {
	return fmt.Sprintf("%s/event/+", TopicPrefixCore)
}

// AllTopics returns a pattern matching all Stockflow topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: stockflow/#
func (Topics) AllTopics() string {
	return "stockflow/#"
}
