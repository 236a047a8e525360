package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name: "SignalReading",
			builder: func() string {
				return Topics{}.SignalReading("belt-counter", "combinator-17")
			},
			expected: "stockflow/signal/belt-counter/combinator-17",
		},
		{
			name: "PresenceEntity",
			builder: func() string {
				return Topics{}.PresenceEntity("combinator-17")
			},
			expected: "stockflow/presence/entity/combinator-17",
		},
		{
			name: "PresencePlatform",
			builder: func() string {
				return Topics{}.PresencePlatform("platform-aquilo-1")
			},
			expected: "stockflow/presence/platform/platform-aquilo-1",
		},
		{
			name: "Request",
			builder: func() string {
				return Topics{}.Request("platform-aquilo-1", "iron-plate")
			},
			expected: "stockflow/request/platform-aquilo-1/iron-plate",
		},
		{
			name: "CoreGroupRequests",
			builder: func() string {
				return Topics{}.CoreGroupRequests("platform-aquilo-1-g3")
			},
			expected: "stockflow/core/group/platform-aquilo-1-g3/requests",
		},
		{
			name: "CoreEvent",
			builder: func() string {
				return Topics{}.CoreEvent("controller_registered")
			},
			expected: "stockflow/core/event/controller_registered",
		},
		{
			name: "SystemStatus",
			builder: func() string {
				return Topics{}.SystemStatus()
			},
			expected: "stockflow/system/status",
		},
		{
			name: "SystemShutdown",
			builder: func() string {
				return Topics{}.SystemShutdown()
			},
			expected: "stockflow/system/shutdown",
		},
		{
			name: "AllSignalReadings",
			builder: func() string {
				return Topics{}.AllSignalReadings()
			},
			expected: "stockflow/signal/+/+",
		},
		{
			name: "AllPresence",
			builder: func() string {
				return Topics{}.AllPresence()
			},
			expected: "stockflow/presence/+/+",
		},
		{
			name: "AllRequests",
			builder: func() string {
				return Topics{}.AllRequests()
			},
			expected: "stockflow/request/+/+",
		},
		{
			name: "AllCoreEvents",
			builder: func() string {
				return Topics{}.AllCoreEvents()
			},
			expected: "stockflow/core/event/+",
		},
		{
			name: "AllTopics",
			builder: func() string {
				return Topics{}.AllTopics()
			},
			expected: "stockflow/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}
