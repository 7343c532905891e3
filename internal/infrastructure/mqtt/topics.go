package mqtt

import "fmt"

// Topic layout: motionlink/{category}/{subject}.
//
// Only outbound telemetry topics exist; the daemon never subscribes.
const (
	// TopicPrefix is the base for all motionlink topics.
	TopicPrefix = "motionlink"

	// TopicSystemStatus carries daemon online/offline status (retained, LWT).
	TopicSystemStatus = TopicPrefix + "/system/status"

	// TopicHealth carries periodic health snapshots while a session runs.
	TopicHealth = TopicPrefix + "/telemetry/health"
)

// SessionStatusTopic returns the topic for a device's session status
// transitions.
//
// Example: motionlink/session/SpaceMouse/status
func SessionStatusTopic(device string) string {
	return fmt.Sprintf("%s/session/%s/status", TopicPrefix, device)
}
