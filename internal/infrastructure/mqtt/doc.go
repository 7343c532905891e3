// Package mqtt provides the outbound MQTT telemetry client for motionlink.
//
// The daemon publishes three kinds of message:
//   - motionlink/system/status: retained online/offline status with an LWT
//     so dashboards can distinguish a crash from a graceful shutdown
//   - motionlink/session/{device}/status: session state transitions
//   - motionlink/telemetry/health: periodic health snapshots while streaming
//
// Control never flows in over MQTT (the HTTP API owns that), so the client
// is publish-only.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.PublishRetained(mqtt.SessionStatusTopic("SpaceMouse"), payload)
//
// The paho library reconnects automatically with exponential backoff;
// publishes while disconnected fail fast with ErrNotConnected.
package mqtt
