// Package telemetry publishes session status over MQTT.
//
// The reporter is the daemon's answer to a status panel: every session
// state transition goes out retained on the device's status topic, and a
// periodic health snapshot carries loop counters and uptime. Both are
// best-effort; a disconnected broker never blocks or fails the pipeline.
package telemetry
