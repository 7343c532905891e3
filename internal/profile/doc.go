// Package profile holds per-device mapping profiles.
//
// A profile tunes how a device's raw motion becomes commands: per-axis
// scale, inversion and deadzone, the axis-reduction mode (all axes as a
// vector, or only the dominant axis), and an optional per-device
// template override. Profiles are edited through the control API and
// persisted in SQLite; the session manager reads one snapshot at connect
// time, so a running stream is never reconfigured mid-flight.
//
// Devices without a stored profile get the identity Default, which only
// clamps deltas into [-1, 1].
package profile
