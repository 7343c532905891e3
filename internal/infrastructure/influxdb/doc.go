// Package influxdb records motion telemetry as time series.
//
// When influxdb.enabled is set, the session manager writes two
// measurements:
//
//	motion_samples  one point per decoded sample, one field per axis,
//	                tagged by device name and logical type
//	session_stats   cumulative loop counters (samples, commands sent,
//	                send failures, poll failures), written periodically
//
// Writes are non-blocking and batched by the underlying client, so the
// poll loop never waits on the database. Async write errors surface
// through SetOnError.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without telemetry recording
//	}
//	defer client.Close()
package influxdb
