// Package config handles loading and validating motionlink configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Validation is deliberately strict at load time: a device whose logical
// type has no matching command template, a malformed vendor/product ID, or
// an unparseable endpoint address all fail the load before any device
// connection is attempted. Silent defaulting of broken entries is never done.
//
// Performance Characteristics:
//   - Configuration is loaded once at startup
//   - The loaded snapshot is immutable; no runtime mutation of templates,
//     devices, or endpoints
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.InputDevices["SpaceMouse"].Type)
package config
