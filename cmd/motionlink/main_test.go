package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetConfigPath(t *testing.T) {
	originalEnv := os.Getenv("MOTIONLINK_CONFIG")
	defer os.Setenv("MOTIONLINK_CONFIG", originalEnv)

	os.Unsetenv("MOTIONLINK_CONFIG")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	os.Setenv("MOTIONLINK_CONFIG", "/etc/motionlink/config.yaml")
	if got := getConfigPath(); got != "/etc/motionlink/config.yaml" {
		t.Errorf("getConfigPath() = %q, want env override", got)
	}
}

// TestRun_InvalidConfig verifies run fails with an invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("MOTIONLINK_CONFIG")
	defer os.Setenv("MOTIONLINK_CONFIG", originalEnv)

	os.Setenv("MOTIONLINK_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("error = %v, want config load failure", err)
	}
}

// TestRun_InvalidDeviceConfig verifies run fails validation when a device
// references a logical type without a command template.
func TestRun_InvalidDeviceConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
logging:
  level: error
  format: text
  output: stderr

input_devices:
  SpaceMouse:
    vid: "256f"
    pid: "c635"
    type: 3dconnexion
    axes: [x, y, z]

actuation:
  commands:
    mouse: "addrotation %.3f 0.0 0.0 %s"

visualisation:
  render_options:
    visualisations:
      drishti:
        udp_ip: "127.0.0.1"
        udp_port: 7755

database:
  path: ` + filepath.Join(tmpDir, "motionlink.db") + `
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("MOTIONLINK_CONFIG")
	defer os.Setenv("MOTIONLINK_CONFIG", originalEnv)
	os.Setenv("MOTIONLINK_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail when a device type has no template")
	}
	if !strings.Contains(err.Error(), "no command template") {
		t.Errorf("error = %v, want template validation failure", err)
	}
}
