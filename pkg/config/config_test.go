package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fleetcmd/fleetcmd/pkg/util"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fleetcmd.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
username: netops
password: secret123
device_family: cisco_ios
port: 2222
concurrency: 10
output_dir: /var/log/fleetcmd
comment_markers: "#!;"
connect_timeout: 15s
command_timeout: 2m
command_delay: 500ms
`)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Username != "netops" || f.DeviceFamily != "cisco_ios" || f.Port != 2222 {
		t.Errorf("fields not loaded: %+v", f)
	}
	if f.ConnectTimeout.Std() != 15*time.Second {
		t.Errorf("connect_timeout = %v, want 15s", f.ConnectTimeout.Std())
	}
	if f.CommandTimeout.Std() != 2*time.Minute {
		t.Errorf("command_timeout = %v, want 2m", f.CommandTimeout.Std())
	}
	if f.CommandDelay.Std() != 500*time.Millisecond {
		t.Errorf("command_delay = %v, want 500ms", f.CommandDelay.Std())
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	path := writeConfig(t, "connect_timeout: fifteen\n")
	if _, err := Load(path); !errors.Is(err, util.ErrInput) {
		t.Errorf("error = %v, want ErrInput", err)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	path := writeConfig(t, "port: 99999\n")
	if _, err := Load(path); !errors.Is(err, util.ErrInput) {
		t.Errorf("error = %v, want ErrInput", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, util.ErrInput) {
		t.Errorf("error = %v, want ErrInput", err)
	}
}
