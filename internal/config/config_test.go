package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

type testOptions struct {
	Config string `help:"Config file path"`

	DevicePort  string        `toml:"device.port" env:"DEVICE_PORT"`
	DeviceMatch string        `toml:"device.match" env:"DEVICE_MATCH"`
	Synth       bool          `toml:"synth.enabled" env:"SYNTH_ENABLED"`
	Workspaces  int           `toml:"layout.workspaces" env:"LAYOUT_WORKSPACES"`
	Brightness  uint8         `toml:"device.brightness" env:"DEVICE_BRIGHTNESS"`
	Redraw      time.Duration `toml:"ui.redraw_interval" env:"UI_REDRAW_INTERVAL"`
	DevExt      []string      `toml:"dev.ext" env:"DEV_EXT"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "padnode.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeConfig(t, `
[device]
port = "hw:1,0,0"
match = "LPMiniMK3 DA"
brightness = 100

[synth]
enabled = true

[layout]
workspaces = 10

[ui]
redraw_interval = "5s"

[dev]
ext = [".go", ".toml"]
`)

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	want := testOptions{
		Config:      path,
		DevicePort:  "hw:1,0,0",
		DeviceMatch: "LPMiniMK3 DA",
		Synth:       true,
		Workspaces:  10,
		Brightness:  100,
		Redraw:      5 * time.Second,
		DevExt:      []string{".go", ".toml"},
	}
	if !reflect.DeepEqual(*opts, want) {
		t.Errorf("got %+v\nwant %+v", *opts, want)
	}
}

func TestLoadConfigEnvOverridesTOML(t *testing.T) {
	path := writeConfig(t, `
[device]
match = "from file"
[ui]
redraw_interval = "5s"
`)
	t.Setenv("PADNODE_DEVICE_MATCH", "from env")
	t.Setenv("PADNODE_UI_REDRAW_INTERVAL", "250ms")
	t.Setenv("PADNODE_DEV_EXT", ".go, .mod")

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if opts.DeviceMatch != "from env" {
		t.Errorf("DeviceMatch = %q, want env value", opts.DeviceMatch)
	}
	if opts.Redraw != 250*time.Millisecond {
		t.Errorf("Redraw = %v, want 250ms", opts.Redraw)
	}
	if !reflect.DeepEqual(opts.DevExt, []string{".go", ".mod"}) {
		t.Errorf("DevExt = %v", opts.DevExt)
	}
}

func TestLoadConfigCLIWins(t *testing.T) {
	path := writeConfig(t, "[device]\nmatch = \"from file\"\n")
	t.Setenv("PADNODE_DEVICE_MATCH", "from env")

	opts := &testOptions{Config: path, DeviceMatch: "from flag"}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&opts.DeviceMatch, "device-match", "", "")
	if err := cmd.Flags().Set("device-match", "from flag"); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if opts.DeviceMatch != "from flag" {
		t.Errorf("DeviceMatch = %q, want flag value", opts.DeviceMatch)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		env  map[string]string
	}{
		{"invalid toml", "[device\nport =", nil},
		{"bad duration in file", "[ui]\nredraw_interval = \"soon\"\n", nil},
		{"brightness out of range", "[device]\nbrightness = 300\n", nil},
		{"bad bool in env", "", map[string]string{"PADNODE_SYNTH_ENABLED": "maybe"}},
		{"bad int in env", "", map[string]string{"PADNODE_LAYOUT_WORKSPACES": "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			opts := &testOptions{Config: writeConfig(t, tt.toml)}
			if err := LoadConfig(opts, nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "absent.toml"), DeviceMatch: "default"}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if opts.DeviceMatch != "default" {
		t.Errorf("DeviceMatch = %q, want default kept", opts.DeviceMatch)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":          "port",
		"LoggingLevel":  "logging-level",
		"APIAddr":       "api-addr",
		"DeviceMatch":   "device-match",
		"UIRedrawEvery": "ui-redraw-every",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"device": map[string]any{"port": "hw:1,0"},
		"flat":   "x",
	}
	if got := getNestedValue(data, "device.port"); got != "hw:1,0" {
		t.Errorf("device.port = %v", got)
	}
	if got := getNestedValue(data, "flat"); got != "x" {
		t.Errorf("flat = %v", got)
	}
	if got := getNestedValue(data, "flat.deeper"); got != nil {
		t.Errorf("flat.deeper = %v, want nil", got)
	}
	if got := getNestedValue(data, "missing.key"); got != nil {
		t.Errorf("missing.key = %v, want nil", got)
	}
}
