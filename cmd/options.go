// Package cmd holds the padnode daemon and its subcommands.
package cmd

import (
	"time"

	"github.com/smazurov/padnode/internal/logging"
)

const defaultRedrawInterval = 10 * time.Second

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"padnode.toml"`

	// Device settings
	Port      string `help:"Raw MIDI device (hw:C,D[,S]), empty searches by name" toml:"device.port" env:"DEVICE_PORT"`
	PortMatch string `help:"Port name to search for" default:"LPMiniMK3 DA" toml:"device.match" env:"DEVICE_MATCH"`

	// UI settings
	Layout         string `help:"Layout file with shortcuts and output colours" default:"layout.toml" toml:"ui.layout" env:"UI_LAYOUT"`
	RedrawInterval string `help:"Periodic redraw interval" default:"10s" toml:"ui.redraw_interval" env:"UI_REDRAW_INTERVAL"`
	Audio          bool   `help:"Play the piano pages through the default audio device" default:"true" toml:"audio.enabled" env:"AUDIO_ENABLED"`

	// API settings
	APIAddr      string `help:"HTTP API listen address, empty disables the API" default:"127.0.0.1:8092" toml:"api.addr" env:"API_ADDR"`
	AuthUsername string `help:"Basic auth username, empty disables auth" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingLaunchpad string `help:"Device logging level" default:"info" toml:"logging.launchpad" env:"LOGGING_LAUNCHPAD"`
	LoggingApp       string `help:"Render loop logging level" default:"info" toml:"logging.app" env:"LOGGING_APP"`
	LoggingWM        string `help:"i3 logging level" default:"info" toml:"logging.wm" env:"LOGGING_WM"`
	LoggingMedia     string `help:"Media player logging level" default:"info" toml:"logging.media" env:"LOGGING_MEDIA"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

// LoggingConfig maps the logging options to module levels.
func (o *Options) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"launchpad": o.LoggingLaunchpad,
			"app":       o.LoggingApp,
			"wm":        o.LoggingWM,
			"media":     o.LoggingMedia,
			"api":       o.LoggingAPI,
			"http":      o.LoggingAPI,
		},
	}
}

// Redraw parses RedrawInterval, falling back to 10s.
func (o *Options) Redraw() time.Duration {
	d, err := time.ParseDuration(o.RedrawInterval)
	if err != nil || d <= 0 {
		return defaultRedrawInterval
	}
	return d
}
