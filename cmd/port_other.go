//go:build !linux

package cmd

import (
	"errors"

	"github.com/smazurov/padnode/internal/midi"
)

var errNoALSA = errors.New("raw MIDI requires ALSA on linux")

// ListPorts returns an error on unsupported platforms.
func ListPorts() ([]Port, error) {
	return nil, errNoALSA
}

// OpenPort returns an error on unsupported platforms.
func OpenPort(_, _ string) (*midi.Stream, Port, error) {
	return nil, Port{}, errNoALSA
}
