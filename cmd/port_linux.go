//go:build linux

package cmd

import (
	"fmt"

	"github.com/smazurov/padnode/internal/launchpad"
	"github.com/smazurov/padnode/internal/midi"
	"github.com/smazurov/padnode/pkg/linuxav/alsa"
)

func toPort(p alsa.RawMIDIPort) Port {
	return Port{
		ID:        p.ID(),
		Card:      p.Card,
		CardName:  p.CardName,
		Name:      p.Name,
		SubName:   p.SubName,
		Direction: p.Direction(),
	}
}

// ListPorts returns every raw MIDI subdevice.
func ListPorts() ([]Port, error) {
	ports, err := alsa.ListRawMIDI()
	if err != nil {
		return nil, err
	}
	out := make([]Port, len(ports))
	for i, p := range ports {
		out[i] = toPort(p)
	}
	return out, nil
}

// OpenPort opens device ("hw:C,D[,S]") or, when it is empty, the first
// port whose name contains match.
func OpenPort(device, match string) (*midi.Stream, Port, error) {
	var port alsa.RawMIDIPort
	if device != "" {
		card, dev, sub, err := alsa.ParseRawMIDIDevice(device)
		if err != nil {
			return nil, Port{}, err
		}
		port = alsa.RawMIDIPort{Card: card, Device: dev, Subdevice: sub, Input: true, Output: true}
	} else {
		found, err := alsa.FindRawMIDI(match)
		if err != nil {
			return nil, Port{}, fmt.Errorf("%w: no port matching %q: %w", launchpad.ErrNotFound, match, err)
		}
		port = found
	}
	raw, err := alsa.OpenRawMIDI(port)
	if err != nil {
		return nil, Port{}, err
	}
	return midi.NewStream(raw), toPort(port), nil
}
