//go:build linux

// Package alsa provides pure Go access to ALSA raw MIDI devices.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm).
//
// # Port Enumeration
//
// ListRawMIDI walks every sound card's control device and reports each raw
// MIDI subdevice with the directions it supports:
//
//	ports, err := alsa.ListRawMIDI()
//	for _, p := range ports {
//	    fmt.Printf("%s: %s / %s\n", p.ID(), p.Name, p.SubName)
//	}
//
// OpenRawMIDI opens one of them for reading and writing. Reads block until
// the device produces bytes and are interrupted by Close.
package alsa
