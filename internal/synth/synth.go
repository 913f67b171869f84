// Package synth is a small polyphonic sine synthesiser for the piano pads.
package synth

import (
	"encoding/binary"
	"math"
	"slices"
	"sync"
)

// SampleRate of the generated stream. Samples are mono float32.
const SampleRate = 44100

const (
	gain  = 0.2
	decay = 0.0004
)

// WhiteKeys are C4 to C5.
var WhiteKeys = [8]float64{261.6255, 293.6647, 329.6275, 349.2282, 391.9954, 440.0, 493.8833, 523.2511}

// BlackKeys are the sharps above C4 with a gap between E and F. Zero marks
// the gap.
var BlackKeys = [6]float64{277.1826, 311.1269, 0, 369.9944, 415.3046, 466.1637}

// Voice is one note with a linear release.
type Voice struct {
	Freq   float64
	Held   bool
	volume float64
	clock  int
}

// next advances the voice by one sample.
func (v *Voice) next() float64 {
	if v.Held {
		v.volume = 1
	}
	if v.volume <= 0 {
		v.clock = 0
		return 0
	}
	v.clock++
	if v.clock >= SampleRate {
		v.clock = 0
	}
	period := float64(v.clock) / SampleRate
	s := math.Sin(v.Freq*2*math.Pi*period*2) * gain * v.volume
	v.volume -= decay
	return s
}

// Sounding reports whether the voice still produces output.
func (v *Voice) Sounding() bool {
	return v.Held || v.volume > 0
}

// Synth mixes voices keyed by an id chosen by the caller.
type Synth struct {
	mu     sync.Mutex
	voices map[int]*Voice
}

// New returns a silent synth.
func New() *Synth {
	return &Synth{voices: make(map[int]*Voice)}
}

// SetHeld presses or releases voice id, creating it at freq on first use.
func (s *Synth) SetHeld(id int, freq float64, held bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.voices[id]
	if !ok {
		v = &Voice{Freq: freq}
		s.voices[id] = v
	}
	v.Held = held
}

// ReleaseExcept releases every held voice whose id is not in keep.
func (s *Synth) ReleaseExcept(keep []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range s.voices {
		if v.Held && !slices.Contains(keep, id) {
			v.Held = false
		}
	}
}

// Held returns the ids of held voices in ascending order.
func (s *Synth) Held() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for id, v := range s.voices {
		if v.Held {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Sample mixes the next sample of every voice.
func (s *Synth) Sample() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampleLocked()
}

func (s *Synth) sampleLocked() float32 {
	var sum float64
	for _, v := range s.voices {
		sum += v.next()
	}
	return float32(sum)
}

// Read fills p with float32 little-endian samples. It never blocks and
// never returns an error, which keeps the audio device fed with silence
// when nothing is held.
func (s *Synth) Read(p []byte) (int, error) {
	n := len(p) / 4 * 4
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i += 4 {
		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(s.sampleLocked()))
	}
	return n, nil
}
