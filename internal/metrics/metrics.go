// Package metrics provides Prometheus metrics for the Launchpad daemon.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	midiIn = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padnode",
		Subsystem: "midi",
		Name:      "messages_received_total",
		Help:      "Inbound MIDI messages by decoded kind",
	}, []string{"kind"})

	midiOut = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padnode",
		Subsystem: "midi",
		Name:      "messages_sent_total",
		Help:      "Outbound MIDI messages by command",
	}, []string{"command"})

	midiOutBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "padnode",
		Subsystem: "midi",
		Name:      "bytes_sent_total",
		Help:      "Bytes written to the MIDI port",
	})

	padsUpdated = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "padnode",
		Subsystem: "ui",
		Name:      "pads_updated",
		Help:      "Pads changed per full update",
		Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 81},
	})

	eventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padnode",
		Subsystem: "ui",
		Name:      "events_total",
		Help:      "Events processed by the render loop",
	}, []string{"event"})

	wmCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "padnode",
		Subsystem: "wm",
		Name:      "commands_total",
		Help:      "Window manager commands by outcome",
	}, []string{"result"})

	animationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "padnode",
		Subsystem: "ui",
		Name:      "animation_seconds",
		Help:      "Time spent playing animations",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4},
	}, []string{"animation"})

	deviceConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "padnode",
		Subsystem: "device",
		Name:      "connected",
		Help:      "Whether a Launchpad is connected",
	})

	deviceConnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "padnode",
		Subsystem: "device",
		Name:      "connects_total",
		Help:      "Times a Launchpad was opened",
	})

	// Local copy for the status API.
	stats   Stats
	statsMu sync.RWMutex
)

// Stats is a point-in-time view of the counters.
type Stats struct {
	Connected        bool
	MessagesReceived uint64
	MessagesSent     uint64
	BytesSent        uint64
	Frames           uint64
	Events           uint64
}

// MIDIIn counts an inbound message.
func MIDIIn(kind string) {
	midiIn.WithLabelValues(kind).Inc()
	update(func(s *Stats) { s.MessagesReceived++ })
}

// MIDIOut counts an outbound message of n bytes.
func MIDIOut(command string, n int) {
	midiOut.WithLabelValues(command).Inc()
	midiOutBytes.Add(float64(n))
	update(func(s *Stats) {
		s.MessagesSent++
		s.BytesSent += uint64(n)
	})
}

// FrameUpdated records a full update that changed n pads.
func FrameUpdated(n int) {
	padsUpdated.Observe(float64(n))
	update(func(s *Stats) { s.Frames++ })
}

// EventHandled counts an event processed by the render loop.
func EventHandled(event string) {
	eventsHandled.WithLabelValues(event).Inc()
	update(func(s *Stats) { s.Events++ })
}

// WMCommand counts a window manager command.
func WMCommand(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	wmCommands.WithLabelValues(result).Inc()
}

// AnimationPlayed records how long an animation ran.
func AnimationPlayed(name string, d time.Duration) {
	animationSeconds.WithLabelValues(name).Observe(d.Seconds())
}

// DeviceConnected marks the device as open.
func DeviceConnected() {
	deviceConnected.Set(1)
	deviceConnects.Inc()
	update(func(s *Stats) { s.Connected = true })
}

// DeviceDisconnected marks the device as closed.
func DeviceDisconnected() {
	deviceConnected.Set(0)
	update(func(s *Stats) { s.Connected = false })
}

// Snapshot returns the current counters.
func Snapshot() Stats {
	statsMu.RLock()
	defer statsMu.RUnlock()
	return stats
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

func update(fn func(*Stats)) {
	statsMu.Lock()
	fn(&stats)
	statsMu.Unlock()
}
