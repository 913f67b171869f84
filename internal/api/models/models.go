package models

import "github.com/smazurov/padnode/internal/version"

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionResponse struct {
	Body version.Info
}

// Status models
type StatusData struct {
	Connected        bool   `json:"connected" example:"true" doc:"Whether the Launchpad is open"`
	MessagesReceived uint64 `json:"messages_received" example:"1024" doc:"MIDI messages decoded from the device"`
	MessagesSent     uint64 `json:"messages_sent" example:"2048" doc:"MIDI messages written to the device"`
	BytesSent        uint64 `json:"bytes_sent" example:"65536" doc:"Bytes written to the device"`
	Frames           uint64 `json:"frames" example:"512" doc:"Frames pushed to the device"`
	Events           uint64 `json:"events" example:"600" doc:"Events handled by the render loop"`
	Uptime           string `json:"uptime" example:"1h2m3s" doc:"Time since the API server started"`
}

type StatusResponse struct {
	Body StatusData
}

// Device control models
type TextRequestData struct {
	Text  string `json:"text" minLength:"1" maxLength:"256" example:"hello" doc:"ASCII text to scroll across the pads"`
	Loop  bool   `json:"loop,omitempty" doc:"Repeat until replaced"`
	Speed uint8  `json:"speed,omitempty" minimum:"1" maximum:"127" default:"15" example:"15" doc:"Scroll speed"`
	Color *uint8 `json:"color,omitempty" maximum:"127" default:"3" example:"3" doc:"Palette colour of the text"`
}

type TextRequest struct {
	Body TextRequestData
}

type BrightnessRequestData struct {
	Level uint8 `json:"level" maximum:"127" example:"127" doc:"LED brightness, 0-127"`
}

type BrightnessRequest struct {
	Body BrightnessRequestData
}

// AcceptedData confirms that a request was queued for the render loop.
type AcceptedData struct {
	Status string `json:"status" example:"queued" doc:"Request status"`
}

type AcceptedResponse struct {
	Body AcceptedData
}

// Log models
type LogEntry struct {
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"launchpad" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

type LogsRequest struct {
	Tail int `query:"tail" minimum:"0" example:"100" doc:"Return only the last n entries, 0 for all"`
}

type LogsData struct {
	Entries []LogEntry `json:"entries" doc:"Buffered log entries, oldest first"`
	Count   int        `json:"count" example:"100" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}

// Error response
type ErrorData struct {
	Status  string `json:"status" example:"error" doc:"Error status"`
	Message string `json:"message" example:"Device not found" doc:"Error message"`
}

type ErrorResponse struct {
	Body ErrorData
}
