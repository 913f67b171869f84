package i3ipc

// Rect is a window-manager rectangle in pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Workspace is one entry of a GET_WORKSPACES reply.
type Workspace struct {
	ID      int64  `json:"id"`
	Num     int    `json:"num"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Focused bool   `json:"focused"`
	Urgent  bool   `json:"urgent"`
	Rect    Rect   `json:"rect"`
	Output  string `json:"output"`
}

// Output is one entry of a GET_OUTPUTS reply. CurrentWorkspace is empty
// for inactive outputs.
type Output struct {
	Name             string  `json:"name"`
	Active           bool    `json:"active"`
	Primary          bool    `json:"primary"`
	CurrentWorkspace *string `json:"current_workspace"`
	Rect             Rect    `json:"rect"`
}

// CommandResult is the outcome of one command in a RUN_COMMAND reply.
type CommandResult struct {
	Success    bool   `json:"success"`
	ParseError bool   `json:"parse_error,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Event is a subscription event. Change is the event's "change" field
// (focus, init, empty, urgent, ...).
type Event struct {
	Type    EventType
	Change  string
	Payload []byte
}
