package types

import "encoding/json"

// Payloads carried by events on the /events stream.

type ChatBeginPayload struct {
	ChatID string `json:"chat_id"`
}

type ChatDeltaPayload struct {
	ChatID         string `json:"chat_id"`
	Delta          string `json:"delta,omitempty"`
	ReasoningDelta string `json:"reasoning_delta,omitempty"`
}

type ChatEndPayload struct {
	ChatID     string `json:"chat_id"`
	DurationMs int64  `json:"duration_ms"`
	Cancelled  bool   `json:"cancelled,omitempty"`
	Error      string `json:"error,omitempty"`
}

type ToolCallingPayload struct {
	ChatID    string          `json:"chat_id"`
	CallID    string          `json:"call_id"`
	ToolID    string          `json:"tool_id"`
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ToolResultPayload struct {
	ChatID  string  `json:"chat_id"`
	CallID  string  `json:"call_id"`
	ToolID  string  `json:"tool_id"`
	Success bool    `json:"success"`
	Output  string  `json:"output"`
	Error   *string `json:"error,omitempty"`
}

type ModelSwitchPayload struct {
	ModelID string `json:"model_id"`
	// One of stopping, starting, ready, error.
	Status string  `json:"status"`
	Error  *string `json:"error,omitempty"`
}

type ModelStatePayload struct {
	ModelID string `json:"model_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

type DownloadProgressPayload struct {
	ModelID         string  `json:"model_id"`
	DownloadedBytes uint64  `json:"downloaded_bytes"`
	TotalBytes      uint64  `json:"total_bytes"`
	Percent         float32 `json:"percent"`
	SpeedBps        uint64  `json:"speed_bps"`
}

type DownloadCompletePayload struct {
	ModelID string `json:"model_id"`
}

type DownloadErrorPayload struct {
	ModelID   string `json:"model_id"`
	Error     string `json:"error"`
	Cancelled bool   `json:"cancelled,omitempty"`
}
