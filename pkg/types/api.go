package types

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// CurrentModelResponse is returned by GET /models/current.
type CurrentModelResponse struct {
	// Empty when no model was ever selected.
	ModelID string `json:"model_id,omitempty" example:"qwen3-vl-4b"`
	Ready   bool   `json:"ready"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// NewChatResponse is returned by POST /chats.
type NewChatResponse struct {
	ID string `json:"id"`
}

// ChatsResponse wraps GET /chats.
type ChatsResponse struct {
	Chats []ChatListItem `json:"chats"`
}

// MessagesResponse wraps GET /chats/{id}/messages.
type MessagesResponse struct {
	Messages []ChatMessage `json:"messages"`
}

// TurnRequest starts one user turn in a conversation.
type TurnRequest struct {
	// example: What is 2+2?
	Prompt string `json:"prompt" validate:"required" example:"What is 2+2?"`
	// Optional base64 encoded JPEG images.
	Images []string `json:"images,omitempty" validate:"omitempty,dive,base64"`
}

// TurnResponse is the final answer of a turn.
type TurnResponse struct {
	Content    string `json:"content"`
	Thinking   string `json:"thinking,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	// The turn was stopped early; Content holds what was generated so far.
	Cancelled bool `json:"cancelled,omitempty"`
}

// RenameChatRequest is the body of PATCH /chats/{id}.
type RenameChatRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// TitleResponse is returned by POST /chats/{id}/title.
type TitleResponse struct {
	Title string `json:"title"`
}

// ToggleToolRequest is the body of PUT /tools/{id}.
type ToggleToolRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// ToolsResponse wraps GET /tools.
type ToolsResponse struct {
	Tools []ToolInfo `json:"tools"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Lifecycle state of the inference server: idle, loading, ready, error.
	// example: ready
	State string `json:"state" example:"ready"`
	Ready bool   `json:"ready"`
	// example: qwen3-vl-4b
	ModelID string `json:"model_id,omitempty" example:"qwen3-vl-4b"`
	// Process ID of the managed llama-server.
	// example: 12345
	PID int `json:"pid,omitempty" example:"12345"`
	// Base URL of the managed llama-server.
	// example: http://127.0.0.1:8080
	ServerAddress string `json:"server_address" example:"http://127.0.0.1:8080"`
	// Last error observed by the lifecycle manager (if any).
	LastError string `json:"last_error,omitempty"`
	// Model ids with a download in flight.
	Downloads []string `json:"downloads"`
	// Uptime of the daemon in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// DownloadResponse is returned by POST /models/{id}/download.
type DownloadResponse struct {
	ModelID string `json:"model_id" example:"qwen3-vl-4b"`
	// example: downloading
	Status string `json:"status" example:"downloading"`
}

// CancelResponse reports whether a cancel request found something to stop.
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}
