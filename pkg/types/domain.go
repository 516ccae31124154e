package types

// ModelCapabilities lists optional features a catalog model supports.
type ModelCapabilities struct {
	// Model accepts image inputs (requires a projector file).
	Vision bool `json:"vision"`
	// Model emits a separate reasoning stream.
	Thinking bool `json:"thinking"`
}

// ModelInfo is a catalog or discovered model together with its local status.
type ModelInfo struct {
	// Stable identifier for the model.
	// example: qwen3-vl-4b
	ID string `json:"id" example:"qwen3-vl-4b"`
	// Human-friendly name.
	// example: Qwen3 VL 4B
	Name         string            `json:"name" example:"Qwen3 VL 4B"`
	Description  string            `json:"description"`
	SizeLabel    string            `json:"size_label" example:"2.5 GB"`
	SizeBytes    uint64            `json:"size_bytes" example:"2684354560"`
	Capabilities ModelCapabilities `json:"capabilities"`
	// One of downloading, downloaded, not_downloaded.
	// example: downloaded
	Status string `json:"status" example:"downloaded"`
	// Download progress in percent while Status is downloading.
	// example: 42.5
	DownloadPercent *float32 `json:"download_percent,omitempty" example:"42.5"`
	// Model is the one the inference server was last asked to serve.
	IsCurrent bool `json:"is_current"`
}

// Model status values reported by ModelInfo.Status.
const (
	ModelStatusDownloading   = "downloading"
	ModelStatusDownloaded    = "downloaded"
	ModelStatusNotDownloaded = "not_downloaded"
)

// ChatListItem summarizes a conversation for the sidebar listing.
type ChatListItem struct {
	ID        string `json:"id" example:"0b6f3c1e-8f0a-4c62-9d7b-1a2b3c4d5e6f"`
	Title     string `json:"title" example:"New chat"`
	Preview   string `json:"preview"`
	UpdatedAt int64  `json:"updated_at" example:"1700000000000"`
}

// ChatMessage is one persisted message of a conversation.
type ChatMessage struct {
	ID       string `json:"id"`
	Role     string `json:"role" example:"assistant"`
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"`
	// Base64 encoded images attached to a user message.
	Images     []string `json:"images"`
	CreatedAt  int64    `json:"created_at" example:"1700000000000"`
	DurationMs *int64   `json:"duration_ms,omitempty" example:"1530"`
}

// ToolInfo describes a tool and whether it is enabled in settings.
type ToolInfo struct {
	ID                   string `json:"id" example:"calculator"`
	Name                 string `json:"name" example:"Calculator"`
	Description          string `json:"description"`
	Icon                 string `json:"icon"`
	Category             string `json:"category" example:"utility"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	Enabled              bool   `json:"enabled"`
}
