package chat

import (
	"encoding/json"

	"github.com/sashabaranov/go-openai"
)

// Message is one entry of the conversation sent to the server. The set of
// implementations is closed.
type Message interface {
	json.Marshaler
	role() string
}

// TextMessage is a system, user or assistant message. Images are base64
// JPEG payloads sent inline as data URLs.
type TextMessage struct {
	Role   string
	Text   string
	Images []string
}

// AssistantToolCallsMessage records the tool calls the model requested,
// with any text that preceded them.
type AssistantToolCallsMessage struct {
	Text      string
	ToolCalls []openai.ToolCall
}

// ToolResultMessage feeds a tool's output back to the model.
type ToolResultMessage struct {
	ToolCallID string
	Content    string
}

func (m TextMessage) role() string               { return m.Role }
func (m AssistantToolCallsMessage) role() string { return openai.ChatMessageRoleAssistant }
func (m ToolResultMessage) role() string         { return openai.ChatMessageRoleTool }

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// DataURL wraps a base64 JPEG payload.
func DataURL(b64 string) string { return "data:image/jpeg;base64," + b64 }

func (m TextMessage) MarshalJSON() ([]byte, error) {
	if len(m.Images) == 0 {
		return json.Marshal(struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}{m.Role, m.Text})
	}
	parts := make([]contentPart, 0, len(m.Images)+1)
	parts = append(parts, contentPart{Type: "text", Text: m.Text})
	for _, img := range m.Images {
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: DataURL(img)}})
	}
	return json.Marshal(struct {
		Role    string        `json:"role"`
		Content []contentPart `json:"content"`
	}{m.Role, parts})
}

func (m AssistantToolCallsMessage) MarshalJSON() ([]byte, error) {
	var content *string
	if m.Text != "" {
		content = &m.Text
	}
	return json.Marshal(struct {
		Role      string            `json:"role"`
		Content   *string           `json:"content"`
		ToolCalls []openai.ToolCall `json:"tool_calls"`
	}{m.role(), content, m.ToolCalls})
}

func (m ToolResultMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Role       string `json:"role"`
		ToolCallID string `json:"tool_call_id"`
		Content    string `json:"content"`
	}{m.role(), m.ToolCallID, m.Content})
}
