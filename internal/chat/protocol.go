package chat

import (
	"strings"

	"github.com/sashabaranov/go-openai"
)

// completionRequest is the streaming chat completion body.
type completionRequest struct {
	Model     string        `json:"model"`
	Messages  []Message     `json:"messages"`
	Stream    bool          `json:"stream"`
	MaxTokens uint32        `json:"max_tokens,omitempty"`
	Tools     []openai.Tool `json:"tools,omitempty"`
}

// streamChunk is one SSE data payload. Fields are pointers because a delta
// carries only what changed.
type streamChunk struct {
	Choices []struct {
		Delta streamDelta `json:"delta"`
	} `json:"choices"`
}

type streamDelta struct {
	Content          *string         `json:"content"`
	ReasoningContent *string         `json:"reasoning_content"`
	ToolCalls        []toolCallDelta `json:"tool_calls"`
}

type toolCallDelta struct {
	Index    int     `json:"index"`
	ID       *string `json:"id"`
	Function *struct {
		Name      *string `json:"name"`
		Arguments *string `json:"arguments"`
	} `json:"function"`
}

// pendingCall is a tool call assembled from deltas.
type pendingCall struct {
	ID   string
	Name string
	Args strings.Builder
}

// maxToolCalls bounds the tool call index accepted from a stream.
const maxToolCalls = 64

// accumulator merges tool call deltas by index. Slots are created lazily;
// a delta may set only the id, only the name or only an argument fragment.
type accumulator struct {
	calls []*pendingCall
}

// merge folds d into its slot. It reports false when the index is out of
// range and the delta was dropped.
func (a *accumulator) merge(d toolCallDelta) bool {
	if d.Index < 0 || d.Index >= maxToolCalls {
		return false
	}
	for len(a.calls) <= d.Index {
		a.calls = append(a.calls, &pendingCall{})
	}
	c := a.calls[d.Index]
	if d.ID != nil {
		c.ID = *d.ID
	}
	if d.Function != nil {
		if d.Function.Name != nil {
			c.Name = *d.Function.Name
		}
		if d.Function.Arguments != nil {
			c.Args.WriteString(*d.Function.Arguments)
		}
	}
	return true
}

// empty reports whether no slot holds a named call.
func (a *accumulator) empty() bool {
	for _, c := range a.calls {
		if c.Name != "" {
			return false
		}
	}
	return true
}

// toolCalls converts the accumulated calls to the assistant message form.
// Slots that never received a function name are skipped.
func (a *accumulator) toolCalls() []openai.ToolCall {
	out := make([]openai.ToolCall, 0, len(a.calls))
	for _, c := range a.calls {
		if c.Name == "" {
			continue
		}
		out = append(out, openai.ToolCall{
			ID:   c.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      c.Name,
				Arguments: c.Args.String(),
			},
		})
	}
	return out
}
