// Package tools defines the built-in tools the model may call and executes
// those calls.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Category groups tools in the UI.
type Category string

const (
	CategorySearch     Category = "search"
	CategoryWeb        Category = "web"
	CategoryFileSystem Category = "filesystem"
	CategorySystem     Category = "system"
)

// Definition describes a tool and its JSON-schema parameters.
type Definition struct {
	ID                   string                `json:"id"`
	Name                 string                `json:"name"`
	Description          string                `json:"description"`
	Icon                 string                `json:"icon"`
	Category             Category              `json:"category"`
	RequiresConfirmation bool                  `json:"requiresConfirmation"`
	Parameters           jsonschema.Definition `json:"parameters"`
}

// CallRequest is one tool invocation requested by the model.
type CallRequest struct {
	ToolID string `json:"toolId"`
	CallID string `json:"callId"`
	// Arguments is a JSON object. Malformed arguments arrive as {}.
	Arguments json.RawMessage `json:"arguments"`
}

// Result is the outcome of a tool call. Failures are values, not errors:
// they are reported back to the model.
type Result struct {
	CallID  string  `json:"callId"`
	Success bool    `json:"success"`
	Output  string  `json:"output"`
	Error   *string `json:"error,omitempty"`
}

// Content is the text fed back to the model for this result.
func (r Result) Content() string {
	if r.Success {
		return r.Output
	}
	if r.Error != nil {
		return "Error: " + *r.Error
	}
	return "Error: tool failed"
}

func success(callID, output string) Result {
	return Result{CallID: callID, Success: true, Output: output}
}

func failure(callID, format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...)
	return Result{CallID: callID, Error: &msg}
}

// args is a decoded argument object.
type args map[string]any

func decodeArgs(raw json.RawMessage) args {
	var a args
	if len(raw) == 0 || json.Unmarshal(raw, &a) != nil || a == nil {
		return args{}
	}
	return a
}

// str returns the string argument name, if present.
func (a args) str(name string) (string, bool) {
	v, ok := a[name].(string)
	return v, ok
}

func missing(callID, name string) Result {
	return failure(callID, "Missing required parameter: %s", name)
}
