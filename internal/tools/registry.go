package tools

import (
	"slices"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"eigend/pkg/types"
)

func queryParams(desc string) jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"query": {Type: jsonschema.String, Description: desc},
		},
		Required: []string{"query"},
	}
}

var builtins = []Definition{
	{
		ID:          "wikipedia",
		Name:        "Wikipedia",
		Description: "Search and retrieve Wikipedia articles",
		Icon:        "book",
		Category:    CategorySearch,
		Parameters:  queryParams("The search query to find Wikipedia articles"),
	},
	{
		ID:          "web_search",
		Name:        "Web Search",
		Description: "Search the web using DuckDuckGo",
		Icon:        "globe",
		Category:    CategoryWeb,
		Parameters:  queryParams("The search query"),
	},
	{
		ID:                   "filesystem",
		Name:                 "File System",
		Description:          "Read, write, and list files on your computer",
		Icon:                 "folder",
		Category:             CategoryFileSystem,
		RequiresConfirmation: true,
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"operation": {
					Type:        jsonschema.String,
					Enum:        []string{"read", "write", "list"},
					Description: "The file operation to perform",
				},
				"path":    {Type: jsonschema.String, Description: "The file or directory path"},
				"content": {Type: jsonschema.String, Description: "Content to write (only for write operation)"},
			},
			Required: []string{"operation", "path"},
		},
	},
	{
		ID:                   "shell",
		Name:                 "Shell",
		Description:          "Execute shell commands",
		Icon:                 "terminal",
		Category:             CategorySystem,
		RequiresConfirmation: true,
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"command": {Type: jsonschema.String, Description: "The shell command to execute"},
			},
			Required: []string{"command"},
		},
	},
	{
		ID:          "calculator",
		Name:        "Calculator",
		Description: "Evaluate mathematical expressions",
		Icon:        "calculator",
		Category:    CategorySystem,
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"expression": {
					Type:        jsonschema.String,
					Description: "The mathematical expression to evaluate (e.g., '2 + 2 * 3', 'sqrt(16)', 'sin(pi/2)')",
				},
			},
			Required: []string{"expression"},
		},
	},
}

// All returns every built-in tool in registry order.
func All() []Definition { return slices.Clone(builtins) }

// Get returns the built-in tool with the given id.
func Get(id string) (Definition, bool) {
	for _, d := range builtins {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Registry resolves enabled tool ids to definitions.
type Registry struct{}

// Enabled returns the definitions for ids, in registry order. Unknown ids
// are ignored.
func (Registry) Enabled(ids []string) []Definition {
	var out []Definition
	for _, d := range builtins {
		if slices.Contains(ids, d.ID) {
			out = append(out, d)
		}
	}
	return out
}

// Infos lists every tool with its enabled flag.
func Infos(enabled []string) []types.ToolInfo {
	out := make([]types.ToolInfo, 0, len(builtins))
	for _, d := range builtins {
		out = append(out, types.ToolInfo{
			ID:                   d.ID,
			Name:                 d.Name,
			Description:          d.Description,
			Icon:                 d.Icon,
			Category:             string(d.Category),
			RequiresConfirmation: d.RequiresConfirmation,
			Enabled:              slices.Contains(enabled, d.ID),
		})
	}
	return out
}

// ToOpenAI converts definitions to the function-calling tool format. The
// function name is the tool id.
func ToOpenAI(defs []Definition) []openai.Tool {
	out := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.ID,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return out
}
