package tools

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding ExecutorConfig fields are unset.
const (
	defaultWikipediaURL  = "https://en.wikipedia.org/w/api.php"
	defaultDuckDuckGoURL = "https://api.duckduckgo.com/"
	defaultShellTimeout  = 30 * time.Second
	defaultHTTPTimeout   = 20 * time.Second
)

// ExecutorConfig holds tool endpoints and limits.
type ExecutorConfig struct {
	Logger       *zerolog.Logger
	HTTPClient   *http.Client
	WikipediaURL string
	// DuckDuckGoURL is the instant answer API endpoint.
	DuckDuckGoURL string
	ShellTimeout  time.Duration
}

// Executor runs tool calls by id.
type Executor struct {
	log          zerolog.Logger
	client       *http.Client
	wikipediaURL string
	ddgURL       string
	shellTimeout time.Duration
}

// NewExecutor constructs an Executor from ExecutorConfig.
func NewExecutor(cfg ExecutorConfig) *Executor {
	e := &Executor{
		log:          zerolog.Nop(),
		client:       cfg.HTTPClient,
		wikipediaURL: cfg.WikipediaURL,
		ddgURL:       cfg.DuckDuckGoURL,
		shellTimeout: cfg.ShellTimeout,
	}
	if cfg.Logger != nil {
		e.log = cfg.Logger.With().Str("component", "tools").Logger()
	}
	if e.client == nil {
		e.client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if e.wikipediaURL == "" {
		e.wikipediaURL = defaultWikipediaURL
	}
	if e.ddgURL == "" {
		e.ddgURL = defaultDuckDuckGoURL
	}
	if e.shellTimeout <= 0 {
		e.shellTimeout = defaultShellTimeout
	}
	return e
}

// Execute runs req and never returns an error: failures are reported in the
// Result so they can be fed back to the model.
func (e *Executor) Execute(ctx context.Context, req CallRequest) Result {
	start := time.Now()
	a := decodeArgs(req.Arguments)
	var res Result
	switch req.ToolID {
	case "wikipedia":
		res = e.wikipedia(ctx, req.CallID, a)
	case "web_search":
		res = e.webSearch(ctx, req.CallID, a)
	case "filesystem":
		res = filesystem(req.CallID, a)
	case "shell":
		res = e.shell(ctx, req.CallID, a)
	case "calculator":
		res = calculator(req.CallID, a)
	default:
		res = failure(req.CallID, "Unknown tool: %s", req.ToolID)
	}
	e.log.Debug().Str("event", "tool_executed").Str("tool", req.ToolID).Str("call_id", req.CallID).
		Bool("success", res.Success).Dur("elapsed", time.Since(start)).Msg("tool call")
	return res
}
