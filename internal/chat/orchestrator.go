// Package chat runs chat turns against the local inference server: it
// streams completions, relays deltas to the UI, and drives the tool-calling
// loop.
package chat

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"eigend/internal/events"
	"eigend/internal/state"
	"eigend/internal/tools"
	"eigend/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxIterations = 10
	defaultHistoryWindow = 20
	defaultModel         = "default"
)

// History persists and loads conversation messages.
type History interface {
	LoadRecentMessages(chatID string, limit int) ([]types.ChatMessage, error)
	AppendMessage(chatID, role, content, thinking string, images []string, durationMs *int64) error
}

// TitleStore reads the first prompt of a chat and stores its title.
type TitleStore interface {
	FirstUserMessage(chatID string) (string, bool, error)
	Rename(chatID, title string) error
}

// ToolExecutor runs one tool call. Failures are reported in the result.
type ToolExecutor interface {
	Execute(ctx context.Context, req tools.CallRequest) tools.Result
}

// ToolResolver maps enabled tool ids to definitions.
type ToolResolver interface {
	Enabled(ids []string) []tools.Definition
}

// Config holds Orchestrator dependencies and tunables.
type Config struct {
	// Runtime is required.
	Runtime *state.Runtime
	// History is required.
	History   History
	Titles    TitleStore
	Tools     ToolExecutor
	Resolver  ToolResolver
	Publisher events.Publisher
	Logger    *zerolog.Logger
	// HTTPClient streams completions; it should have no overall timeout.
	HTTPClient *http.Client
	// Model is the model name sent in requests. llama-server ignores it.
	Model         string
	MaxIterations int
	HistoryWindow int
}

// FinalAnswer is the outcome of a turn.
type FinalAnswer struct {
	VisibleText   string `json:"content"`
	ReasoningText string `json:"thinking"`
	DurationMs    int64  `json:"duration_ms"`
	Cancelled     bool   `json:"cancelled"`
}

// Orchestrator runs chat turns. Turns for different chats run
// independently; each has its own cancellation token.
type Orchestrator struct {
	rt       *state.Runtime
	history  History
	titles   TitleStore
	exec     ToolExecutor
	resolver ToolResolver
	pub      events.Publisher
	log      zerolog.Logger
	client   *http.Client
	model    string
	maxIter  int
	window   int
}

// New constructs an Orchestrator from Config.
func New(cfg Config) *Orchestrator {
	if cfg.Runtime == nil || cfg.History == nil {
		panic("chat: Config.Runtime and Config.History are required")
	}
	o := &Orchestrator{
		rt:       cfg.Runtime,
		history:  cfg.History,
		titles:   cfg.Titles,
		exec:     cfg.Tools,
		resolver: cfg.Resolver,
		pub:      events.Safe(cfg.Publisher),
		log:      zerolog.Nop(),
		client:   cfg.HTTPClient,
		model:    cfg.Model,
		maxIter:  cfg.MaxIterations,
		window:   cfg.HistoryWindow,
	}
	if cfg.Logger != nil {
		o.log = cfg.Logger.With().Str("component", "chat").Logger()
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: 0}
	}
	if o.model == "" {
		o.model = defaultModel
	}
	if o.maxIter <= 0 {
		o.maxIter = defaultMaxIterations
	}
	if o.window <= 0 {
		o.window = defaultHistoryWindow
	}
	if o.resolver == nil {
		o.resolver = tools.Registry{}
	}
	return o
}

// Cancel stops the in-flight turn of chatID. An empty chatID cancels every
// in-flight turn. It reports whether any turn was signalled.
func (o *Orchestrator) Cancel(chatID string) bool {
	if chatID == "" {
		n := o.rt.CancelAllTurns()
		o.log.Info().Str("event", "cancel_all").Int("turns", n).Msg("cancel requested")
		return n > 0
	}
	ok := o.rt.CancelTurn(chatID)
	o.log.Info().Str("event", "cancel").Str("chat", chatID).Bool("active", ok).Msg("cancel requested")
	return ok
}

func (o *Orchestrator) endTurn(chatID string, durationMs int64, cancelled bool, err error) {
	p := types.ChatEndPayload{ChatID: chatID, DurationMs: durationMs, Cancelled: cancelled}
	if err != nil {
		p.Error = err.Error()
	}
	o.pub.Publish(events.Event{Name: events.ChatEnd, Payload: p})
	o.pub.Publish(events.Event{Name: events.ChatsChanged, Payload: struct{}{}})
}
