package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"eigend/internal/events"
	"eigend/internal/settings"
	"eigend/internal/state"
	"eigend/internal/store"
	"eigend/internal/tools"
)

// fakeServer scripts /v1/chat/completions: the n-th request is answered by
// script[n] (the last entry repeats). Request bodies are recorded.
type fakeServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies []map[string]any
	script []func(w http.ResponseWriter, r *http.Request)
}

func newFakeServer(t *testing.T, script ...func(w http.ResponseWriter, r *http.Request)) *fakeServer {
	t.Helper()
	fs := &fakeServer{script: script}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		fs.mu.Lock()
		n := len(fs.bodies)
		fs.bodies = append(fs.bodies, body)
		fs.mu.Unlock()
		if n >= len(fs.script) {
			n = len(fs.script) - 1
		}
		fs.script[n](w, r)
	}))
	t.Cleanup(fs.Server.Close)
	return fs
}

func (fs *fakeServer) requests() []map[string]any {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]map[string]any(nil), fs.bodies...)
}

// sse writes each payload as one event followed by [DONE].
func sse(payloads ...string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, p := range payloads {
			fmt.Fprintf(w, "data: %s\n\n", p)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func contentDelta(s string) string {
	b, _ := json.Marshal(map[string]any{"choices": []any{map[string]any{"delta": map[string]any{"content": s}}}})
	return string(b)
}

func reasoningDelta(s string) string {
	b, _ := json.Marshal(map[string]any{"choices": []any{map[string]any{"delta": map[string]any{"reasoning_content": s}}}})
	return string(b)
}

// toolDelta builds a tool call delta; empty strings are omitted.
func toolDelta(index int, id, name, args string) string {
	fn := map[string]any{}
	if name != "" {
		fn["name"] = name
	}
	if args != "" {
		fn["arguments"] = args
	}
	tc := map[string]any{"index": index, "function": fn}
	if id != "" {
		tc["id"] = id
	}
	b, _ := json.Marshal(map[string]any{"choices": []any{map[string]any{"delta": map[string]any{"tool_calls": []any{tc}}}}})
	return string(b)
}

type recordingExecutor struct {
	mu    sync.Mutex
	calls []tools.CallRequest
	inner ToolExecutor
}

func (r *recordingExecutor) Execute(ctx context.Context, req tools.CallRequest) tools.Result {
	r.mu.Lock()
	r.calls = append(r.calls, req)
	r.mu.Unlock()
	if r.inner != nil {
		return r.inner.Execute(ctx, req)
	}
	return tools.Result{CallID: req.CallID, Success: true, Output: "ok"}
}

type fixture struct {
	o     *Orchestrator
	rt    *state.Runtime
	pub   *events.MemoryPublisher
	store *store.Store
	exec  *recordingExecutor
}

func newFixture(t *testing.T, addr string, enabled ...string) *fixture {
	t.Helper()
	s := settings.Default()
	for _, id := range enabled {
		s = s.WithTool(id, true)
	}
	rt := state.New(addr, t.TempDir(), s)
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	pub := events.NewMemoryPublisher()
	exec := &recordingExecutor{inner: tools.NewExecutor(tools.ExecutorConfig{})}
	o := New(Config{Runtime: rt, History: st, Titles: st, Tools: exec, Publisher: pub})
	return &fixture{o: o, rt: rt, pub: pub, store: st, exec: exec}
}

func messagesOf(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	raw, ok := body["messages"].([]any)
	require.True(t, ok, "messages missing")
	out := make([]map[string]any, 0, len(raw))
	for _, m := range raw {
		out = append(out, m.(map[string]any))
	}
	return out
}

func joinNames(evs []events.Event) string {
	names := make([]string, 0, len(evs))
	for _, e := range evs {
		names = append(names, e.Name)
	}
	return strings.Join(names, ",")
}
