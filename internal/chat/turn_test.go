package chat

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"eigend/internal/events"
	"eigend/pkg/types"
)

func TestRunTurn_StreamsAndPersists(t *testing.T) {
	srv := newFakeServer(t, sse(
		reasoningDelta("thinking..."),
		contentDelta("Hello"),
		`{not json`,
		contentDelta(", world"),
	))
	f := newFixture(t, srv.URL)

	ans, err := f.o.RunTurn(context.Background(), "c1", "hi", nil)
	require.NoError(t, err)
	require.Equal(t, "Hello, world", ans.VisibleText)
	require.Equal(t, "thinking...", ans.ReasoningText)
	require.False(t, ans.Cancelled)

	require.Equal(t, "chat:begin,chat:delta,chat:delta,chat:delta,chat:end,chats:changed", joinNames(f.pub.Events()))
	deltas := f.pub.Named(events.ChatDelta)
	require.Equal(t, "thinking...", deltas[0].Payload.(types.ChatDeltaPayload).ReasoningDelta)
	require.Equal(t, "Hello", deltas[1].Payload.(types.ChatDeltaPayload).Delta)

	msgs, err := f.store.Messages("c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "user", msgs[0].Role)
	require.Equal(t, "hi", msgs[0].Content)
	require.Equal(t, "assistant", msgs[1].Role)
	require.Equal(t, "Hello, world", msgs[1].Content)
	require.Equal(t, "thinking...", msgs[1].Thinking)
	require.NotNil(t, msgs[1].DurationMs)

	reqs := srv.requests()
	require.Len(t, reqs, 1)
	require.Equal(t, true, reqs[0]["stream"])
	require.EqualValues(t, 8192, reqs[0]["max_tokens"])
	require.NotContains(t, reqs[0], "tools")
	wire := messagesOf(t, reqs[0])
	require.Equal(t, "system", wire[0]["role"])
	require.Equal(t, "user", wire[1]["role"])
	require.Equal(t, "hi", wire[1]["content"])
}

func TestRunTurn_ToolCallAssembledAcrossDeltas(t *testing.T) {
	srv := newFakeServer(t,
		sse(
			contentDelta("Let me compute."),
			toolDelta(0, "call_1", "", ""),
			toolDelta(0, "", "calculator", ""),
			toolDelta(0, "", "", `{"expr`),
			toolDelta(0, "", "", `ession":"2+2"}`),
		),
		sse(contentDelta(" It is 4.")),
	)
	f := newFixture(t, srv.URL, "calculator")

	ans, err := f.o.RunTurn(context.Background(), "c1", "what is 2+2?", nil)
	require.NoError(t, err)
	require.Equal(t, "Let me compute. It is 4.", ans.VisibleText)

	require.Len(t, f.exec.calls, 1)
	require.Equal(t, "calculator", f.exec.calls[0].ToolID)
	require.Equal(t, "call_1", f.exec.calls[0].CallID)
	require.JSONEq(t, `{"expression":"2+2"}`, string(f.exec.calls[0].Arguments))

	reqs := srv.requests()
	require.Len(t, reqs, 2)
	require.Contains(t, reqs[0], "tools")
	wire := messagesOf(t, reqs[1])
	assistant := wire[len(wire)-2]
	require.Equal(t, "assistant", assistant["role"])
	require.Equal(t, "Let me compute.", assistant["content"])
	calls := assistant["tool_calls"].([]any)
	require.Len(t, calls, 1)
	call := calls[0].(map[string]any)
	require.Equal(t, "call_1", call["id"])
	require.Equal(t, "function", call["type"])
	fn := call["function"].(map[string]any)
	require.Equal(t, "calculator", fn["name"])
	require.Equal(t, `{"expression":"2+2"}`, fn["arguments"])

	toolMsg := wire[len(wire)-1]
	require.Equal(t, "tool", toolMsg["role"])
	require.Equal(t, "call_1", toolMsg["tool_call_id"])
	require.Equal(t, "2+2 = 4", toolMsg["content"])

	res := f.pub.Named(events.ToolResult)
	require.Len(t, res, 1)
	require.True(t, res[0].Payload.(types.ToolResultPayload).Success)
	require.Len(t, f.pub.Named(events.ToolCalling), 1)
}

func TestRunTurn_ToolCallsMergedByIndex(t *testing.T) {
	srv := newFakeServer(t,
		sse(
			toolDelta(1, "call_b", "web_search", `{"query":`),
			toolDelta(0, "call_a", "calculator", `{"expression":"1+1"}`),
			toolDelta(1, "", "", `"go"}`),
		),
		sse(contentDelta("done")),
	)
	f := newFixture(t, srv.URL)
	f.exec.inner = nil

	_, err := f.o.RunTurn(context.Background(), "c1", "two tools", nil)
	require.NoError(t, err)
	require.Len(t, f.exec.calls, 2)
	require.Equal(t, "call_a", f.exec.calls[0].CallID)
	require.Equal(t, "call_b", f.exec.calls[1].CallID)
	require.JSONEq(t, `{"query":"go"}`, string(f.exec.calls[1].Arguments))

	wire := messagesOf(t, srv.requests()[1])
	assistant := wire[len(wire)-3]
	require.Nil(t, assistant["content"], "empty text is sent as null")
}

func TestRunTurn_OutOfRangeToolIndexIgnored(t *testing.T) {
	srv := newFakeServer(t,
		sse(
			contentDelta("checking"),
			toolDelta(50_000_000, "huge", "calculator", `{"expression":"1"}`),
			toolDelta(5, "sparse", "", ""),
			toolDelta(2, "call_c", "calculator", `{"expression":"2+2"}`),
		),
		sse(contentDelta(" done")),
	)
	f := newFixture(t, srv.URL)
	f.exec.inner = nil

	ans, err := f.o.RunTurn(context.Background(), "c1", "sparse", nil)
	require.NoError(t, err)
	require.Equal(t, "checking done", ans.VisibleText)
	require.Len(t, f.exec.calls, 1)
	require.Equal(t, "call_c", f.exec.calls[0].CallID)

	wire := messagesOf(t, srv.requests()[1])
	assistant := wire[len(wire)-2]
	require.Len(t, assistant["tool_calls"], 1)
}

func TestRunTurn_OnlyUnnamedToolSlotsEndTurn(t *testing.T) {
	srv := newFakeServer(t, sse(contentDelta("hi"), toolDelta(3, "id-only", "", "")))
	f := newFixture(t, srv.URL)

	ans, err := f.o.RunTurn(context.Background(), "c1", "x", nil)
	require.NoError(t, err)
	require.Equal(t, "hi", ans.VisibleText)
	require.Empty(t, f.exec.calls)
	require.Len(t, srv.requests(), 1)
}

func TestRunTurn_InvalidToolArgumentsBecomeEmptyObject(t *testing.T) {
	srv := newFakeServer(t,
		sse(toolDelta(0, "call_1", "calculator", `{"expression": `)),
		sse(contentDelta("sorry")),
	)
	f := newFixture(t, srv.URL)

	ans, err := f.o.RunTurn(context.Background(), "c1", "x", nil)
	require.NoError(t, err)
	require.Equal(t, "sorry", ans.VisibleText)
	require.Equal(t, "{}", string(f.exec.calls[0].Arguments))

	wire := messagesOf(t, srv.requests()[1])
	require.Equal(t, "Error: Missing required parameter: expression", wire[len(wire)-1]["content"])
}

func TestRunTurn_StopsAfterTenIterations(t *testing.T) {
	srv := newFakeServer(t, sse(
		contentDelta("again "),
		toolDelta(0, "call", "calculator", `{"expression":"1"}`),
	))
	f := newFixture(t, srv.URL)

	ans, err := f.o.RunTurn(context.Background(), "c1", "loop", nil)
	require.NoError(t, err)
	require.Len(t, srv.requests(), 10)
	require.Len(t, f.exec.calls, 10)
	require.Equal(t, 60, len(ans.VisibleText))
}

func TestRunTurn_CancelMidStream(t *testing.T) {
	release := make(chan struct{})
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "data: %s\n\n", contentDelta("partial"))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", toolDelta(0, "call", "calculator", `{}`))
		fmt.Fprintf(w, "data: %s\n\n", contentDelta(" more"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	f := newFixture(t, srv.URL)

	type result struct {
		ans FinalAnswer
		err error
	}
	done := make(chan result, 1)
	go func() {
		ans, err := f.o.RunTurn(context.Background(), "c1", "go", nil)
		done <- result{ans, err}
	}()
	require.Eventually(t, func() bool { return len(f.pub.Named(events.ChatDelta)) == 1 }, 5*time.Second, 5*time.Millisecond)
	require.False(t, f.o.Cancel("other-chat"))
	require.True(t, f.o.Cancel("c1"))
	close(release)

	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("turn did not finish")
	}
	require.NoError(t, res.err)
	ans := res.ans
	require.True(t, ans.Cancelled)
	require.Equal(t, "partial", ans.VisibleText)
	require.Empty(t, f.exec.calls, "pending tool calls are dropped")
	require.Len(t, srv.requests(), 1)

	end := f.pub.Named(events.ChatEnd)
	require.Len(t, end, 1)
	require.True(t, end[0].Payload.(types.ChatEndPayload).Cancelled)

	msgs, err := f.store.Messages("c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "partial", msgs[1].Content)
}

func TestRunTurn_DeadlineIsAnError(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "data: %s\n\n", contentDelta("partial"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	f := newFixture(t, srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	ans, err := f.o.RunTurn(ctx, "c1", "slow", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, ans.Cancelled)
	require.Equal(t, "partial", ans.VisibleText)

	end := f.pub.Named(events.ChatEnd)
	require.Len(t, end, 1)
	require.False(t, end[0].Payload.(types.ChatEndPayload).Cancelled)

	msgs, err := f.store.Messages("c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2, "partial answer is kept")
}

func TestCancelAll(t *testing.T) {
	f := newFixture(t, "http://127.0.0.1:1")
	a := f.rt.BeginTurn("a")
	b := f.rt.BeginTurn("b")
	require.True(t, f.o.Cancel(""))
	require.True(t, a.Cancelled())
	require.True(t, b.Cancelled())
}

func TestRunTurn_TransportFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := "http://" + ln.Addr().String()
	require.NoError(t, ln.Close())

	f := newFixture(t, addr)
	_, err = f.o.RunTurn(context.Background(), "c1", "hello?", nil)
	require.Error(t, err)

	msgs, err := f.store.Messages("c1")
	require.NoError(t, err)
	require.Len(t, msgs, 1, "only the user message is kept")
	require.Equal(t, "hello?", msgs[0].Content)

	end := f.pub.Named(events.ChatEnd)
	require.Len(t, end, 1)
	require.NotEmpty(t, end[0].Payload.(types.ChatEndPayload).Error)
}

func TestRunTurn_HTTPError(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	})
	f := newFixture(t, srv.URL)
	_, err := f.o.RunTurn(context.Background(), "c1", "x", nil)
	require.ErrorContains(t, err, "HTTP 503")
	require.ErrorContains(t, err, "model not loaded")
}

func TestRunTurn_ImagesSentAsDataURLs(t *testing.T) {
	srv := newFakeServer(t, sse(contentDelta("a cat")))
	f := newFixture(t, srv.URL)

	_, err := f.o.RunTurn(context.Background(), "c1", "what is this?", []string{"QUJD"})
	require.NoError(t, err)

	wire := messagesOf(t, srv.requests()[0])
	parts := wire[1]["content"].([]any)
	require.Len(t, parts, 2)
	require.Equal(t, map[string]any{"type": "text", "text": "what is this?"}, parts[0])
	img := parts[1].(map[string]any)
	require.Equal(t, "image_url", img["type"])
	require.Equal(t, "data:image/jpeg;base64,QUJD", img["image_url"].(map[string]any)["url"])
}

func TestRunTurn_HistoryWindow(t *testing.T) {
	srv := newFakeServer(t, sse(contentDelta("ok")))
	f := newFixture(t, srv.URL)
	for i := 0; i < 30; i++ {
		require.NoError(t, f.store.AppendMessage("c1", "user", fmt.Sprintf("m%d", i), "", nil, nil))
	}
	_, err := f.o.RunTurn(context.Background(), "c1", "latest", nil)
	require.NoError(t, err)

	wire := messagesOf(t, srv.requests()[0])
	require.Len(t, wire, 21)
	require.Equal(t, "m11", wire[1]["content"])
	require.Equal(t, "latest", wire[20]["content"])
}

type panicPublisher struct{}

func (panicPublisher) Publish(events.Event) { panic("ui gone") }

func TestRunTurn_PublisherPanicDoesNotAffectTurn(t *testing.T) {
	srv := newFakeServer(t, sse(contentDelta("fine")))
	f := newFixture(t, srv.URL)
	o := New(Config{Runtime: f.rt, History: f.store, Publisher: panicPublisher{}})

	ans, err := o.RunTurn(context.Background(), "c1", "x", nil)
	require.NoError(t, err)
	require.Equal(t, "fine", ans.VisibleText)
}
