package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eigend/internal/events"
	"eigend/internal/metrics"
	"eigend/internal/state"
	"eigend/internal/tools"
	"eigend/pkg/types"
)

// turn holds the state of one RunTurn call.
type turn struct {
	chatID   string
	tok      *state.CancelToken
	msgs     []Message
	tools    []tools.Definition
	maxToks  uint32
	content  strings.Builder
	thinking strings.Builder
}

func (t *turn) cancelled(ctx context.Context) bool {
	return t.tok.Cancelled() || ctx.Err() != nil
}

// RunTurn persists the prompt, streams the reply (running requested tools
// between rounds) and persists the answer. Cancellation ends the turn early
// without error; whatever text was produced is still saved.
func (o *Orchestrator) RunTurn(ctx context.Context, chatID, prompt string, images []string) (FinalAnswer, error) {
	start := time.Now()
	tok := o.rt.BeginTurn(chatID)
	defer o.rt.EndTurn(chatID, tok)

	if err := o.history.AppendMessage(chatID, "user", prompt, "", images, nil); err != nil {
		metrics.ChatTurnsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return FinalAnswer{}, fmt.Errorf("save user message: %w", err)
	}
	past, err := o.history.LoadRecentMessages(chatID, o.window)
	if err != nil {
		metrics.ChatTurnsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return FinalAnswer{}, fmt.Errorf("load history: %w", err)
	}

	s := o.rt.Settings()
	t := &turn{chatID: chatID, tok: tok, maxToks: s.Behavior.MaxTokens}
	t.msgs = append(t.msgs, TextMessage{Role: "system", Text: s.Defaults.SystemPrompt})
	for _, m := range past {
		t.msgs = append(t.msgs, TextMessage{Role: m.Role, Text: m.Content, Images: m.Images})
	}
	t.tools = o.resolver.Enabled(s.Tools.EnabledTools)

	o.log.Info().Str("event", "turn_start").Str("chat", chatID).Int("history", len(past)).Int("tools", len(t.tools)).Msg("chat turn")
	o.pub.Publish(events.Event{Name: events.ChatBegin, Payload: types.ChatBeginPayload{ChatID: chatID}})

	runErr := o.loop(ctx, t)
	// A deadline is a failure, not a user cancel.
	if runErr == nil && !tok.Cancelled() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		runErr = fmt.Errorf("chat turn: %w", ctx.Err())
	}
	cancelled := runErr == nil && t.cancelled(ctx)

	ans := FinalAnswer{
		VisibleText:   t.content.String(),
		ReasoningText: t.thinking.String(),
		DurationMs:    time.Since(start).Milliseconds(),
		Cancelled:     cancelled,
	}
	// A failed round with no output leaves only the user message behind.
	if runErr == nil || ans.VisibleText != "" || ans.ReasoningText != "" {
		d := ans.DurationMs
		if err := o.history.AppendMessage(chatID, "assistant", ans.VisibleText, ans.ReasoningText, nil, &d); err != nil {
			o.log.Error().Str("event", "save_answer_failed").Str("chat", chatID).Err(err).Msg("persist answer")
			if runErr == nil {
				runErr = fmt.Errorf("save answer: %w", err)
			}
		}
	}
	o.endTurn(chatID, ans.DurationMs, cancelled, runErr)

	outcome := metrics.OutcomeOK
	switch {
	case runErr != nil:
		outcome = metrics.OutcomeError
	case cancelled:
		outcome = metrics.OutcomeCancelled
	}
	metrics.ChatTurnsTotal.WithLabelValues(outcome).Inc()
	o.log.Info().Str("event", "turn_end").Str("chat", chatID).Str("outcome", outcome).Int64("duration_ms", ans.DurationMs).Err(runErr).Msg("chat turn")
	return ans, runErr
}

// loop runs up to maxIter completion rounds. Running out of rounds ends the
// turn with the text produced so far.
func (o *Orchestrator) loop(ctx context.Context, t *turn) error {
	for i := 0; i < o.maxIter; i++ {
		if t.cancelled(ctx) {
			return nil
		}
		text, acc, err := o.stream(ctx, t)
		if err != nil {
			return err
		}
		if t.cancelled(ctx) || acc.empty() {
			return nil
		}
		calls := acc.toolCalls()
		o.log.Debug().Str("event", "tool_round").Str("chat", t.chatID).Int("iteration", i).Int("calls", len(calls)).Msg("tool calls requested")
		t.msgs = append(t.msgs, AssistantToolCallsMessage{Text: text, ToolCalls: calls})
		for _, c := range calls {
			if t.cancelled(ctx) {
				return nil
			}
			t.msgs = append(t.msgs, o.runTool(ctx, t.chatID, c.ID, c.Function.Name, c.Function.Arguments))
		}
	}
	o.log.Warn().Str("event", "tool_iterations_exhausted").Str("chat", t.chatID).Int("max", o.maxIter).Msg("stopping tool loop")
	return nil
}

func (o *Orchestrator) runTool(ctx context.Context, chatID, callID, name, rawArgs string) ToolResultMessage {
	args := json.RawMessage(rawArgs)
	if !json.Valid(args) {
		o.log.Debug().Str("event", "tool_args_invalid").Str("tool", name).Str("args", rawArgs).Msg("using empty arguments")
		args = json.RawMessage("{}")
	}
	o.pub.Publish(events.Event{Name: events.ToolCalling, Payload: types.ToolCallingPayload{
		ChatID: chatID, CallID: callID, ToolID: name, ToolName: name, Arguments: args,
	}})

	var res tools.Result
	if o.exec == nil {
		msg := "no tool executor configured"
		res = tools.Result{CallID: callID, Error: &msg}
	} else {
		res = o.exec.Execute(ctx, tools.CallRequest{ToolID: name, CallID: callID, Arguments: args})
	}
	metrics.ChatToolCallsTotal.WithLabelValues(name, strconv.FormatBool(res.Success)).Inc()

	o.pub.Publish(events.Event{Name: events.ToolResult, Payload: types.ToolResultPayload{
		ChatID: chatID, CallID: callID, ToolID: name, Success: res.Success, Output: res.Output, Error: res.Error,
	}})
	return ToolResultMessage{ToolCallID: callID, Content: res.Content()}
}

// stream sends one completion request and consumes its event stream. It
// returns the round's visible text and the accumulated tool calls.
func (o *Orchestrator) stream(ctx context.Context, t *turn) (string, *accumulator, error) {
	body := completionRequest{Model: o.model, Messages: t.msgs, Stream: true, MaxTokens: t.maxToks}
	if len(t.tools) > 0 {
		body.Tools = tools.ToOpenAI(t.tools)
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", nil, fmt.Errorf("encode completion request: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.rt.ServerAddress()+"/v1/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := o.client.Do(req)
	if err != nil {
		if t.cancelled(ctx) {
			return "", &accumulator{}, nil
		}
		return "", nil, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", nil, fmt.Errorf("completion request: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var text strings.Builder
	acc := &accumulator{}
	sse := newSSEReader(resp.Body)
	for {
		data, err := sse.next()
		if err != nil {
			if !errors.Is(err, io.EOF) && !t.cancelled(ctx) {
				o.log.Warn().Str("event", "stream_read_failed").Str("chat", t.chatID).Err(err).Msg("stream ended early")
			}
			break
		}
		if t.cancelled(ctx) {
			break
		}
		if data == "[DONE]" {
			break
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			o.log.Debug().Str("event", "stream_parse_failed").Str("chat", t.chatID).Err(err).Msg("skipping event")
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		d := chunk.Choices[0].Delta
		var content, reasoning string
		if d.Content != nil {
			content = *d.Content
		}
		if d.ReasoningContent != nil {
			reasoning = *d.ReasoningContent
		}
		if content != "" || reasoning != "" {
			text.WriteString(content)
			t.content.WriteString(content)
			t.thinking.WriteString(reasoning)
			o.pub.Publish(events.Event{Name: events.ChatDelta, Payload: types.ChatDeltaPayload{
				ChatID: t.chatID, Delta: content, ReasoningDelta: reasoning,
			}})
		}
		for _, tc := range d.ToolCalls {
			if !acc.merge(tc) {
				o.log.Debug().Str("event", "tool_call_index_invalid").Str("chat", t.chatID).Int("index", tc.Index).Msg("skipping tool call delta")
			}
		}
	}
	return text.String(), acc, nil
}
