package chat

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"eigend/internal/events"
	"eigend/internal/store"
)

const (
	titlePrompt    = "Generate a short chat title (3-6 words max). Return ONLY the title, no quotes, no explanation."
	titleMaxTokens = 30
	titleInputMax  = 300
	titleMaxRunes  = 80
)

// GenerateTitle asks the model for a short title based on the chat's first
// prompt and stores it. It is best effort: when the server is not ready, the
// chat has no prompt yet, or the request fails, it returns "" and no error.
func (o *Orchestrator) GenerateTitle(ctx context.Context, chatID string) (string, error) {
	if o.titles == nil {
		return "", errors.New("chat: no title store configured")
	}
	if !o.rt.Ready() {
		o.log.Debug().Str("event", "title_skipped").Str("chat", chatID).Msg("server not ready")
		return "", nil
	}
	first, ok, err := o.titles.FirstUserMessage(chatID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	cfg := openai.DefaultConfig("")
	cfg.BaseURL = o.rt.ServerAddress() + "/v1"
	cfg.HTTPClient = o.client
	client := openai.NewClientWithConfig(cfg)
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: titlePrompt},
			{Role: openai.ChatMessageRoleUser, Content: truncateBytes(first, titleInputMax)},
		},
		MaxTokens: titleMaxTokens,
	})
	if err != nil {
		o.log.Warn().Str("event", "title_failed").Str("chat", chatID).Err(err).Msg("title request")
		return "", nil
	}
	raw := store.DefaultTitle
	if len(resp.Choices) > 0 {
		raw = resp.Choices[0].Message.Content
	}
	title := cleanTitle(raw)
	if err := o.titles.Rename(chatID, title); err != nil {
		return "", err
	}
	o.log.Info().Str("event", "title_generated").Str("chat", chatID).Str("title", title).Msg("chat titled")
	o.pub.Publish(events.Event{Name: events.ChatsChanged, Payload: struct{}{}})
	return title, nil
}

// truncateBytes cuts s to at most n bytes on a rune boundary and marks the
// cut with "...".
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// cleanTitle keeps the first line, strips quotes and caps the length.
func cleanTitle(raw string) string {
	t := strings.TrimSpace(raw)
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(t)
	t = strings.Trim(t, `"'`)
	t = strings.TrimSpace(t)
	if r := []rune(t); len(r) > titleMaxRunes {
		t = string(r[:titleMaxRunes])
	}
	if t == "" {
		return store.DefaultTitle
	}
	return t
}
