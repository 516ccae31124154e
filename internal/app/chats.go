package app

import (
	"context"

	"eigend/internal/events"
	"eigend/pkg/types"
)

// NewChat creates an empty conversation.
func (a *App) NewChat() (string, error) {
	id, err := a.store.NewChat()
	if err != nil {
		return "", err
	}
	a.chatsChanged()
	return id, nil
}

// ListChats returns conversations, most recently updated first.
func (a *App) ListChats() ([]types.ChatListItem, error) { return a.store.ListChats() }

// Messages returns every message of a conversation in order.
func (a *App) Messages(chatID string) ([]types.ChatMessage, error) {
	return a.store.Messages(chatID)
}

// RenameChat sets the title of a conversation.
func (a *App) RenameChat(chatID, title string) error {
	if err := a.store.Rename(chatID, title); err != nil {
		return err
	}
	a.chatsChanged()
	return nil
}

// DeleteChat removes a conversation and its messages. A turn still running
// for the chat is cancelled first.
func (a *App) DeleteChat(chatID string) error {
	a.chat.Cancel(chatID)
	if err := a.store.Delete(chatID); err != nil {
		return err
	}
	a.chatsChanged()
	return nil
}

// RunTurn sends prompt to the model and returns the final answer. Deltas
// are streamed over the events endpoint while the turn runs.
func (a *App) RunTurn(ctx context.Context, chatID, prompt string, images []string) (types.TurnResponse, error) {
	ans, err := a.chat.RunTurn(ctx, chatID, prompt, images)
	if err != nil {
		return types.TurnResponse{}, err
	}
	return types.TurnResponse{
		Content:    ans.VisibleText,
		Thinking:   ans.ReasoningText,
		DurationMs: ans.DurationMs,
		Cancelled:  ans.Cancelled,
	}, nil
}

// CancelTurn stops the in-flight turn of chatID; "" stops every turn.
func (a *App) CancelTurn(chatID string) bool { return a.chat.Cancel(chatID) }

// GenerateTitle asks the model for a short title for the chat.
func (a *App) GenerateTitle(ctx context.Context, chatID string) (string, error) {
	return a.chat.GenerateTitle(ctx, chatID)
}

func (a *App) chatsChanged() {
	a.pub.Publish(events.Event{Name: events.ChatsChanged, Payload: struct{}{}})
}
