package httpapi

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"
)

func TestJoinContexts_CancelsWhenEitherDone(t *testing.T) {
	for _, first := range []string{"a", "b"} {
		a, ac := context.WithCancel(context.Background())
		b, bc := context.WithCancel(context.Background())
		j, cancelJ := joinContexts(a, b)
		if first == "a" {
			ac()
		} else {
			bc()
		}
		select {
		case <-j.Done():
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("joined context did not cancel when %s was canceled", first)
		}
		cancelJ()
		ac()
		bc()
	}
}

func TestJoinContexts_CancelFuncReleases(t *testing.T) {
	a, b := context.Background(), context.Background()
	j, cancel := joinContexts(a, b)
	if j.Err() != nil {
		t.Fatal("joined context canceled early")
	}
	cancel()
	if j.Err() == nil {
		t.Fatal("cancel func did not cancel the joined context")
	}
}

func TestSetBaseContext_NilResetsToBackground(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	SetBaseContext(ctx)
	cancel()
	// nolint:staticcheck // SA1012: nil is the documented reset value
	SetBaseContext(nil)
	if serverBaseCtx.Err() != nil {
		t.Fatal("base context not reset")
	}
}

func TestTurnContext_ShutdownCancels(t *testing.T) {
	base, stop := context.WithCancel(context.Background())
	SetBaseContext(base)
	defer SetBaseContext(context.Background())

	ctx, cancel := turnContext(httptest.NewRequest("POST", "/chats/c/turns", nil))
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("unexpected deadline with turn timeout disabled")
	}
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("turn context survived shutdown")
	}
}
