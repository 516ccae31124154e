package manager

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestProbeUntilReady_RetriesUntilHealthy(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if calls.Add(1) < 4 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	m, _, _ := newTestManager(t, ts.URL, "unused")
	if err := m.probeUntilReady(testCtx(t), 5*time.Second, nil); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if n := calls.Load(); n != 4 {
		t.Fatalf("expected 4 probes, got %d", n)
	}
}

func TestProbeUntilReady_TimeoutOnRefusedConnection(t *testing.T) {
	m, _, _ := newTestManager(t, addrFor(t), "unused")
	start := time.Now()
	err := m.probeUntilReady(testCtx(t), 150*time.Millisecond, nil)
	if !IsStartupTimeout(err) {
		t.Fatalf("expected startup timeout, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("probe overran its deadline: %s", time.Since(start))
	}
}

func TestProbeUntilReady_TimeoutOnUnhealthy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()
	m, _, _ := newTestManager(t, ts.URL, "unused")
	if err := m.probeUntilReady(testCtx(t), 100*time.Millisecond, nil); !IsStartupTimeout(err) {
		t.Fatalf("expected startup timeout, got %v", err)
	}
}

func TestProbeUntilReady_ContextCanceled(t *testing.T) {
	m, _, _ := newTestManager(t, addrFor(t), "unused")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	if err := m.probeUntilReady(ctx, 10*time.Second, nil); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitUntilReady_NoProcess(t *testing.T) {
	m, rt, _ := newTestManager(t, addrFor(t), "unused")
	if err := m.WaitUntilReady(testCtx(t), time.Second); !IsNotRunning(err) {
		t.Fatalf("expected not running error, got %v", err)
	}
	if rt.Ready() {
		t.Fatalf("ready must stay false without a process")
	}
}
