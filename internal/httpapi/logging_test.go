package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"weird": LevelInfo, // default
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x?log=1", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("short query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("header override failed: %v", got)
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	t.Cleanup(func() { zlog = nil })
	return &buf
}

func TestRequestLogger_InfoLogsRouteAndStatus(t *testing.T) {
	buf := captureLogs(t)
	SetRequestLogLevel("info")
	defer SetRequestLogLevel("off")

	svc := newMock()
	do(t, NewMux(svc), http.MethodGet, "/chats/c1/messages", "")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("log line: %v (%q)", err, buf.String())
	}
	if line["path"] != "/chats/{id}/messages" || line["status"] != float64(200) || line["component"] != "http" {
		t.Fatalf("unexpected log line: %v", line)
	}
	if _, ok := line["request_id"]; !ok {
		t.Fatalf("missing request_id: %v", line)
	}
}

func TestRequestLogger_ErrorLevelSkipsSuccess(t *testing.T) {
	buf := captureLogs(t)
	SetRequestLogLevel("error")
	defer SetRequestLogLevel("off")

	svc := newMock()
	h := NewMux(svc)
	do(t, h, http.MethodGet, "/healthz", "")
	if buf.Len() != 0 {
		t.Fatalf("unexpected log output: %q", buf.String())
	}
	svc.deleteErr = mockHTTPError{msg: "disk", code: http.StatusInternalServerError}
	do(t, h, http.MethodDelete, "/models/m1", "")
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("5xx not logged at error: %q", buf.String())
	}
}
