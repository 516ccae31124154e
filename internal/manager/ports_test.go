package manager

import (
	"fmt"
	"testing"
)

func TestHostPort(t *testing.T) {
	host, port, err := hostPort("http://127.0.0.1:8080")
	if err != nil || host != "127.0.0.1" || port != "8080" {
		t.Fatalf("hostPort = %q %q %v", host, port, err)
	}
	for _, bad := range []string{"http://127.0.0.1", "://", "localhost"} {
		if _, _, err := hostPort(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestPickFreePort_ReturnsPositivePort(t *testing.T) {
	if p := pickFreePort(t); p <= 0 {
		t.Fatalf("pickFreePort port=%d", p)
	}
}

func addrFor(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("http://127.0.0.1:%d", pickFreePort(t))
}
