package httpapi

import "testing"

func TestSetMaxBodyBytes(t *testing.T) {
	defer SetMaxBodyBytes(0)
	SetMaxBodyBytes(-1)
	if maxBodyBytes != 64<<20 {
		t.Fatalf("expected default 64MiB, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(1234)
	if maxBodyBytes != 1234 {
		t.Fatalf("expected 1234, got %d", maxBodyBytes)
	}
}

func TestSetTurnTimeoutSeconds_NormalizesNegativeToZero(t *testing.T) {
	defer SetTurnTimeoutSeconds(0)
	SetTurnTimeoutSeconds(-5)
	if turnTimeout != 0 {
		t.Fatalf("expected 0, got %d", turnTimeout)
	}
	SetTurnTimeoutSeconds(3)
	if turnTimeout != 3 {
		t.Fatalf("expected 3, got %d", turnTimeout)
	}
}

func TestSetCORSOptions_CopiesSlices(t *testing.T) {
	defer SetCORSOptions(false, nil, nil, nil)
	origins := []string{"http://localhost:1420"}
	SetCORSOptions(true, origins, nil, nil)
	origins[0] = "mutated"
	if !corsEnabled || corsAllowedOrigins[0] != "http://localhost:1420" {
		t.Fatalf("cors origins=%v enabled=%v", corsAllowedOrigins, corsEnabled)
	}
}
