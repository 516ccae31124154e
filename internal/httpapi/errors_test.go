package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"eigend/internal/catalog"
	"eigend/internal/download"
	"eigend/internal/manager"
	"eigend/internal/settings"
	"eigend/internal/state"
	"eigend/internal/store"
	"eigend/pkg/types"
)

func TestStatusFor_ServiceErrors(t *testing.T) {
	dir := t.TempDir()
	rt := state.New("http://127.0.0.1:1", filepath.Join(dir, "models"), settings.Default())
	src := catalog.NewSource(filepath.Join(dir, "models.json"), "", rt.ModelsDir(), zerolog.Nop())

	_, notFound := src.Lookup("missing")
	legacyErr := src.Delete(rt, catalog.LegacyID)
	rt.SetCurrentModel(state.ModelRef{ID: "active"})
	activeErr := src.Delete(rt, "active")

	st, err := store.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	chatErr := st.Rename("missing", "x")

	if _, ok := rt.RegisterDownload("busy"); !ok {
		t.Fatal("register")
	}
	dupErr := download.New(download.Config{Runtime: rt}).Download(context.Background(), "busy", nil, 0)

	mgr := manager.NewWithConfig(manager.ManagerConfig{Runtime: rt, LlamaBin: filepath.Join(dir, "no-such-llama-server")})
	spawnErr := mgr.StartOrSwitch(context.Background(), manager.Target{ID: "m", Path: filepath.Join(dir, "m.gguf")})

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid id", catalog.ValidateID("../etc"), http.StatusBadRequest},
		{"catalog miss", notFound, http.StatusNotFound},
		{"chat miss", chatErr, http.StatusNotFound},
		{"delete legacy", legacyErr, http.StatusConflict},
		{"delete active", activeErr, http.StatusConflict},
		{"duplicate download", dupErr, http.StatusConflict},
		{"spawn failed", spawnErr, http.StatusServiceUnavailable},
		{"wrapped", fmt.Errorf("switch: %w", spawnErr), http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"http error", mockHTTPError{msg: "teapot", code: http.StatusTeapot}, http.StatusTeapot},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err == nil {
				t.Fatal("fixture produced no error")
			}
			if got := statusFor(tc.err); got != tc.want {
				t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestWriteError_CountsRejections(t *testing.T) {
	dir := t.TempDir()
	rt := state.New("http://127.0.0.1:1", dir, settings.Default())
	rt.SetCurrentModel(state.ModelRef{ID: "active"})
	src := catalog.NewSource(filepath.Join(dir, "models.json"), "", dir, zerolog.Nop())
	err := src.Delete(rt, "active")

	before := testutil.ToFloat64(rejectionsTotal.WithLabelValues("active_model"))
	w := httptest.NewRecorder()
	writeError(w, err)
	if w.Code != http.StatusConflict {
		t.Fatalf("status=%d", w.Code)
	}
	body := decode[types.ErrorResponse](t, w)
	if body.Code != http.StatusConflict || body.Error != "Cannot delete the currently active model" {
		t.Fatalf("body=%+v", body)
	}
	if got := testutil.ToFloat64(rejectionsTotal.WithLabelValues("active_model")); got != before+1 {
		t.Fatalf("rejections=%v want %v", got, before+1)
	}
}
