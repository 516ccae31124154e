//go:build !swagger

package httpapi

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMountSwagger_NoOp(t *testing.T) {
	r := chi.NewRouter()
	MountSwagger(r)
	if w := do(t, r, http.MethodGet, "/swagger/index.html", ""); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
}
