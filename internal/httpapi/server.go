package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eigend/internal/manager"
	"eigend/internal/settings"
	"eigend/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Status() types.StatusResponse
	Ready() bool
	SanityCheck() manager.SanityReport
	// Events streams UI events to websocket clients.
	Events() http.Handler

	ListModels() ([]types.ModelInfo, error)
	CurrentModel() types.CurrentModelResponse
	SwitchModel(ctx context.Context, modelID string) error
	StartDownload(modelID string) error
	CancelDownload(modelID string) bool
	DeleteModel(modelID string) error

	NewChat() (string, error)
	ListChats() ([]types.ChatListItem, error)
	Messages(chatID string) ([]types.ChatMessage, error)
	RenameChat(chatID, title string) error
	DeleteChat(chatID string) error
	RunTurn(ctx context.Context, chatID, prompt string, images []string) (types.TurnResponse, error)
	// CancelTurn stops the turn of chatID; "" stops every turn.
	CancelTurn(chatID string) bool
	GenerateTitle(ctx context.Context, chatID string) (string, error)

	Settings() settings.AppSettings
	SaveSettings(s settings.AppSettings) (settings.AppSettings, error)
	ResetSettings() (settings.AppSettings, error)
	Tools() []types.ToolInfo
	SetToolEnabled(id string, enabled bool) error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	// The websocket upgrade needs the raw connection, so /events sits
	// outside compression and instrumentation.
	r.Get("/events", svc.Events().ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(MetricsMiddleware)
		r.Use(RequestLogger)
		// Compression for JSON endpoints
		r.Use(middleware.Compress(5))

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
			if svc.Ready() {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ready"))
				return
			}
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("loading"))
		})

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, svc.Status())
		})

		r.Get("/sanity", func(w http.ResponseWriter, r *http.Request) {
			rep := svc.SanityCheck()
			status := http.StatusOK
			if !rep.LlamaFound {
				status = http.StatusServiceUnavailable
			}
			writeJSON(w, status, rep)
		})

		// Prometheus metrics endpoint
		r.Get("/metrics", promhttp.Handler().ServeHTTP)

		mountModels(r, svc)
		mountChats(r, svc)
		mountSettings(r, svc)
		MountSwagger(r)
	})
	return r
}

func mountModels(r chi.Router, svc Service) {
	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		models, err := svc.ListModels()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.ModelsResponse{Models: models})
	})

	r.Get("/models/current", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.CurrentModel())
	})

	r.Post("/models/{id}/switch", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := svc.SwitchModel(ctx, chi.URLParam(r, "id")); err != nil {
			// Client went away; the switch keeps running.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, svc.CurrentModel())
	})

	r.Post("/models/{id}/download", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.StartDownload(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, types.DownloadResponse{ModelID: id, Status: types.ModelStatusDownloading})
	})

	r.Delete("/models/{id}/download", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.CancelResponse{Cancelled: svc.CancelDownload(chi.URLParam(r, "id"))})
	})

	r.Delete("/models/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteModel(chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func mountChats(r chi.Router, svc Service) {
	r.Post("/chats", func(w http.ResponseWriter, r *http.Request) {
		id, err := svc.NewChat()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, types.NewChatResponse{ID: id})
	})

	r.Get("/chats", func(w http.ResponseWriter, r *http.Request) {
		chats, err := svc.ListChats()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.ChatsResponse{Chats: chats})
	})

	r.Get("/chats/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		msgs, err := svc.Messages(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.MessagesResponse{Messages: msgs})
	})

	r.Patch("/chats/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req types.RenameChatRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.RenameChat(chi.URLParam(r, "id"), strings.TrimSpace(req.Title)); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Delete("/chats/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteChat(chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/chats/{id}/turns", func(w http.ResponseWriter, r *http.Request) {
		var req types.TurnRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		// Server shutdown, client disconnect and the turn timeout all end
		// the turn through the same cancellation path.
		ctx, cancel := turnContext(r)
		defer cancel()
		ans, err := svc.RunTurn(ctx, chi.URLParam(r, "id"), req.Prompt, req.Images)
		if err != nil {
			if r.Context().Err() != nil {
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ans)
	})

	r.Post("/chats/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.CancelResponse{Cancelled: svc.CancelTurn(chi.URLParam(r, "id"))})
	})

	r.Post("/chats/{id}/title", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		title, err := svc.GenerateTitle(ctx, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.TitleResponse{Title: title})
	})

	r.Post("/generation/cancel", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.CancelResponse{Cancelled: svc.CancelTurn("")})
	})
}

func mountSettings(r chi.Router, svc Service) {
	r.Get("/settings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Settings())
	})

	r.Put("/settings", func(w http.ResponseWriter, r *http.Request) {
		var s settings.AppSettings
		if !decodeJSON(w, r, &s) {
			return
		}
		saved, err := svc.SaveSettings(s)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	})

	r.Post("/settings/reset", func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.ResetSettings()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	})

	r.Get("/tools", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.ToolsResponse{Tools: svc.Tools()})
	})

	r.Put("/tools/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req types.ToggleToolRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := svc.SetToolEnabled(chi.URLParam(r, "id"), *req.Enabled); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// decodeJSON reads and validates a JSON body into dst, writing the error
// response itself when it returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
}
