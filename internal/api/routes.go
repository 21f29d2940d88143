// Route registration and go-chi router setup.
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"presetchat/internal/api/handlers"
	"presetchat/internal/domain/chat"
	"presetchat/internal/domain/preset"
	"presetchat/internal/infra/llm"
)

// Deps are the wired application services the router serves. They are built
// once in main and shared across requests.
type Deps struct {
	Store        *preset.Store
	Transcript   *chat.Conversation
	ChatService  *chat.ChatService
	Provider     llm.StreamProvider
	DefaultModel string
}

// NewRouter creates and configures a chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check — used by load balancers and health probes. Reports the
	// configured provider without calling it.
	meta := deps.Provider.ModelInfo()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","provider":%q,"model":%q}`, meta.Provider, meta.ID) //nolint:errcheck
	})

	presetHandler := handlers.NewPresetHandler(deps.Store)
	conversationHandler := handlers.NewConversationHandler(deps.Transcript)
	chatHandler := handlers.NewChatHandler(deps.ChatService, deps.Transcript, deps.Store, deps.DefaultModel)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/presets", func(r chi.Router) {
			r.Get("/", presetHandler.List)               // GET    /api/v1/presets
			r.Post("/", presetHandler.Create)            // POST   /api/v1/presets
			r.Put("/{id}", presetHandler.Update)         // PUT    /api/v1/presets/{id}
			r.Delete("/{id}", presetHandler.Delete)      // DELETE /api/v1/presets/{id}
			r.Post("/{id}/select", presetHandler.Select) // POST   /api/v1/presets/{id}/select
		})

		r.Route("/conversation", func(r chi.Router) {
			r.Get("/", conversationHandler.Get)             // GET    /api/v1/conversation
			r.Delete("/", conversationHandler.Clear)        // DELETE /api/v1/conversation
			r.Post("/messages", conversationHandler.Append) // POST   /api/v1/conversation/messages
		})

		r.Post("/chat", chatHandler.Chat) // POST /api/v1/chat (SSE)
	})

	return r
}
