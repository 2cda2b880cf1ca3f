package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"notebase-ai/internal/handlers"
	"notebase-ai/internal/indexer"
	"notebase-ai/internal/rag"
	"notebase-ai/internal/service"
	"notebase-ai/internal/storage"
	"notebase-ai/internal/vectorstore"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Notes       storage.NoteStore
	Groups      storage.GroupStore
	Membership  storage.MembershipStore
	Tabs        storage.TabStore
	Pipeline    *indexer.Pipeline
	Engine      rag.Engine
	Embedder    rag.Embedder
	ChatService service.ChatService
	LLMPinger   handlers.Pinger         // nil skips the LLM health check
	VectorStore vectorstore.VectorStore // nil disables index-backed search
	Collection  string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	noteHandler := handlers.NewNoteHandler(deps.Notes, &handlers.Reindexer{Pipeline: deps.Pipeline})
	groupHandler := handlers.NewGroupHandler(deps.Groups, deps.Membership)
	tabsHandler := handlers.NewTabsHandler(deps.Tabs)
	searchHandler := handlers.NewSearchHandler(deps.Notes, deps.Engine, deps.Embedder, deps.VectorStore, deps.Collection)
	askHandler := handlers.NewAskHandler(deps.Engine)
	chatHandler := handlers.NewChatHandler(deps.ChatService)
	indexHandler := handlers.NewIndexHandler(deps.Pipeline)
	healthHandler := handlers.NewHealthHandler(deps.Notes, deps.LLMPinger)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", noteHandler.List)
			r.Post("/", noteHandler.Create)
			r.Get("/{id}", noteHandler.Get)
			r.Put("/{id}", noteHandler.Update)
			r.Delete("/{id}", noteHandler.Delete)
			r.Get("/{id}/html", noteHandler.ServeHTML)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", groupHandler.List)
			r.Post("/", groupHandler.Create)
			r.Put("/order", groupHandler.Reorder)
			r.Put("/{id}", groupHandler.Rename)
			r.Delete("/{id}", groupHandler.Delete)
			r.Get("/{id}/notes", groupHandler.ListMembers)
			r.Post("/{id}/notes", groupHandler.AddMember)
			r.Put("/{id}/notes/order", groupHandler.ReorderMembers)
			r.Delete("/{id}/notes/{noteID}", groupHandler.RemoveMember)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/{id}/tabs", tabsHandler.Load)
			r.Put("/{id}/tabs", tabsHandler.Save)
		})

		r.Method(http.MethodGet, "/search", searchHandler)
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodPost, "/chat", chatHandler)

		r.Route("/index", func(r chi.Router) {
			r.Get("/status", indexHandler.Status)
			r.Post("/rebuild", indexHandler.Rebuild)
		})
	})

	return r
}
