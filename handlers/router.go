package handlers

import (
	"database/sql"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"app/config"
	"app/live"
)

// NewRouter wires every route of the application: the HTML surface, the
// WebSocket endpoint, the JSON API and the well-known static files.
func NewRouter(db *sql.DB, hub *live.Hub, cfg *config.Config, logger logrus.FieldLogger) (*chi.Mux, error) {
	doc, err := LoadAPISpec()
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(RequestLogger(logger, cfg.ProxyCount))
	router.Use(FrameHeaders)

	server := &Server{DB: db, Hub: hub, Logger: logger}
	api := &APIServer{DB: db, Hub: hub, Logger: logger}

	router.Get("/", server.GetIndex)
	router.Post("/todos", server.CreateTodo)
	router.Get("/todo-read/{id}", server.GetTodoRead)
	router.Get("/todo-edit/{id}", server.GetTodoEdit)
	router.Post("/todo-edit/{id}", server.PostTodoEdit)
	router.Post("/todo-toggle/{id}", server.ToggleTodo)
	router.Post("/todo-delete/{id}", server.DeleteTodo)

	router.Get("/todo-ws", func(w http.ResponseWriter, r *http.Request) {
		live.ServeWS(hub, w, r)
	})

	router.Route("/api", func(r chi.Router) {
		r.Get("/openapi.json", ServeAPISpec(doc))
		r.Route("/todos", func(r chi.Router) {
			r.Get("/", api.ListTodos)
			r.Post("/", api.CreateTodo)
			r.Get("/{id}", api.GetTodoByID)
			r.Put("/{id}", api.UpdateTodoByID)
			r.Delete("/{id}", api.DeleteTodoByID)
		})
	})

	// Frame metadata (e.g. .well-known/farcaster.json) is deployment
	// specific, so the directory is optional.
	wellKnown := filepath.Join(cfg.StaticDir, ".well-known")
	if info, err := os.Stat(wellKnown); err == nil && info.IsDir() {
		files := http.StripPrefix("/.well-known/", http.FileServer(http.Dir(wellKnown)))
		router.Get("/.well-known/*", files.ServeHTTP)
	}

	return router, nil
}
