package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"app/database"
	"app/live"
	"app/models"
)

// Server carries the shared dependencies of the HTML surface.
type Server struct {
	DB     *sql.DB
	Hub    *live.Hub
	Logger logrus.FieldLogger
}

// GetIndex renders the index page with the full todo list. It also makes
// sure the browser holds a client_id cookie before it opens the socket.
func (s *Server) GetIndex(w http.ResponseWriter, r *http.Request) {
	_ = clientID(w, r)

	todos, err := database.GetTodos(s.DB)
	if err != nil {
		s.Logger.WithError(err).Error("unable to load todos")
		http.Error(w, "unable to load todos", http.StatusInternalServerError)
		return
	}

	views := make([]todoView, len(todos))
	for i, todo := range todos {
		views[i] = todoView{Todo: todo}
	}
	renderTemplate(w, s.Logger, "index.html", indexView{Todos: views})
}

// CreateTodo handles the index form post and answers with the new id as
// plain text.
func (s *Server) CreateTodo(w http.ResponseWriter, r *http.Request) {
	source := clientID(w, r)

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	id, err := database.CreateTodo(s.DB, title)
	if err != nil {
		s.Logger.WithError(err).Error("unable to create todo")
		http.Error(w, "unable to create todo", http.StatusInternalServerError)
		return
	}

	s.Hub.Broadcast(live.Update{Event: live.EventAdd, TodoID: id, SourceID: source})

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%d", id)
}

// GetTodoRead renders the read-mode fragment for one todo.
func (s *Server) GetTodoRead(w http.ResponseWriter, r *http.Request) {
	todo, ok := s.todoByID(w, r)
	if !ok {
		return
	}
	renderTemplate(w, s.Logger, "todo-read", todoView{Todo: todo})
}

// GetTodoEdit renders the same fragment in edit mode.
func (s *Server) GetTodoEdit(w http.ResponseWriter, r *http.Request) {
	todo, ok := s.todoByID(w, r)
	if !ok {
		return
	}
	renderTemplate(w, s.Logger, "todo-read", todoView{Todo: todo, EditMode: true})
}

// PostTodoEdit updates a todo's title, broadcasts the change and answers
// with the read-mode fragment.
func (s *Server) PostTodoEdit(w http.ResponseWriter, r *http.Request) {
	source := clientID(w, r)

	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	if err := database.UpdateTodoTitle(s.DB, id, title); err != nil {
		s.writeStoreError(w, err, "unable to update todo")
		return
	}

	todo, err := database.GetTodo(s.DB, id)
	if err != nil {
		s.writeStoreError(w, err, "unable to load updated todo")
		return
	}

	s.Hub.Broadcast(live.Update{Event: live.EventUpdate, TodoID: id, SourceID: source})

	renderTemplate(w, s.Logger, "todo-read", todoView{Todo: todo})
}

// ToggleTodo flips the completion flag and answers with the fragment.
func (s *Server) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	source := clientID(w, r)

	todo, ok := s.todoByID(w, r)
	if !ok {
		return
	}

	if err := database.SetTodoDone(s.DB, todo.ID, !todo.Done); err != nil {
		s.writeStoreError(w, err, "unable to toggle todo")
		return
	}
	todo.Done = !todo.Done

	s.Hub.Broadcast(live.Update{Event: live.EventUpdate, TodoID: todo.ID, SourceID: source})

	renderTemplate(w, s.Logger, "todo-read", todoView{Todo: todo})
}

// DeleteTodo removes a todo and broadcasts the deletion.
func (s *Server) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	source := clientID(w, r)

	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := database.DeleteTodo(s.DB, id); err != nil {
		s.writeStoreError(w, err, "unable to delete todo")
		return
	}

	s.Hub.Broadcast(live.Update{Event: live.EventDelete, TodoID: id, SourceID: source})

	w.WriteHeader(http.StatusOK)
}

// todoByID parses the id route parameter and loads the row, writing the
// error response itself when either step fails.
func (s *Server) todoByID(w http.ResponseWriter, r *http.Request) (models.Todo, bool) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return models.Todo{}, false
	}

	todo, err := database.GetTodo(s.DB, id)
	if err != nil {
		s.writeStoreError(w, err, "unable to load todo")
		return models.Todo{}, false
	}
	return todo, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "todo not found", http.StatusNotFound)
		return
	}
	s.Logger.WithError(err).Error(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
