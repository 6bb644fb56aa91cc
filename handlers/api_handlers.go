package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"app/database"
	"app/live"
	"app/models"
)

// APIServer implements the JSON surface under /api. Mutations broadcast the
// same events as the HTML routes, so API writes show up live in browsers.
type APIServer struct {
	DB     *sql.DB
	Hub    *live.Hub
	Logger logrus.FieldLogger
}

type apiError struct {
	Error string `json:"error"`
}

// todoRequest is the body of POST and PUT requests. Done is optional so
// callers can update the title without clobbering the flag.
type todoRequest struct {
	Title string `json:"title"`
	Done  *bool  `json:"done,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ListTodos handles GET /api/todos.
func (s *APIServer) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := database.GetTodos(s.DB)
	if err != nil {
		s.Logger.WithError(err).Error("unable to list todos")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to retrieve todos"})
		return
	}

	if todos == nil {
		// An empty array, not null.
		todos = []models.Todo{}
	}
	writeJSON(w, http.StatusOK, todos)
}

// CreateTodo handles POST /api/todos.
func (s *APIServer) CreateTodo(w http.ResponseWriter, r *http.Request) {
	source := clientID(w, r)

	var req todoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request payload: " + err.Error()})
		return
	}
	defer r.Body.Close()

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "title is required"})
		return
	}

	id, err := database.CreateTodo(s.DB, req.Title)
	if err != nil {
		s.Logger.WithError(err).Error("unable to create todo")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to create todo"})
		return
	}

	if req.Done != nil && *req.Done {
		if err := database.SetTodoDone(s.DB, id, true); err != nil {
			s.Logger.WithError(err).Error("unable to set done flag")
			writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to create todo"})
			return
		}
	}

	todo, err := database.GetTodo(s.DB, id)
	if err != nil {
		s.Logger.WithError(err).Error("todo created but could not be reloaded")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to create todo"})
		return
	}

	s.Hub.Broadcast(live.Update{Event: live.EventAdd, TodoID: id, SourceID: source})

	writeJSON(w, http.StatusCreated, todo)
}

// GetTodoByID handles GET /api/todos/{id}.
func (s *APIServer) GetTodoByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid id"})
		return
	}

	todo, err := database.GetTodo(s.DB, id)
	if err != nil {
		s.writeAPIStoreError(w, err, "failed to retrieve todo")
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// UpdateTodoByID handles PUT /api/todos/{id}.
func (s *APIServer) UpdateTodoByID(w http.ResponseWriter, r *http.Request) {
	source := clientID(w, r)

	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid id"})
		return
	}

	var req todoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request payload: " + err.Error()})
		return
	}
	defer r.Body.Close()

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "title is required"})
		return
	}

	if err := database.UpdateTodoTitle(s.DB, id, req.Title); err != nil {
		s.writeAPIStoreError(w, err, "failed to update todo")
		return
	}
	if req.Done != nil {
		if err := database.SetTodoDone(s.DB, id, *req.Done); err != nil {
			s.writeAPIStoreError(w, err, "failed to update todo")
			return
		}
	}

	todo, err := database.GetTodo(s.DB, id)
	if err != nil {
		s.writeAPIStoreError(w, err, "todo updated, but failed to retrieve confirmation")
		return
	}

	s.Hub.Broadcast(live.Update{Event: live.EventUpdate, TodoID: id, SourceID: source})

	writeJSON(w, http.StatusOK, todo)
}

// DeleteTodoByID handles DELETE /api/todos/{id}.
func (s *APIServer) DeleteTodoByID(w http.ResponseWriter, r *http.Request) {
	source := clientID(w, r)

	id, err := parseID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid id"})
		return
	}

	if err := database.DeleteTodo(s.DB, id); err != nil {
		s.writeAPIStoreError(w, err, "failed to delete todo")
		return
	}

	s.Hub.Broadcast(live.Update{Event: live.EventDelete, TodoID: id, SourceID: source})

	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) writeAPIStoreError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "todo not found"})
		return
	}
	s.Logger.WithError(err).Error(msg)
	writeJSON(w, http.StatusInternalServerError, apiError{Error: msg})
}
