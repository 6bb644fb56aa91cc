package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app/database"
	"app/models"
)

func doJSON(t *testing.T, router http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = &bytes.Buffer{}
	}

	req, err := http.NewRequest(method, path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestAPICreateTodo(t *testing.T) {
	router, _ := setupTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/todos", map[string]any{"title": "Write tests"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	var created models.Todo
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Write tests", created.Title)
	assert.False(t, created.Done)
}

func TestAPICreateTodoDone(t *testing.T) {
	router, db := setupTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/todos", map[string]any{"title": "Already finished", "done": true})

	assert.Equal(t, http.StatusCreated, rr.Code)
	var created models.Todo
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.True(t, created.Done)

	todo, err := database.GetTodo(db, created.ID)
	require.NoError(t, err)
	assert.True(t, todo.Done)
}

func TestAPICreateTodoRejectsEmptyTitle(t *testing.T) {
	router, _ := setupTestRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/api/todos", map[string]any{"title": ""})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var envelope apiError
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	assert.NotEmpty(t, envelope.Error)
}

func TestAPICreateTodoRejectsBadPayload(t *testing.T) {
	router, _ := setupTestRouter(t)

	req, err := http.NewRequest(http.MethodPost, "/api/todos", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPIListTodos(t *testing.T) {
	router, db := setupTestRouter(t)

	rr := doJSON(t, router, http.MethodGet, "/api/todos", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String(), "Empty list should be an array, not null")

	_, err := database.CreateTodo(db, "One")
	require.NoError(t, err)
	_, err = database.CreateTodo(db, "Two")
	require.NoError(t, err)

	rr = doJSON(t, router, http.MethodGet, "/api/todos", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var todos []models.Todo
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&todos))
	assert.Len(t, todos, 2)
}

func TestAPIGetTodoByID(t *testing.T) {
	router, db := setupTestRouter(t)
	id, err := database.CreateTodo(db, "Fetch me")
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodGet, "/api/todos/"+strconv.FormatInt(id, 10), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var todo models.Todo
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&todo))
	assert.Equal(t, id, todo.ID)
	assert.Equal(t, "Fetch me", todo.Title)

	rr = doJSON(t, router, http.MethodGet, "/api/todos/999", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/todos/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPIUpdateTodoByID(t *testing.T) {
	router, db := setupTestRouter(t)
	id, err := database.CreateTodo(db, "Before")
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodPut, "/api/todos/"+strconv.FormatInt(id, 10),
		map[string]any{"title": "After", "done": true})

	assert.Equal(t, http.StatusOK, rr.Code)
	var todo models.Todo
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&todo))
	assert.Equal(t, "After", todo.Title)
	assert.True(t, todo.Done)

	stored, err := database.GetTodo(db, id)
	require.NoError(t, err)
	assert.Equal(t, "After", stored.Title)
	assert.True(t, stored.Done)

	rr = doJSON(t, router, http.MethodPut, "/api/todos/999", map[string]any{"title": "nope"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPIUpdateKeepsDoneWhenOmitted(t *testing.T) {
	router, db := setupTestRouter(t)
	id, err := database.CreateTodo(db, "Keep flag")
	require.NoError(t, err)
	require.NoError(t, database.SetTodoDone(db, id, true))

	rr := doJSON(t, router, http.MethodPut, "/api/todos/"+strconv.FormatInt(id, 10),
		map[string]any{"title": "Renamed"})

	assert.Equal(t, http.StatusOK, rr.Code)
	stored, err := database.GetTodo(db, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)
	assert.True(t, stored.Done, "Omitting done should leave the flag untouched")
}

func TestAPIDeleteTodoByID(t *testing.T) {
	router, db := setupTestRouter(t)
	id, err := database.CreateTodo(db, "Short-lived")
	require.NoError(t, err)

	rr := doJSON(t, router, http.MethodDelete, "/api/todos/"+strconv.FormatInt(id, 10), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, router, http.MethodDelete, "/api/todos/"+strconv.FormatInt(id, 10), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServeAPISpec(t *testing.T) {
	router, _ := setupTestRouter(t)

	rr := doJSON(t, router, http.MethodGet, "/api/openapi.json", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var doc map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
}

func TestLoadAPISpec(t *testing.T) {
	doc, err := LoadAPISpec()
	require.NoError(t, err, "The embedded contract must parse and validate")
	assert.NotNil(t, doc.Paths.Find("/api/todos"))
	assert.NotNil(t, doc.Paths.Find("/api/todos/{id}"))
}
