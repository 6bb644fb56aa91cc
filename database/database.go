package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"

	"app/models"

	_ "github.com/mattn/go-sqlite3"
)

// packageDir returns the directory of this package so schema.sql can be
// located no matter where the binary or the tests run from.
func packageDir() string {
	_, b, _, _ := runtime.Caller(0)
	return filepath.Dir(b)
}

// InitDB opens (or creates) the SQLite database at path and applies the
// schema. The schema is idempotent, so calling this on an existing database
// is safe.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	// SQLite allows a single writer, and a single pooled connection also
	// keeps ":memory:" databases coherent across goroutines.
	db.SetMaxOpenConns(1)

	schemaPath := filepath.Join(packageDir(), "schema.sql")
	schemaSQL, err := os.ReadFile(schemaPath)
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "read schema at %s", schemaPath)
	}

	if _, err := db.Exec(string(schemaSQL)); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "execute schema")
	}

	return db, nil
}

// CreateTodo inserts a new todo and returns its ID.
func CreateTodo(db *sql.DB, title string) (int64, error) {
	stmt, err := db.Prepare("INSERT INTO todos(title) VALUES(?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	result, err := stmt.Exec(title)
	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

// GetTodo retrieves a single todo by its ID. Returns sql.ErrNoRows when no
// such row exists.
func GetTodo(db *sql.DB, id int64) (models.Todo, error) {
	stmt, err := db.Prepare("SELECT id, title, done, created_at FROM todos WHERE id = ?")
	if err != nil {
		return models.Todo{}, err
	}
	defer stmt.Close()

	var todo models.Todo
	err = stmt.QueryRow(id).Scan(&todo.ID, &todo.Title, &todo.Done, &todo.CreatedAt)
	if err != nil {
		return models.Todo{}, err
	}
	return todo, nil
}

// GetTodos retrieves every todo ordered by ID, oldest first.
func GetTodos(db *sql.DB) ([]models.Todo, error) {
	rows, err := db.Query("SELECT id, title, done, created_at FROM todos ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []models.Todo
	for rows.Next() {
		var todo models.Todo
		if err := rows.Scan(&todo.ID, &todo.Title, &todo.Done, &todo.CreatedAt); err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}

	return todos, rows.Err()
}

// UpdateTodoTitle sets the title of an existing todo. Returns sql.ErrNoRows
// when the ID does not match any row.
func UpdateTodoTitle(db *sql.DB, id int64, title string) error {
	stmt, err := db.Prepare("UPDATE todos SET title = ? WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	result, err := stmt.Exec(title, id)
	if err != nil {
		return err
	}

	return requireRows(result)
}

// SetTodoDone sets the completion flag of an existing todo. Returns
// sql.ErrNoRows when the ID does not match any row.
func SetTodoDone(db *sql.DB, id int64, done bool) error {
	stmt, err := db.Prepare("UPDATE todos SET done = ? WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	result, err := stmt.Exec(done, id)
	if err != nil {
		return err
	}

	return requireRows(result)
}

// DeleteTodo removes a todo by its ID. Returns sql.ErrNoRows when the ID
// does not match any row.
func DeleteTodo(db *sql.DB, id int64) error {
	stmt, err := db.Prepare("DELETE FROM todos WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	result, err := stmt.Exec(id)
	if err != nil {
		return err
	}

	return requireRows(result)
}

func requireRows(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
