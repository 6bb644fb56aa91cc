package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"

	"app/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// todoView is the data handed to the todo-read fragment.
type todoView struct {
	Todo     models.Todo
	EditMode bool
}

type indexView struct {
	Todos []todoView
}

func renderTemplate(w http.ResponseWriter, logger logrus.FieldLogger, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		// Headers are already written; all we can do is log.
		logger.WithError(err).WithField("template", name).Error("unable to render template")
	}
}
