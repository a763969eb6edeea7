package web

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/poll"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
}

// CreateForm holds the submitted create/edit form values so validation
// failures can redisplay them.
type CreateForm struct {
	Title       string
	Description string
	Author      string
	Options     []string
	Exclusive   bool
}

// CreatePageData is the template data for the create-poll page.
type CreatePageData struct {
	PageData
	Form  CreateForm
	Error string
}

// PollPageData is the template data for the poll page: the vote form plus
// the live results table.
type PollPageData struct {
	PageData
	Poll            *poll.Poll
	Tally           poll.Tally
	DescriptionHTML template.HTML
	ShareURL        string
	VoterName       string // remembered name prefilling the vote form
	HasVoted        bool
	Error           string
}

// EditPageData is the template data for the edit-poll page.
type EditPageData struct {
	PageData
	PollID   string
	Password string // re-submitted as a hidden field to authorize the update
	Form     CreateForm
	Error    string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	funcMap := template.FuncMap{
		"formatTime":   formatTime,
		"percent":      func(p float64) string { return fmt.Sprintf("%.1f", p) },
		"join":         func(ss []string, sep string) string { return strings.Join(ss, sep) },
		"hasSelection": func(sels []int, idx int) bool { return slices.Contains(sels, idx) },
	}

	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"create": "create.html",
		"poll":   "poll.html",
		"edit":   "edit.html",
		"error":  "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
	}
}

// renderPage renders a named page template with HTTP 200.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given status code.
// Pages are buffered first so a template failure never emits a half page.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		slog.Error("template not found", "template", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders the error page for a structured error. Unknown and
// malformed poll ids share the not-found page; everything else shows the
// error's message at its HTTP status.
func (r *Renderer) renderError(w http.ResponseWriter, err error) {
	var tErr *errors.Error
	if !stderrors.As(err, &tErr) {
		tErr = errors.NewInternal(err)
	}

	status := tErr.Status
	message := tErr.Message
	title := fmt.Sprintf("Error %d", status)

	switch tErr.Code {
	case errors.ErrNotFound, errors.ErrMalformedID:
		status = http.StatusNotFound
		title = "Poll not found"
		message = "This poll does not exist. Check the link or create a new poll."
	case errors.ErrIDExhausted, errors.ErrInternal:
		message = "Something went wrong. Please try again."
	}

	r.renderPageStatus(w, status, "error", ErrorPageData{
		PageData:   PageData{Title: title, Version: r.version},
		StatusCode: status,
		Message:    message,
	})
}

// renderMarkdown converts a poll description to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	if md == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// formatTime formats a timestamp as "2006-01-02 15:04" UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}
