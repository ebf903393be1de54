package web

import (
	"database/sql"
	"html/template"
	"net/http"
	"strconv"

	"github.com/nkhandelwal/khata/internal/config"
	"github.com/nkhandelwal/khata/internal/errors"
	"github.com/nkhandelwal/khata/internal/ops"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /obligations — list obligations with filters.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	person := r.URL.Query().Get("person")
	status := r.URL.Query().Get("status")

	input := ops.ListInput{
		Person: person,
		Status: status,
		Limit:  parseIntParam(r, "limit", 20),
		Offset: parseIntParam(r, "offset", 0),
	}

	result, err := ops.List(h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Obligations",
			Version: h.renderer.version,
			Nav:     "obligations",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		Person:     person,
		Status:     status,
	})
}

// HandleDetail handles GET /obligations/{id} — one obligation with history.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("obligation ID is required"))
		return
	}

	result, err := ops.Get(h.db, ops.GetInput{
		ID:             id,
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	var rendered template.HTML
	if result.Note != nil {
		rendered = renderMarkdown(*result.Note)
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   result.Person,
			Version: h.renderer.version,
			Nav:     "obligations",
		},
		Obligation:   result,
		RenderedNote: rendered,
	})
}

// HandlePeople handles GET /people — outstanding amounts grouped by person.
func (h *Handlers) HandlePeople(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Summary(h.db)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "people", PeoplePageData{
		PageData: PageData{
			Title:   "People",
			Version: h.renderer.version,
			Nav:     "people",
		},
		Summary: result,
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}
