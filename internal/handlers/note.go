package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"notebase-ai/internal/contextutil"
	"notebase-ai/internal/indexer"
	"notebase-ai/internal/storage"
)

// NoteHandler handles HTTP requests for note CRUD and rendering.
type NoteHandler struct {
	notes    storage.NoteStore
	pipeline *Reindexer
	parser   goldmark.Markdown
	template *template.Template
}

// Reindexer wraps the indexing pipeline hooks the note handler needs.
// Nil-safe: a nil Reindexer or a nil pipeline inside skips indexing.
type Reindexer struct {
	Pipeline *indexer.Pipeline
}

func (r *Reindexer) reindex(ctx context.Context, note *storage.Note) {
	if r == nil || r.Pipeline == nil {
		return
	}
	logger := contextutil.LoggerFromContext(ctx)
	if _, err := r.Pipeline.Reindex(ctx, note.ID, note.Title, note.Content); err != nil {
		logger.WarnContext(ctx, "failed to reindex note", "note_id", note.ID, "error", err)
	}
}

func (r *Reindexer) purge(ctx context.Context, noteID string) {
	if r == nil || r.Pipeline == nil {
		return
	}
	r.Pipeline.PurgeNote(ctx, noteID)
}

// NewNoteHandler creates a new NoteHandler. reindexer may be nil to run
// without embedding on writes.
func NewNoteHandler(notes storage.NoteStore, reindexer *Reindexer) *NoteHandler {
	tmpl := template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 900px;
      line-height: 1.7;
    }
    header {
      margin-bottom: 2rem;
      border-bottom: 1px solid #e2e8f0;
      padding-bottom: 1rem;
    }
    h1 {
      margin-top: 0;
      font-size: 2rem;
    }
    pre {
      background: #f1f5f9;
      padding: 1rem;
      overflow-x: auto;
      border-radius: 8px;
    }
    code {
      font-family: 'SFMono-Regular', Consolas, 'Liberation Mono', Menlo, monospace;
      background: #f1f5f9;
      padding: 2px 5px;
      border-radius: 4px;
    }
    pre code {
      background: transparent;
      padding: 0;
    }
    blockquote {
      border-left: 4px solid #94a3b8;
      padding-left: 1rem;
      margin-left: 0;
      color: #475569;
    }
  </style>
</head>
<body>
  <header>
    <h1>{{.Title}}</h1>
  </header>
  <article>{{.Content}}</article>
</body>
</html>`))

	return &NoteHandler{
		notes:    notes,
		pipeline: reindexer,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Table,
				extension.TaskList,
				extension.Strikethrough,
				extension.Linkify,
				extension.Typographer,
			),
			goldmark.WithRendererOptions(
				ghhtml.WithUnsafe(),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: tmpl,
	}
}

// NoteRequest represents the HTTP request payload for creating a note.
type NoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NoteUpdateRequest represents the HTTP request payload for updating a
// note. Nil fields are left unchanged.
type NoteUpdateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Create handles POST /api/notes.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note, err := h.notes.Create(ctx, req.Title, req.Content)
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to create note")
		return
	}
	h.pipeline.reindex(ctx, note)

	writeJSON(w, http.StatusCreated, note)
}

// Update handles PUT /api/notes/{id}.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")
	var req NoteUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note, err := h.notes.Update(ctx, id, req.Title, req.Content)
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to update note")
		return
	}
	h.pipeline.reindex(ctx, note)

	writeJSON(w, http.StatusOK, note)
}

// Delete handles DELETE /api/notes/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if err := h.notes.Delete(ctx, id); err != nil {
		handleStorageError(w, ctx, err, "Failed to delete note")
		return
	}
	h.pipeline.purge(ctx, id)

	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /api/notes/{id}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	note, err := h.notes.Get(ctx, id)
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to get note")
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// List handles GET /api/notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.notes.List(ctx)
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to list notes")
		return
	}
	if rows == nil {
		rows = []storage.NoteRow{}
	}

	writeJSON(w, http.StatusOK, rows)
}

// notePageData holds template data for rendered note pages.
type notePageData struct {
	Title   string
	Content template.HTML
}

// ServeHTML handles GET /api/notes/{id}/html, rendering the note body as
// a markdown HTML page.
func (h *NoteHandler) ServeHTML(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")
	note, err := h.notes.Get(ctx, id)
	if err != nil {
		handleStorageError(w, ctx, err, "Failed to get note")
		return
	}

	var buf bytes.Buffer
	if err := h.parser.Convert([]byte(note.Content), &buf); err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "note_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to render note")
		return
	}

	pageData := notePageData{
		Title:   note.Title,
		Content: template.HTML(buf.String()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, pageData); err != nil {
		logger.ErrorContext(ctx, "failed to execute note template", "note_id", id, "error", err)
	}
}
