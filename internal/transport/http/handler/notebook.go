package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/notes-service/internal/domain"
	"github.com/ErlanBelekov/notes-service/internal/transport/http/middleware"
	"github.com/ErlanBelekov/notes-service/internal/usecase"
	"github.com/gin-gonic/gin"
)

type notebookUsecaser interface {
	List(ctx context.Context, userID string) ([]*domain.Notebook, error)
	Create(ctx context.Context, userID, name string) (*domain.Notebook, error)
	Rename(ctx context.Context, userID, notebookID, name string) (*domain.Notebook, error)
	Delete(ctx context.Context, userID, notebookID string) error
	ListNotes(ctx context.Context, userID, notebookID string) ([]*domain.Note, error)
	AllNotes(ctx context.Context, userID string) ([]*domain.Note, error)
}

// NotebookHandler serves notebooks and the notes nested under them.
type NotebookHandler struct {
	notebooks notebookUsecaser
	notes     noteUsecaser
	logger    *slog.Logger
}

func NewNotebookHandler(notebooks notebookUsecaser, notes noteUsecaser, logger *slog.Logger) *NotebookHandler {
	return &NotebookHandler{
		notebooks: notebooks,
		notes:     notes,
		logger:    logger.With("component", "notebook_handler"),
	}
}

type notebookResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	NoteIDs   []string  `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toNotebookResponse(nb *domain.Notebook) notebookResponse {
	ids := nb.NoteIDs
	if ids == nil {
		ids = []string{}
	}
	return notebookResponse{
		ID:        nb.ID,
		UserID:    nb.UserID,
		Name:      nb.Name,
		NoteIDs:   ids,
		CreatedAt: nb.CreatedAt,
		UpdatedAt: nb.UpdatedAt,
	}
}

type notebookRequest struct {
	Name string `json:"name"`
}

// GET /api/v1/notebooks
func (h *NotebookHandler) List(c *gin.Context) {
	notebooks, err := h.notebooks.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, "list notebooks", err)
		return
	}
	out := make([]notebookResponse, 0, len(notebooks))
	for _, nb := range notebooks {
		out = append(out, toNotebookResponse(nb))
	}
	respondOK(c, http.StatusOK, gin.H{"notebooks": out})
}

// POST /api/v1/notebooks
func (h *NotebookHandler) Create(c *gin.Context) {
	var req notebookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	nb, err := h.notebooks.Create(c.Request.Context(), middleware.UserID(c), req.Name)
	if err != nil {
		respondError(c, h.logger, "create notebook", err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"notebook": toNotebookResponse(nb)})
}

// PUT /api/v1/notebooks/:id
func (h *NotebookHandler) Rename(c *gin.Context) {
	var req notebookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	nb, err := h.notebooks.Rename(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, h.logger, "rename notebook", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"notebook": toNotebookResponse(nb)})
}

// DELETE /api/v1/notebooks/:id
// Deletes every note in the notebook as well.
func (h *NotebookHandler) Delete(c *gin.Context) {
	if err := h.notebooks.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, h.logger, "delete notebook", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Notebook and its notes deleted successfully"})
}

// GET /api/v1/notebooks/all-notes
func (h *NotebookHandler) AllNotes(c *gin.Context) {
	notes, err := h.notebooks.AllNotes(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, "list all notebook notes", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"notes": toNoteResponses(notes)})
}

// GET /api/v1/notebooks/:id/notes
func (h *NotebookHandler) ListNotes(c *gin.Context) {
	notes, err := h.notebooks.ListNotes(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "list notebook notes", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"notes": toNoteResponses(notes)})
}

// POST /api/v1/notebooks/:id/notes
func (h *NotebookHandler) CreateNote(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	note, err := h.notes.Create(c.Request.Context(), usecase.CreateNoteInput{
		UserID:     middleware.UserID(c),
		NotebookID: c.Param("id"),
		Title:      req.Title,
		Content:    req.Content,
	})
	if err != nil {
		respondError(c, h.logger, "create notebook note", err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"note": toNoteResponse(note)})
}

// GET /api/v1/notebooks/:id/notes/:noteId
func (h *NotebookHandler) GetNote(c *gin.Context) {
	note, err := h.notes.GetInNotebook(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("noteId"))
	if err != nil {
		respondError(c, h.logger, "get notebook note", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"note": toNoteResponse(note)})
}

// PUT /api/v1/notebooks/:id/notes/:noteId
func (h *NotebookHandler) UpdateNote(c *gin.Context) {
	var req updateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	note, err := h.notes.Update(c.Request.Context(), usecase.UpdateNoteInput{
		UserID:          middleware.UserID(c),
		NoteID:          c.Param("noteId"),
		ScopeNotebookID: c.Param("id"),
		Title:           req.Title,
		Content:         req.Content,
		MoveToNotebook:  req.NotebookID,
	})
	if err != nil {
		respondError(c, h.logger, "update notebook note", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"note": toNoteResponse(note)})
}

// DELETE /api/v1/notebooks/:id/notes/:noteId
func (h *NotebookHandler) DeleteNote(c *gin.Context) {
	if err := h.notes.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id"), c.Param("noteId")); err != nil {
		respondError(c, h.logger, "delete notebook note", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Note deleted successfully"})
}
