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

type noteUsecaser interface {
	Create(ctx context.Context, input usecase.CreateNoteInput) (*domain.Note, error)
	Get(ctx context.Context, userID, noteID string) (*domain.Note, error)
	GetInNotebook(ctx context.Context, userID, notebookID, noteID string) (*domain.Note, error)
	ListOwned(ctx context.Context, userID string) ([]*domain.Note, error)
	ListShared(ctx context.Context, userID string) ([]*domain.Note, error)
	NotebookIDByTitle(ctx context.Context, userID, title string) (string, error)
	Update(ctx context.Context, input usecase.UpdateNoteInput) (*domain.Note, error)
	Delete(ctx context.Context, userID, scopeNotebookID, noteID string) error
	Share(ctx context.Context, userID, noteID, recipientEmail string) (*domain.Note, error)
	Unshare(ctx context.Context, userID, noteID, recipientEmail string) (*domain.Note, error)
}

type NoteHandler struct {
	notes  noteUsecaser
	logger *slog.Logger
}

func NewNoteHandler(notes noteUsecaser, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, logger: logger.With("component", "note_handler")}
}

type noteResponse struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	NotebookID string     `json:"notebook_id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	SharedWith []string   `json:"shared_with"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

func toNoteResponse(n *domain.Note) noteResponse {
	shared := n.SharedWith
	if shared == nil {
		shared = []string{}
	}
	return noteResponse{
		ID:         n.ID,
		UserID:     n.UserID,
		NotebookID: n.NotebookID,
		Title:      n.Title,
		Content:    n.Content,
		SharedWith: shared,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func toNoteResponses(notes []*domain.Note) []noteResponse {
	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	return out
}

type createNoteRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	NotebookID string `json:"notebookId"`
}

// updateNoteRequest fields are optional; absent fields keep their value.
type updateNoteRequest struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	NotebookID *string `json:"notebookId"`
}

type shareRequest struct {
	RecipientEmail string `json:"recipient_email"`
}

// POST /api/v1/notes
// Without notebookId the note goes to the caller's default notebook.
func (h *NoteHandler) Create(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	note, err := h.notes.Create(c.Request.Context(), usecase.CreateNoteInput{
		UserID:     middleware.UserID(c),
		NotebookID: req.NotebookID,
		Title:      req.Title,
		Content:    req.Content,
	})
	if err != nil {
		respondError(c, h.logger, "create note", err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"note": toNoteResponse(note)})
}

// GET /api/v1/notes
func (h *NoteHandler) List(c *gin.Context) {
	notes, err := h.notes.ListOwned(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, "list notes", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"notes": toNoteResponses(notes)})
}

// GET /api/v1/notes/shared
func (h *NoteHandler) ListShared(c *gin.Context) {
	notes, err := h.notes.ListShared(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.logger, "list shared notes", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"notes": toNoteResponses(notes)})
}

// GET /api/v1/notes/:id
func (h *NoteHandler) GetByID(c *gin.Context) {
	note, err := h.notes.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get note", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"note": toNoteResponse(note)})
}

// PUT /api/v1/notes/:id
func (h *NoteHandler) Update(c *gin.Context) {
	var req updateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	note, err := h.notes.Update(c.Request.Context(), usecase.UpdateNoteInput{
		UserID:         middleware.UserID(c),
		NoteID:         c.Param("id"),
		Title:          req.Title,
		Content:        req.Content,
		MoveToNotebook: req.NotebookID,
	})
	if err != nil {
		respondError(c, h.logger, "update note", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"note": toNoteResponse(note)})
}

// DELETE /api/v1/notes/:id
func (h *NoteHandler) Delete(c *gin.Context) {
	if err := h.notes.Delete(c.Request.Context(), middleware.UserID(c), "", c.Param("id")); err != nil {
		respondError(c, h.logger, "delete note", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Note deleted successfully"})
}

// GET /api/v1/notes/by-title/:title
func (h *NoteHandler) NotebookByTitle(c *gin.Context) {
	notebookID, err := h.notes.NotebookIDByTitle(c.Request.Context(), middleware.UserID(c), c.Param("title"))
	if err != nil {
		respondError(c, h.logger, "notebook by note title", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"notebook_id": notebookID})
}

// POST /api/v1/notes/share/:noteId
func (h *NoteHandler) Share(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	note, err := h.notes.Share(c.Request.Context(), middleware.UserID(c), c.Param("noteId"), req.RecipientEmail)
	if err != nil {
		respondError(c, h.logger, "share note", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Note shared successfully", "note": toNoteResponse(note)})
}

// DELETE /api/v1/notes/share/:noteId
func (h *NoteHandler) Unshare(c *gin.Context) {
	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c)
		return
	}

	note, err := h.notes.Unshare(c.Request.Context(), middleware.UserID(c), c.Param("noteId"), req.RecipientEmail)
	if err != nil {
		respondError(c, h.logger, "unshare note", err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"message": "Note unshared successfully", "note": toNoteResponse(note)})
}
