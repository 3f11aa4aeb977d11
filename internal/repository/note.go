package repository

import (
	"context"

	"github.com/ErlanBelekov/notes-service/internal/domain"
)

type UpdateNoteInput struct {
	ID      string
	UserID  string
	Title   *string // nil = unchanged
	Content *string
	// NotebookID moves the note; both notebooks' lists are updated with it.
	NotebookID *string
}

type NoteRepository interface {
	// Create inserts the note and appends its ID to the notebook's list in one transaction.
	Create(ctx context.Context, note *domain.Note) (*domain.Note, error)
	GetByID(ctx context.Context, id string) (*domain.Note, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Note, error)
	// ListByNotebook returns notes in the notebook's list order.
	ListByNotebook(ctx context.Context, notebookID string) ([]*domain.Note, error)
	// ListInUserNotebooks returns the notes referenced by all of the user's notebooks.
	ListInUserNotebooks(ctx context.Context, userID string) ([]*domain.Note, error)
	ListSharedWith(ctx context.Context, userID string) ([]*domain.Note, error)
	// FindReadableByTitle returns the first note with title that userID owns or is shared.
	FindReadableByTitle(ctx context.Context, userID, title string) (*domain.Note, error)

	Update(ctx context.Context, input UpdateNoteInput) (*domain.Note, error)
	// Delete removes the note document and its notebook list entry together.
	Delete(ctx context.Context, id, userID string) error

	// Share appends userID to shared_with; domain.ErrAlreadyShared if present.
	Share(ctx context.Context, noteID, ownerID, userID string) (*domain.Note, error)
	// Unshare removes userID; domain.ErrNotShared if absent.
	Unshare(ctx context.Context, noteID, ownerID, userID string) (*domain.Note, error)
}
