package repository

import (
	"context"

	"github.com/ErlanBelekov/notes-service/internal/domain"
)

type NotebookRepository interface {
	Create(ctx context.Context, nb *domain.Notebook) (*domain.Notebook, error)
	// Ensure inserts nb unless a notebook with nb.ID already exists, then
	// returns the stored notebook. created reports whether this call inserted it.
	Ensure(ctx context.Context, nb *domain.Notebook) (stored *domain.Notebook, created bool, err error)
	GetByID(ctx context.Context, id string) (*domain.Notebook, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Notebook, error)
	Rename(ctx context.Context, id, userID, name string) (*domain.Notebook, error)
	// Delete removes the notebook and every note in its list, atomically.
	Delete(ctx context.Context, id, userID string) (deletedNotes int, err error)
}
