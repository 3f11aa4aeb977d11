package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ErlanBelekov/notes-service/internal/domain"
	"github.com/ErlanBelekov/notes-service/internal/repository"
	"github.com/google/uuid"
)

type NotebookUsecase struct {
	notebooks repository.NotebookRepository
	notes     repository.NoteRepository
	logger    *slog.Logger
}

func NewNotebookUsecase(notebooks repository.NotebookRepository, notes repository.NoteRepository, logger *slog.Logger) *NotebookUsecase {
	return &NotebookUsecase{
		notebooks: notebooks,
		notes:     notes,
		logger:    logger.With("component", "notebook_usecase"),
	}
}

func (u *NotebookUsecase) List(ctx context.Context, userID string) ([]*domain.Notebook, error) {
	notebooks, err := u.notebooks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}
	return notebooks, nil
}

func (u *NotebookUsecase) Create(ctx context.Context, userID, name string) (*domain.Notebook, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrMissingFields
	}

	nb, err := u.notebooks.Create(ctx, &domain.Notebook{UserID: userID, Name: name})
	if err != nil {
		return nil, fmt.Errorf("create notebook: %w", err)
	}
	return nb, nil
}

// EnsureDefault returns the identity's default notebook, creating it on
// first use. Repeated calls never create a second one.
func (u *NotebookUsecase) EnsureDefault(ctx context.Context, userID string) (*domain.Notebook, error) {
	nb, created, err := u.notebooks.Ensure(ctx, &domain.Notebook{
		ID:     domain.DefaultNotebookID(userID),
		UserID: userID,
		Name:   domain.DefaultNotebookName,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure default notebook: %w", err)
	}
	if created {
		u.logger.InfoContext(ctx, "default notebook created", "user_id", userID, "notebook_id", nb.ID)
	}
	return nb, nil
}

// Rename keeps the current name when name is blank.
func (u *NotebookUsecase) Rename(ctx context.Context, userID, notebookID, name string) (*domain.Notebook, error) {
	nb, err := u.owned(ctx, userID, notebookID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nb, nil
	}

	renamed, err := u.notebooks.Rename(ctx, nb.ID, userID, name)
	if err != nil {
		return nil, fmt.Errorf("rename notebook: %w", err)
	}
	return renamed, nil
}

// Delete removes the notebook together with every note in its list.
func (u *NotebookUsecase) Delete(ctx context.Context, userID, notebookID string) error {
	nb, err := u.owned(ctx, userID, notebookID)
	if err != nil {
		return err
	}

	n, err := u.notebooks.Delete(ctx, nb.ID, userID)
	if err != nil {
		return fmt.Errorf("delete notebook: %w", err)
	}
	u.logger.InfoContext(ctx, "notebook deleted", "notebook_id", nb.ID, "notes_deleted", n)
	return nil
}

func (u *NotebookUsecase) ListNotes(ctx context.Context, userID, notebookID string) ([]*domain.Note, error) {
	nb, err := u.owned(ctx, userID, notebookID)
	if err != nil {
		return nil, err
	}

	notes, err := u.notes.ListByNotebook(ctx, nb.ID)
	if err != nil {
		return nil, fmt.Errorf("list notebook notes: %w", err)
	}
	return notes, nil
}

// AllNotes returns the notes of every notebook the identity owns.
func (u *NotebookUsecase) AllNotes(ctx context.Context, userID string) ([]*domain.Note, error) {
	notes, err := u.notes.ListInUserNotebooks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list all notes: %w", err)
	}
	return notes, nil
}

func (u *NotebookUsecase) get(ctx context.Context, notebookID string) (*domain.Notebook, error) {
	if err := validateID(notebookID); err != nil {
		return nil, err
	}
	nb, err := u.notebooks.GetByID(ctx, notebookID)
	if err != nil {
		return nil, fmt.Errorf("get notebook: %w", err)
	}
	return nb, nil
}

func (u *NotebookUsecase) owned(ctx context.Context, userID, notebookID string) (*domain.Notebook, error) {
	nb, err := u.get(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	if !nb.OwnedBy(userID) {
		return nil, domain.ErrForbidden
	}
	return nb, nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidID
	}
	return nil
}
