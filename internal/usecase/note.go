package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ErlanBelekov/notes-service/internal/domain"
	"github.com/ErlanBelekov/notes-service/internal/repository"
	"github.com/google/uuid"
)

type NoteUsecase struct {
	notes      repository.NoteRepository
	notebooks  *NotebookUsecase
	identities repository.IdentityRepository
	logger     *slog.Logger
}

func NewNoteUsecase(notes repository.NoteRepository, notebooks *NotebookUsecase, identities repository.IdentityRepository, logger *slog.Logger) *NoteUsecase {
	return &NoteUsecase{
		notes:      notes,
		notebooks:  notebooks,
		identities: identities,
		logger:     logger.With("component", "note_usecase"),
	}
}

type CreateNoteInput struct {
	UserID     string
	NotebookID string // empty = the identity's default notebook
	Title      string
	Content    string
}

// UpdateNoteInput carries optional fields; nil leaves a field unchanged.
type UpdateNoteInput struct {
	UserID string
	NoteID string
	// ScopeNotebookID, when set, requires the note to live in that notebook.
	ScopeNotebookID string
	Title           *string
	Content         *string
	MoveToNotebook  *string
}

func (u *NoteUsecase) Create(ctx context.Context, input CreateNoteInput) (*domain.Note, error) {
	if strings.TrimSpace(input.Title) == "" || input.Content == "" {
		return nil, domain.ErrMissingFields
	}

	var (
		nb  *domain.Notebook
		err error
	)
	if input.NotebookID == "" {
		nb, err = u.notebooks.EnsureDefault(ctx, input.UserID)
	} else {
		if _, perr := uuid.Parse(input.NotebookID); perr != nil {
			return nil, domain.ErrInvalidNotebook
		}
		nb, err = u.notebooks.owned(ctx, input.UserID, input.NotebookID)
	}
	if err != nil {
		return nil, err
	}

	note, err := u.notes.Create(ctx, &domain.Note{
		UserID:     input.UserID,
		NotebookID: nb.ID,
		Title:      input.Title,
		Content:    input.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return note, nil
}

// Get returns a note to its owner or to anyone it is shared with.
func (u *NoteUsecase) Get(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	note, err := u.get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if !note.ReadableBy(userID) {
		return nil, domain.ErrForbidden
	}
	return note, nil
}

// GetInNotebook is Get restricted to notes that belong to notebookID.
func (u *NoteUsecase) GetInNotebook(ctx context.Context, userID, notebookID, noteID string) (*domain.Note, error) {
	if _, err := u.notebooks.get(ctx, notebookID); err != nil {
		return nil, err
	}
	note, err := u.get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.NotebookID != notebookID {
		return nil, domain.ErrNoteNotFound
	}
	if !note.ReadableBy(userID) {
		return nil, domain.ErrForbidden
	}
	return note, nil
}

func (u *NoteUsecase) ListOwned(ctx context.Context, userID string) ([]*domain.Note, error) {
	notes, err := u.notes.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (u *NoteUsecase) ListShared(ctx context.Context, userID string) ([]*domain.Note, error) {
	notes, err := u.notes.ListSharedWith(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list shared notes: %w", err)
	}
	return notes, nil
}

// NotebookIDByTitle finds the notebook holding a readable note titled title.
func (u *NoteUsecase) NotebookIDByTitle(ctx context.Context, userID, title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", domain.ErrMissingFields
	}
	note, err := u.notes.FindReadableByTitle(ctx, userID, title)
	if err != nil {
		return "", fmt.Errorf("find note by title: %w", err)
	}
	return note.NotebookID, nil
}

func (u *NoteUsecase) Update(ctx context.Context, input UpdateNoteInput) (*domain.Note, error) {
	note, err := u.ownedInScope(ctx, input.UserID, input.ScopeNotebookID, input.NoteID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, domain.ErrMissingFields
	}
	if input.Content != nil && *input.Content == "" {
		return nil, domain.ErrMissingFields
	}

	var moveTo *string
	if input.MoveToNotebook != nil && *input.MoveToNotebook != note.NotebookID {
		if _, perr := uuid.Parse(*input.MoveToNotebook); perr != nil {
			return nil, domain.ErrInvalidNotebook
		}
		target, err := u.notebooks.owned(ctx, input.UserID, *input.MoveToNotebook)
		if err != nil {
			return nil, err
		}
		moveTo = &target.ID
	}

	updated, err := u.notes.Update(ctx, repository.UpdateNoteInput{
		ID:         note.ID,
		UserID:     input.UserID,
		Title:      input.Title,
		Content:    input.Content,
		NotebookID: moveTo,
	})
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return updated, nil
}

// Delete removes the note and its entry in the owning notebook's list.
func (u *NoteUsecase) Delete(ctx context.Context, userID, scopeNotebookID, noteID string) error {
	note, err := u.ownedInScope(ctx, userID, scopeNotebookID, noteID)
	if err != nil {
		return err
	}
	if err := u.notes.Delete(ctx, note.ID, userID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// Share grants recipientEmail read access to a note the requester owns.
func (u *NoteUsecase) Share(ctx context.Context, userID, noteID, recipientEmail string) (*domain.Note, error) {
	recipient, note, err := u.shareTarget(ctx, userID, noteID, recipientEmail)
	if err != nil {
		return nil, err
	}
	if recipient.ID == note.UserID {
		return nil, domain.ErrShareWithSelf
	}
	if note.SharedWithUser(recipient.ID) {
		return nil, domain.ErrAlreadyShared
	}

	shared, err := u.notes.Share(ctx, note.ID, userID, recipient.ID)
	if err != nil {
		return nil, fmt.Errorf("share note: %w", err)
	}
	u.logger.InfoContext(ctx, "note shared", "note_id", note.ID, "recipient_id", recipient.ID)
	return shared, nil
}

// Unshare revokes a grant made by Share.
func (u *NoteUsecase) Unshare(ctx context.Context, userID, noteID, recipientEmail string) (*domain.Note, error) {
	recipient, note, err := u.shareTarget(ctx, userID, noteID, recipientEmail)
	if err != nil {
		return nil, err
	}
	if !note.SharedWithUser(recipient.ID) {
		return nil, domain.ErrNotShared
	}

	updated, err := u.notes.Unshare(ctx, note.ID, userID, recipient.ID)
	if err != nil {
		return nil, fmt.Errorf("unshare note: %w", err)
	}
	return updated, nil
}

// shareTarget resolves the recipient and the note, checking in this order:
// recipient given, recipient exists, note exists, requester owns the note.
func (u *NoteUsecase) shareTarget(ctx context.Context, userID, noteID, recipientEmail string) (*domain.Identity, *domain.Note, error) {
	recipientEmail = normalizeEmail(recipientEmail)
	if recipientEmail == "" {
		return nil, nil, domain.ErrMissingRecipient
	}

	recipient, err := u.identities.FindByEmail(ctx, recipientEmail)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("find recipient: %w", err)
	}

	note, err := u.get(ctx, noteID)
	if err != nil {
		return nil, nil, err
	}
	if !note.OwnedBy(userID) {
		return nil, nil, domain.ErrForbidden
	}
	return recipient, note, nil
}

func (u *NoteUsecase) get(ctx context.Context, noteID string) (*domain.Note, error) {
	if err := validateID(noteID); err != nil {
		return nil, err
	}
	note, err := u.notes.GetByID(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

// ownedInScope loads a note for mutation. With a scope, the notebook must
// exist, be owned by userID and contain the note.
func (u *NoteUsecase) ownedInScope(ctx context.Context, userID, scopeNotebookID, noteID string) (*domain.Note, error) {
	if scopeNotebookID != "" {
		if _, err := u.notebooks.owned(ctx, userID, scopeNotebookID); err != nil {
			return nil, err
		}
	}

	note, err := u.get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if scopeNotebookID != "" && note.NotebookID != scopeNotebookID {
		return nil, domain.ErrNoteNotFound
	}
	if !note.OwnedBy(userID) {
		return nil, domain.ErrForbidden
	}
	return note, nil
}
