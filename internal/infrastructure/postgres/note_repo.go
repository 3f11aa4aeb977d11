package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/notes-service/internal/domain"
	"github.com/ErlanBelekov/notes-service/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const noteColumns = `id, user_id, notebook_id, title, content, shared_with, created_at, updated_at`

// noteColumnsN is noteColumns qualified with the alias n.
const noteColumnsN = `n.id, n.user_id, n.notebook_id, n.title, n.content, n.shared_with, n.created_at, n.updated_at`

type NoteRepository struct {
	pool *pgxpool.Pool
}

func NewNoteRepository(pool *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{pool: pool}
}

func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	var created *domain.Note
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		created, err = scanNote(tx.QueryRow(ctx, `
			INSERT INTO notes (user_id, notebook_id, title, content)
			VALUES ($1, $2, $3, $4)
			RETURNING `+noteColumns,
			note.UserID, note.NotebookID, note.Title, note.Content,
		))
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			`UPDATE notebooks SET note_ids = array_append(note_ids, $2::uuid), updated_at = NOW() WHERE id = $1`,
			note.NotebookID, created.ID,
		)
		if err != nil {
			return fmt.Errorf("append note to notebook: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotebookNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	return scanNote(r.pool.QueryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id))
}

func (r *NoteRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Note, error) {
	return r.list(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`, userID)
}

func (r *NoteRepository) ListByNotebook(ctx context.Context, notebookID string) ([]*domain.Note, error) {
	return r.list(ctx, `
		SELECT `+noteColumnsN+`
		FROM notebooks nb
		CROSS JOIN LATERAL unnest(nb.note_ids) WITH ORDINALITY AS l(note_id, ord)
		JOIN notes n ON n.id = l.note_id
		WHERE nb.id = $1
		ORDER BY l.ord`, notebookID)
}

func (r *NoteRepository) ListInUserNotebooks(ctx context.Context, userID string) ([]*domain.Note, error) {
	return r.list(ctx, `
		SELECT `+noteColumnsN+`
		FROM notebooks nb
		CROSS JOIN LATERAL unnest(nb.note_ids) WITH ORDINALITY AS l(note_id, ord)
		JOIN notes n ON n.id = l.note_id
		WHERE nb.user_id = $1
		ORDER BY nb.created_at ASC, nb.id ASC, l.ord`, userID)
}

func (r *NoteRepository) ListSharedWith(ctx context.Context, userID string) ([]*domain.Note, error) {
	return r.list(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE $1::uuid = ANY(shared_with)
		ORDER BY created_at ASC, id ASC`, userID)
}

func (r *NoteRepository) FindReadableByTitle(ctx context.Context, userID, title string) (*domain.Note, error) {
	return scanNote(r.pool.QueryRow(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE title = $2
		  AND (user_id = $1 OR $1::uuid = ANY(shared_with))
		ORDER BY created_at ASC
		LIMIT 1`, userID, title))
}

func (r *NoteRepository) Update(ctx context.Context, input repository.UpdateNoteInput) (*domain.Note, error) {
	var updated *domain.Note
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var currentNotebook string
		err := tx.QueryRow(ctx,
			`SELECT notebook_id FROM notes WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			input.ID, input.UserID,
		).Scan(&currentNotebook)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNoteNotFound
			}
			return fmt.Errorf("lock note: %w", err)
		}

		if input.NotebookID != nil && *input.NotebookID != currentNotebook {
			if err := moveNoteID(ctx, tx, input.ID, currentNotebook, *input.NotebookID); err != nil {
				return err
			}
		}

		updated, err = scanNote(tx.QueryRow(ctx, `
			UPDATE notes
			SET    title       = COALESCE($2::text, title),
			       content     = COALESCE($3::text, content),
			       notebook_id = COALESCE($4::uuid, notebook_id),
			       updated_at  = NOW()
			WHERE  id = $1
			RETURNING `+noteColumns,
			input.ID, input.Title, input.Content, input.NotebookID,
		))
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id, userID string) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var notebookID string
		err := tx.QueryRow(ctx,
			`DELETE FROM notes WHERE id = $1 AND user_id = $2 RETURNING notebook_id`,
			id, userID,
		).Scan(&notebookID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNoteNotFound
			}
			return fmt.Errorf("delete note: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE notebooks SET note_ids = array_remove(note_ids, $2::uuid), updated_at = NOW() WHERE id = $1`,
			notebookID, id,
		); err != nil {
			return fmt.Errorf("remove note from notebook: %w", err)
		}
		return nil
	})
}

func (r *NoteRepository) Share(ctx context.Context, noteID, ownerID, userID string) (*domain.Note, error) {
	note, err := scanNote(r.pool.QueryRow(ctx, `
		UPDATE notes
		SET    shared_with = array_append(shared_with, $3::uuid)
		WHERE  id = $1 AND user_id = $2
		  AND  NOT ($3::uuid = ANY(shared_with))
		RETURNING `+noteColumns, noteID, ownerID, userID))
	if err == nil {
		return note, nil
	}
	if !errors.Is(err, domain.ErrNoteNotFound) {
		return nil, err
	}
	// No row updated: either the note is gone or the grant already exists.
	if err := r.ownedExists(ctx, noteID, ownerID); err != nil {
		return nil, err
	}
	return nil, domain.ErrAlreadyShared
}

func (r *NoteRepository) Unshare(ctx context.Context, noteID, ownerID, userID string) (*domain.Note, error) {
	note, err := scanNote(r.pool.QueryRow(ctx, `
		UPDATE notes
		SET    shared_with = array_remove(shared_with, $3::uuid)
		WHERE  id = $1 AND user_id = $2
		  AND  $3::uuid = ANY(shared_with)
		RETURNING `+noteColumns, noteID, ownerID, userID))
	if err == nil {
		return note, nil
	}
	if !errors.Is(err, domain.ErrNoteNotFound) {
		return nil, err
	}
	if err := r.ownedExists(ctx, noteID, ownerID); err != nil {
		return nil, err
	}
	return nil, domain.ErrNotShared
}

func (r *NoteRepository) ownedExists(ctx context.Context, noteID, ownerID string) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM notes WHERE id = $1 AND user_id = $2)`,
		noteID, ownerID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check note: %w", err)
	}
	if !exists {
		return domain.ErrNoteNotFound
	}
	return nil
}

func (r *NoteRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Note, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// moveNoteID moves the note's entry between two notebooks' lists. Ownership of
// the target is checked by the caller.
func moveNoteID(ctx context.Context, tx pgx.Tx, noteID, from, to string) error {
	if _, err := tx.Exec(ctx,
		`UPDATE notebooks SET note_ids = array_remove(note_ids, $2::uuid), updated_at = NOW() WHERE id = $1`,
		from, noteID,
	); err != nil {
		return fmt.Errorf("remove note from notebook: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE notebooks SET note_ids = array_append(note_ids, $2::uuid), updated_at = NOW() WHERE id = $1`,
		to, noteID,
	)
	if err != nil {
		return fmt.Errorf("append note to notebook: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotebookNotFound
	}
	return nil
}

func scanNote(row rowScanner) (*domain.Note, error) {
	var n domain.Note
	err := row.Scan(
		&n.ID, &n.UserID, &n.NotebookID, &n.Title, &n.Content,
		&n.SharedWith, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoteNotFound
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}
	return &n, nil
}
