package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/notes-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const notebookColumns = `id, user_id, name, note_ids, created_at, updated_at`

type NotebookRepository struct {
	pool *pgxpool.Pool
}

func NewNotebookRepository(pool *pgxpool.Pool) *NotebookRepository {
	return &NotebookRepository{pool: pool}
}

func (r *NotebookRepository) Create(ctx context.Context, nb *domain.Notebook) (*domain.Notebook, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO notebooks (user_id, name)
		VALUES ($1, $2)
		RETURNING `+notebookColumns, nb.UserID, nb.Name)
	return scanNotebook(row)
}

func (r *NotebookRepository) Ensure(ctx context.Context, nb *domain.Notebook) (*domain.Notebook, bool, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO notebooks (id, user_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
		RETURNING `+notebookColumns, nb.ID, nb.UserID, nb.Name)

	created, err := scanNotebook(row)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, domain.ErrNotebookNotFound) {
		return nil, false, err
	}

	// Conflict: someone else inserted it first.
	existing, err := r.GetByID(ctx, nb.ID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *NotebookRepository) GetByID(ctx context.Context, id string) (*domain.Notebook, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+notebookColumns+` FROM notebooks WHERE id = $1`, id)
	return scanNotebook(row)
}

func (r *NotebookRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Notebook, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+notebookColumns+`
		FROM notebooks
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}
	defer rows.Close()

	var notebooks []*domain.Notebook
	for rows.Next() {
		nb, err := scanNotebook(rows)
		if err != nil {
			return nil, err
		}
		notebooks = append(notebooks, nb)
	}
	return notebooks, rows.Err()
}

func (r *NotebookRepository) Rename(ctx context.Context, id, userID, name string) (*domain.Notebook, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE notebooks
		SET    name = $3, updated_at = NOW()
		WHERE  id = $1 AND user_id = $2
		RETURNING `+notebookColumns, id, userID, name)
	return scanNotebook(row)
}

func (r *NotebookRepository) Delete(ctx context.Context, id, userID string) (int, error) {
	var deleted int
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var noteIDs []string
		err := tx.QueryRow(ctx,
			`SELECT note_ids FROM notebooks WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			id, userID,
		).Scan(&noteIDs)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotebookNotFound
			}
			return fmt.Errorf("lock notebook: %w", err)
		}

		// The list is authoritative; notebook_id catches any row whose list entry was lost.
		tag, err := tx.Exec(ctx,
			`DELETE FROM notes WHERE id = ANY($1::uuid[]) OR notebook_id = $2`,
			noteIDs, id,
		)
		if err != nil {
			return fmt.Errorf("delete notebook notes: %w", err)
		}
		deleted = int(tag.RowsAffected())

		if _, err := tx.Exec(ctx, `DELETE FROM notebooks WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete notebook: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func scanNotebook(row rowScanner) (*domain.Notebook, error) {
	var nb domain.Notebook
	err := row.Scan(&nb.ID, &nb.UserID, &nb.Name, &nb.NoteIDs, &nb.CreatedAt, &nb.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotebookNotFound
		}
		return nil, fmt.Errorf("scan notebook: %w", err)
	}
	return &nb, nil
}
