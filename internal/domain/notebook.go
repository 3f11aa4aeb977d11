package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

const DefaultNotebookName = "General Notebook"

// defaultNotebookNamespace seeds the per-identity default notebook IDs.
var defaultNotebookNamespace = uuid.MustParse("6f1c2b8e-4a53-4d0e-9a7e-3c1d5f0b9e21")

type Notebook struct {
	ID        string
	UserID    string
	Name      string
	NoteIDs   []string // insertion order
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (n *Notebook) OwnedBy(userID string) bool {
	return n.UserID == userID
}

func (n *Notebook) Contains(noteID string) bool {
	return slices.Contains(n.NoteIDs, noteID)
}

// DefaultNotebookID is the well-known notebook ID substituted when a note is
// created without one. It is stable for a given identity.
func DefaultNotebookID(userID string) string {
	return uuid.NewSHA1(defaultNotebookNamespace, []byte(userID)).String()
}
