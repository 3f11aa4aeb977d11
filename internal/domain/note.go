package domain

import (
	"slices"
	"time"
)

type Note struct {
	ID         string
	UserID     string
	NotebookID string
	Title      string
	Content    string
	SharedWith []string // identity IDs, no duplicates
	CreatedAt  time.Time
	UpdatedAt  *time.Time // nil until the first edit
}

func (n *Note) OwnedBy(userID string) bool {
	return n.UserID == userID
}

func (n *Note) SharedWithUser(userID string) bool {
	return slices.Contains(n.SharedWith, userID)
}

// ReadableBy permits the owner and every share grantee.
func (n *Note) ReadableBy(userID string) bool {
	return n.OwnedBy(userID) || n.SharedWithUser(userID)
}
