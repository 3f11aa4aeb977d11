package usecase_test

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ErlanBelekov/notes-service/internal/domain"
	"github.com/ErlanBelekov/notes-service/internal/repository"
	"github.com/google/uuid"
)

// memStore is an in-memory implementation of the three repositories with the
// same atomicity guarantees the postgres repos give.
type memStore struct {
	mu         sync.Mutex
	identities map[string]*domain.Identity
	notebooks  map[string]*domain.Notebook
	notes      map[string]*domain.Note
	order      []string // note insertion order
}

func newMemStore() *memStore {
	return &memStore{
		identities: make(map[string]*domain.Identity),
		notebooks:  make(map[string]*domain.Notebook),
		notes:      make(map[string]*domain.Note),
	}
}

func cloneIdentity(i *domain.Identity) *domain.Identity {
	c := *i
	if i.OTP != nil {
		otp := *i.OTP
		c.OTP = &otp
	}
	return &c
}

func cloneNotebook(nb *domain.Notebook) *domain.Notebook {
	c := *nb
	c.NoteIDs = slices.Clone(nb.NoteIDs)
	return &c
}

func cloneNote(n *domain.Note) *domain.Note {
	c := *n
	c.SharedWith = slices.Clone(n.SharedWith)
	return &c
}

// ---- identities ----

type memIdentities struct{ *memStore }

var _ repository.IdentityRepository = memIdentities{}

func (s memIdentities) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.identities {
		if existing.Email == identity.Email {
			return nil, domain.ErrEmailTaken
		}
		if existing.Username == identity.Username {
			return nil, domain.ErrUsernameTaken
		}
	}
	c := cloneIdentity(identity)
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	s.identities[c.ID] = c
	return cloneIdentity(c), nil
}

func (s memIdentities) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.identities[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneIdentity(i), nil
}

func (s memIdentities) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.byEmail(email); i != nil {
		return cloneIdentity(i), nil
	}
	return nil, domain.ErrUserNotFound
}

func (s memIdentities) FindProfileByID(ctx context.Context, id string) (*domain.Identity, error) {
	i, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return i.Profile(), nil
}

func (s memIdentities) SetOTP(_ context.Context, email string, otp domain.OTPState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.byEmail(email)
	if i == nil {
		return domain.ErrUserNotFound
	}
	i.OTP = &otp
	return nil
}

func (s memIdentities) ClaimOTP(_ context.Context, email, code string, now time.Time) (*domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.byEmail(email)
	if i == nil || !i.OTP.Valid(code, now) {
		return nil, domain.ErrOTPInvalidOrExpired
	}
	i.OTP = nil
	return cloneIdentity(i), nil
}

func (s memIdentities) UpdateSecret(_ context.Context, email, oldHash, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.byEmail(email)
	if i == nil || i.SecretHash != oldHash {
		return domain.ErrUserNotFound
	}
	i.SecretHash = newHash
	return nil
}

func (s memIdentities) ClearExpiredOTPs(_ context.Context, cutoff time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, i := range s.identities {
		if n == limit {
			break
		}
		if i.OTP != nil && i.OTP.ExpiresAt.Before(cutoff) {
			i.OTP = nil
			n++
		}
	}
	return n, nil
}

func (s memIdentities) byEmail(email string) *domain.Identity {
	for _, i := range s.identities {
		if i.Email == email {
			return i
		}
	}
	return nil
}

// ---- notebooks ----

type memNotebooks struct{ *memStore }

var _ repository.NotebookRepository = memNotebooks{}

func (s memNotebooks) Create(_ context.Context, nb *domain.Notebook) (*domain.Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneNotebook(nb)
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	s.notebooks[c.ID] = c
	return cloneNotebook(c), nil
}

func (s memNotebooks) Ensure(_ context.Context, nb *domain.Notebook) (*domain.Notebook, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.notebooks[nb.ID]; ok {
		return cloneNotebook(existing), false, nil
	}
	c := cloneNotebook(nb)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	s.notebooks[c.ID] = c
	return cloneNotebook(c), true, nil
}

func (s memNotebooks) GetByID(_ context.Context, id string) (*domain.Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, ok := s.notebooks[id]
	if !ok {
		return nil, domain.ErrNotebookNotFound
	}
	return cloneNotebook(nb), nil
}

func (s memNotebooks) ListByUser(_ context.Context, userID string) ([]*domain.Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Notebook
	for _, nb := range s.notebooks {
		if nb.UserID == userID {
			out = append(out, cloneNotebook(nb))
		}
	}
	return out, nil
}

func (s memNotebooks) Rename(_ context.Context, id, userID, name string) (*domain.Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, ok := s.notebooks[id]
	if !ok || nb.UserID != userID {
		return nil, domain.ErrNotebookNotFound
	}
	nb.Name = name
	return cloneNotebook(nb), nil
}

func (s memNotebooks) Delete(_ context.Context, id, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, ok := s.notebooks[id]
	if !ok || nb.UserID != userID {
		return 0, domain.ErrNotebookNotFound
	}
	n := 0
	for _, noteID := range nb.NoteIDs {
		if _, ok := s.notes[noteID]; ok {
			delete(s.notes, noteID)
			n++
		}
	}
	delete(s.notebooks, id)
	return n, nil
}

// ---- notes ----

type memNotes struct{ *memStore }

var _ repository.NoteRepository = memNotes{}

func (s memNotes) Create(_ context.Context, note *domain.Note) (*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, ok := s.notebooks[note.NotebookID]
	if !ok {
		return nil, domain.ErrNotebookNotFound
	}
	c := cloneNote(note)
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	s.notes[c.ID] = c
	s.order = append(s.order, c.ID)
	nb.NoteIDs = append(nb.NoteIDs, c.ID)
	return cloneNote(c), nil
}

func (s memNotes) GetByID(_ context.Context, id string) (*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return nil, domain.ErrNoteNotFound
	}
	return cloneNote(n), nil
}

func (s memNotes) ListByUser(_ context.Context, userID string) ([]*domain.Note, error) {
	return s.filter(func(n *domain.Note) bool { return n.UserID == userID }), nil
}

func (s memNotes) ListByNotebook(_ context.Context, notebookID string) ([]*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nb, ok := s.notebooks[notebookID]
	if !ok {
		return nil, nil
	}
	var out []*domain.Note
	for _, id := range nb.NoteIDs {
		if n, ok := s.notes[id]; ok {
			out = append(out, cloneNote(n))
		}
	}
	return out, nil
}

func (s memNotes) ListInUserNotebooks(_ context.Context, userID string) ([]*domain.Note, error) {
	return s.filter(func(n *domain.Note) bool {
		nb, ok := s.notebooks[n.NotebookID]
		return ok && nb.UserID == userID
	}), nil
}

func (s memNotes) ListSharedWith(_ context.Context, userID string) ([]*domain.Note, error) {
	return s.filter(func(n *domain.Note) bool { return n.SharedWithUser(userID) }), nil
}

func (s memNotes) FindReadableByTitle(_ context.Context, userID, title string) (*domain.Note, error) {
	found := s.filter(func(n *domain.Note) bool { return n.Title == title && n.ReadableBy(userID) })
	if len(found) == 0 {
		return nil, domain.ErrNoteNotFound
	}
	return found[0], nil
}

func (s memNotes) Update(_ context.Context, input repository.UpdateNoteInput) (*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[input.ID]
	if !ok || n.UserID != input.UserID {
		return nil, domain.ErrNoteNotFound
	}
	if input.Title != nil {
		n.Title = *input.Title
	}
	if input.Content != nil {
		n.Content = *input.Content
	}
	if input.NotebookID != nil {
		if from, ok := s.notebooks[n.NotebookID]; ok {
			from.NoteIDs = slices.DeleteFunc(from.NoteIDs, func(id string) bool { return id == n.ID })
		}
		to := s.notebooks[*input.NotebookID]
		to.NoteIDs = append(to.NoteIDs, n.ID)
		n.NotebookID = *input.NotebookID
	}
	now := time.Now()
	n.UpdatedAt = &now
	return cloneNote(n), nil
}

func (s memNotes) Delete(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return domain.ErrNoteNotFound
	}
	if nb, ok := s.notebooks[n.NotebookID]; ok {
		nb.NoteIDs = slices.DeleteFunc(nb.NoteIDs, func(noteID string) bool { return noteID == id })
	}
	delete(s.notes, id)
	return nil
}

func (s memNotes) Share(_ context.Context, noteID, ownerID, userID string) (*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[noteID]
	if !ok || n.UserID != ownerID {
		return nil, domain.ErrNoteNotFound
	}
	if n.SharedWithUser(userID) {
		return nil, domain.ErrAlreadyShared
	}
	n.SharedWith = append(n.SharedWith, userID)
	return cloneNote(n), nil
}

func (s memNotes) Unshare(_ context.Context, noteID, ownerID, userID string) (*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[noteID]
	if !ok || n.UserID != ownerID {
		return nil, domain.ErrNoteNotFound
	}
	if !n.SharedWithUser(userID) {
		return nil, domain.ErrNotShared
	}
	n.SharedWith = slices.DeleteFunc(n.SharedWith, func(id string) bool { return id == userID })
	return cloneNote(n), nil
}

func (s memNotes) filter(keep func(*domain.Note) bool) []*domain.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Note
	for _, id := range s.order {
		if n, ok := s.notes[id]; ok && keep(n) {
			out = append(out, cloneNote(n))
		}
	}
	return out
}

// ---- epochs ----

type memEpochs struct {
	mu     sync.Mutex
	epochs map[string]int64
}

func newMemEpochs() *memEpochs {
	return &memEpochs{epochs: make(map[string]int64)}
}

func (e *memEpochs) Current(_ context.Context, id string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.epochs[id], nil
}

func (e *memEpochs) Bump(_ context.Context, id string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.epochs[id]++
	return e.epochs[id], nil
}
