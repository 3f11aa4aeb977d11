// seed creates two users with notebooks, notes and one shared note in the
// local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ErlanBelekov/notes-service/internal/domain"
	"github.com/ErlanBelekov/notes-service/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/notes-service/internal/password"
	"github.com/ErlanBelekov/notes-service/internal/token"
	"github.com/ErlanBelekov/notes-service/internal/usecase"
	"golang.org/x/crypto/bcrypt"
)

const seedSecret = "seed-password"

type seedUser struct {
	username string
	email    string
}

var users = []seedUser{
	{"alice", "alice@test.local"},
	{"bob", "bob@test.local"},
}

type noteSpec struct {
	notebook string // empty means the default notebook
	title    string
	content  string
}

var aliceNotes = []noteSpec{
	{"", "Groceries", "milk, eggs, coffee"},
	{"", "Ideas", "write a CLI for the notes API"},
	{"Work", "Standup", "finish migrations, review sharing PR"},
	{"Work", "Oncall", "rotate the JWT secret next sprint"},
	{"Reading", "Books", "Designing Data-Intensive Applications"},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set, run: direnv allow")
	}

	if err := postgres.RunMigrations(dbURL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	identityRepo := postgres.NewIdentityRepository(pool)
	notebookRepo := postgres.NewNotebookRepository(pool)
	noteRepo := postgres.NewNoteRepository(pool)

	tokens := token.NewService([]byte("seed-only-signing-key-not-for-prod"), time.Hour)
	auth := usecase.NewAuthUsecase(identityRepo, password.NewHasher(bcrypt.MinCost), tokens, nil, logger)
	notebooks := usecase.NewNotebookUsecase(notebookRepo, noteRepo, logger)
	notes := usecase.NewNoteUsecase(noteRepo, notebooks, identityRepo, logger)

	ids := make(map[string]string, len(users))
	created := map[string]bool{}
	for _, u := range users {
		identity, err := auth.Signup(ctx, usecase.SignupInput{Username: u.username, Email: u.email, Secret: seedSecret})
		switch {
		case err == nil:
			created[u.username] = true
		case errors.Is(err, domain.ErrEmailTaken), errors.Is(err, domain.ErrUsernameTaken):
			identity, err = identityRepo.FindByEmail(ctx, u.email)
			if err != nil {
				log.Fatalf("find %s: %v", u.email, err)
			}
		default:
			log.Fatalf("signup %s: %v", u.email, err)
		}
		ids[u.username] = identity.ID
	}

	// An alice that already existed keeps the content it already has.
	if !created["alice"] {
		fmt.Println("Seed users already exist, nothing to do")
		printUsage()
		return
	}

	aliceID := ids["alice"]
	notebookIDs := map[string]string{}
	var sharedNoteID string
	for _, spec := range aliceNotes {
		nbID, ok := notebookIDs[spec.notebook]
		if !ok && spec.notebook != "" {
			nb, err := notebooks.Create(ctx, aliceID, spec.notebook)
			if err != nil {
				log.Fatalf("create notebook %s: %v", spec.notebook, err)
			}
			nbID = nb.ID
			notebookIDs[spec.notebook] = nbID
		}

		note, err := notes.Create(ctx, usecase.CreateNoteInput{
			UserID:     aliceID,
			NotebookID: nbID,
			Title:      spec.title,
			Content:    spec.content,
		})
		if err != nil {
			log.Fatalf("create note %s: %v", spec.title, err)
		}
		if spec.title == "Standup" {
			sharedNoteID = note.ID
		}
	}

	if _, err := notes.Share(ctx, aliceID, sharedNoteID, "bob@test.local"); err != nil {
		log.Fatalf("share note: %v", err)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	for _, u := range users {
		fmt.Printf("  %-6s %-18s id=%s\n", u.username, u.email, ids[u.username])
	}
	fmt.Printf("  Notes created for alice: %d (note %s shared with bob)\n", len(aliceNotes), sharedNoteID)
	printUsage()
}

func printUsage() {
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1: log in as alice:")
	fmt.Println()
	fmt.Printf("    curl -s -X POST http://localhost:8080/api/v1/auth/login \\\n")
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"email\":\"alice@test.local\",\"password\":\"%s\"}'\n", seedSecret)
	fmt.Println("    # copy \"token\" from the response")
	fmt.Println()
	fmt.Println("  Step 2: list notebooks and notes:")
	fmt.Println()
	fmt.Println("    export TOKEN=eyJ...")
	fmt.Println("    curl -s http://localhost:8080/api/v1/notebooks -H \"Authorization: Bearer $TOKEN\"")
	fmt.Println("    curl -s http://localhost:8080/api/v1/notes -H \"Authorization: Bearer $TOKEN\"")
	fmt.Println()
	fmt.Println("  Step 3: log in as bob and list the notes shared with bob:")
	fmt.Println()
	fmt.Println("    curl -s http://localhost:8080/api/v1/notes/shared -H \"Authorization: Bearer $TOKEN\"")
}
