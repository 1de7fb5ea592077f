// Seed creates two users with tasks and notes, some shared between them.
// Run from project root: go run ./scripts/seed --tasks 10000
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/spf13/pflag"

	"todoshare/internal/database"
	"todoshare/internal/repository"
	"todoshare/pkg/models"
)

var (
	statuses   = []models.TaskStatus{models.StatusPending, models.StatusInProgress, models.StatusCompleted}
	priorities = []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}
)

func main() {
	_ = godotenv.Load()

	alice := pflag.String("alice", "seed-alice", "id of the first user")
	bob := pflag.String("bob", "seed-bob", "id of the second user")
	total := pflag.Int("tasks", 1000, "tasks to insert for the first user")
	batchSize := pflag.Int("batch", 500, "rows per INSERT")
	shareEvery := pflag.Int("share-every", 10, "share every n-th task with the second user (0 = none)")
	pflag.Parse()

	ctx := context.Background()
	db := database.DB(ctx)
	if db == nil {
		fmt.Fprintln(os.Stderr, "DATABASE_URL not set or DB connection failed")
		os.Exit(1)
	}
	if err := database.MigrateOrCreateSchema(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Schema failed:", err)
		os.Exit(1)
	}

	profiles := repository.NewProfiles(db)
	for _, id := range []string{*alice, *bob} {
		name := strings.TrimPrefix(id, "seed-")
		if _, err := profiles.Upsert(ctx, id, name+"@example.com", &name); err != nil {
			fmt.Fprintln(os.Stderr, "Profile failed:", err)
			os.Exit(1)
		}
	}

	start := time.Now()
	for done := 0; done < *total; done += *batchSize {
		n := min(*batchSize, *total-done)
		args := make([]interface{}, 0, n*6)
		placeholders := make([]string, 0, n)
		for i := 0; i < n; i++ {
			k := done + i + 1
			recipients := []string{}
			if *shareEvery > 0 && k%*shareEvery == 0 {
				recipients = []string{*bob}
			}
			placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
				6*i+1, 6*i+2, 6*i+3, 6*i+4, 6*i+5, 6*i+6))
			args = append(args,
				uuid.New().String(),
				fmt.Sprintf("Task %d", k),
				statuses[k%len(statuses)],
				priorities[k%len(priorities)],
				*alice,
				pq.Array(recipients),
			)
		}
		q := `INSERT INTO tasks (id, title, status, priority, owner_id, shared_with) VALUES ` +
			strings.Join(placeholders, ",")
		if _, err := db.ExecContext(ctx, q, args...); err != nil {
			fmt.Fprintln(os.Stderr, "Insert failed:", err)
			os.Exit(1)
		}
		fmt.Printf("\rInserted %d / %d tasks", done+n, *total)
	}

	notes := repository.NewNotes(db)
	for i, in := range []models.NoteInput{
		{Title: "Groceries", Content: "milk, eggs, bread", SharedWith: []string{*bob}},
		{Title: "Trip ideas", Content: "Lisbon in spring"},
		{Title: "Reading list", Content: "Designing Data-Intensive Applications"},
	} {
		owner := *alice
		if i == 2 {
			owner = *bob
		}
		if _, err := notes.Create(ctx, owner, in); err != nil {
			fmt.Fprintln(os.Stderr, "Note failed:", err)
			os.Exit(1)
		}
	}

	fmt.Printf("\nDone: %d tasks and 3 notes in %v\n", *total, time.Since(start))
}
