package client

import (
	"strings"
	"time"

	"todoshare/pkg/models"
	"todoshare/pkg/sharing"
)

// TaskFilter narrows a task list. Zero fields match everything.
type TaskFilter struct {
	Status   models.TaskStatus
	Priority models.Priority
	Query    string
}

// FilterTasks keeps tasks matching f; the query matches title or
// description ignoring case.
func FilterTasks(tasks []models.Task, f TaskFilter) []models.Task {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if q != "" && !containsFold(t.Title, q) && (t.Description == nil || !containsFold(*t.Description, q)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SearchNotes keeps notes whose title or content contains query, ignoring case.
func SearchNotes(notes []models.Note, query string) []models.Note {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return notes
	}
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if containsFold(n.Title, q) || containsFold(n.Content, q) {
			out = append(out, n)
		}
	}
	return out
}

func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}

// SharedWithMe keeps the items shared with userID by someone else.
func SharedWithMe[T sharing.Item](items []T, userID string) []T {
	return sharing.Filter(items, userID, sharing.SharedWithMe)
}

// TaskStats are the dashboard counters. Pending counts every task not
// completed.
type TaskStats struct {
	Total     int
	Completed int
	Pending   int
	Overdue   int
}

func Stats(tasks []models.Task, now time.Time) TaskStats {
	s := TaskStats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Status == models.StatusCompleted {
			s.Completed++
		} else {
			s.Pending++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}
	return s
}
