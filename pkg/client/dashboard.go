package client

import (
	"context"
	"sync"
	"time"

	"todoshare/pkg/models"
)

const (
	recentTasks = 5
	recentNotes = 3
)

// Dashboard is the overview of both lists. Each list carries its own
// error: one failing never hides the other.
type Dashboard struct {
	Tasks    []models.Task
	TasksErr error
	Notes    []models.Note
	NotesErr error
	Stats    TaskStats
}

// RecentTasks is the head of the task list shown on the dashboard.
func (d Dashboard) RecentTasks() []models.Task {
	return d.Tasks[:min(len(d.Tasks), recentTasks)]
}

func (d Dashboard) RecentNotes() []models.Note {
	return d.Notes[:min(len(d.Notes), recentNotes)]
}

// Err is the first list error, if any.
func (d Dashboard) Err() error {
	if d.TasksErr != nil {
		return d.TasksErr
	}
	return d.NotesErr
}

// LoadDashboard fetches tasks and notes concurrently and keeps whatever
// succeeded.
func LoadDashboard(ctx context.Context, s *Session) Dashboard {
	var d Dashboard
	var wg sync.WaitGroup
	wg.Go(func() { d.Tasks, d.TasksErr = s.Tasks().List(ctx) })
	wg.Go(func() { d.Notes, d.NotesErr = s.Notes().List(ctx) })
	wg.Wait()
	if d.Tasks == nil {
		d.Tasks = []models.Task{}
	}
	if d.Notes == nil {
		d.Notes = []models.Note{}
	}
	d.Stats = Stats(d.Tasks, time.Now())
	return d
}
