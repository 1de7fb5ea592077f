package reconcile

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoshare/pkg/models"
)

func task(id string, status models.TaskStatus) models.Task {
	return models.Task{
		ID:         id,
		Title:      "task " + id,
		Status:     status,
		Priority:   models.PriorityMedium,
		OwnerID:    "a",
		SharedWith: []string{},
	}
}

func TestApplyInsertPrepends(t *testing.T) {
	rows := []models.Task{task("1", models.StatusPending)}
	got := Apply(rows, Event[models.Task]{Type: models.Insert, New: task("2", models.StatusPending)})

	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "1", got[1].ID)
	assert.Len(t, rows, 1, "input must not be modified")
}

func TestApplyUpdateReplacesInPlace(t *testing.T) {
	rows := []models.Task{task("1", models.StatusPending), task("2", models.StatusPending), task("3", models.StatusPending)}
	ev := Event[models.Task]{Type: models.Update, New: task("2", models.StatusCompleted)}

	got := Apply(rows, ev)
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[1].ID)
	assert.Equal(t, models.StatusCompleted, got[1].Status)
	assert.Equal(t, models.StatusPending, rows[1].Status, "input must not be modified")

	again := Apply(got, ev)
	assert.Equal(t, got, again)
}

func TestApplyUpdateUnknownIDIsNoop(t *testing.T) {
	rows := []models.Task{task("1", models.StatusPending)}
	got := Apply(rows, Event[models.Task]{Type: models.Update, New: task("9", models.StatusCompleted)})
	assert.Equal(t, rows, got)
	assert.True(t, sameSlice(rows, got))
}

func TestApplyDeleteIsIdempotent(t *testing.T) {
	rows := []models.Task{task("1", models.StatusPending), task("2", models.StatusPending)}
	ev := Event[models.Task]{Type: models.Delete, OldID: "1"}

	once := Apply(rows, ev)
	twice := Apply(once, ev)

	require.Len(t, once, 1)
	assert.Equal(t, "2", once[0].ID)
	assert.Equal(t, once, twice)
	assert.True(t, sameSlice(once, twice))
	assert.Len(t, rows, 2)
}

func TestDecode(t *testing.T) {
	at := time.Now()
	c, err := models.NewChange(models.TableTasks, models.Update, task("1", models.StatusCompleted), nil, at)
	require.NoError(t, err)
	ev, err := Decode[models.Task](c)
	require.NoError(t, err)
	assert.Equal(t, models.Update, ev.Type)
	assert.Equal(t, models.StatusCompleted, ev.New.Status)

	c, err = models.NewChange(models.TableTasks, models.Delete, nil, models.RowRef{ID: "1", OwnerID: "a"}, at)
	require.NoError(t, err)
	ev, err = Decode[models.Task](c)
	require.NoError(t, err)
	assert.Equal(t, "1", ev.OldID)

	_, err = Decode[models.Task](models.Change{Type: "TRUNCATE"})
	assert.Error(t, err)
}

func TestRealtimeCompletionUpdatesExistingRow(t *testing.T) {
	list := NewLiveList([]models.Task{task("milk", models.StatusPending), task("bread", models.StatusPending)})

	c, err := models.NewChange(models.TableTasks, models.Update, task("milk", models.StatusCompleted), nil, time.Now())
	require.NoError(t, err)
	ev, err := Decode[models.Task](c)
	require.NoError(t, err)

	assert.True(t, list.Apply(ev))
	rows := list.Snapshot()
	require.Len(t, rows, 2)
	count := 0
	for _, r := range rows {
		if r.ID == "milk" {
			count++
			assert.Equal(t, models.StatusCompleted, r.Status)
		}
	}
	assert.Equal(t, 1, count)
}

func TestLiveListOnChange(t *testing.T) {
	list := NewLiveList[models.Note](nil)
	var mu sync.Mutex
	var seen [][]models.Note
	list.OnChange(func(rows []models.Note) {
		mu.Lock()
		seen = append(seen, rows)
		mu.Unlock()
	})

	list.Apply(Event[models.Note]{Type: models.Insert, New: models.Note{ID: "n1"}})
	list.Apply(Event[models.Note]{Type: models.Delete, OldID: "missing"})
	list.Replace([]models.Note{{ID: "n2"}, {ID: "n3"}})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.Len(t, seen[0], 1)
	assert.Len(t, seen[1], 2)
	assert.Equal(t, 2, list.Len())
}
