package kanban

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fourgears/internal/models"
)

func TestNextPosition(t *testing.T) {
	assert.Equal(t, int64(1), NextPosition())
	assert.Equal(t, int64(2), NextPosition(1))
	assert.Equal(t, int64(8), NextPosition(3, 7, 2))
	assert.Equal(t, int64(4), NextPosition(3, 3, 3))
	assert.Equal(t, int64(1), NextPosition(0))
}

func TestNextPositionAlwaysSortsLast(t *testing.T) {
	columns := [][]int64{{}, {1}, {5, 1, 9}, {2, 2}, {100, 4}}
	for _, positions := range columns {
		next := NextPosition(positions...)
		for _, p := range positions {
			assert.Greater(t, next, p)
		}
	}
}

func TestDeriveStatus(t *testing.T) {
	cases := map[string]models.TaskStatus{
		"Done":               models.StatusDone,
		"✅ Shipped":          models.StatusDone,
		"In Progress":        models.StatusInProgress,
		"⚡ Doing":            models.StatusInProgress,
		"Review":             models.StatusReview,
		"👀 QA":               models.StatusReview,
		"Backlog":            models.StatusTodo,
		"":                   models.StatusTodo,
		"done":               models.StatusTodo,
		"in progress":        models.StatusTodo,
		"In Progress Review": models.StatusInProgress,
		"Review Done":        models.StatusDone,
	}
	for name, want := range cases {
		assert.Equal(t, want, DeriveStatus(name), "column %q", name)
	}
}

func TestRelocateDerivesStatusAndCompletion(t *testing.T) {
	backlog := models.Column{ID: "c1", Name: "Backlog"}
	done := models.Column{ID: "c4", Name: "Done"}
	review := models.Column{ID: "c3", Name: "Review"}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	task := models.Task{ID: "t1"}
	Place(&task, backlog, now)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Nil(t, task.CompletedAt)

	assert.True(t, Relocate(&task, done, now))
	assert.Equal(t, models.StatusDone, task.Status)
	if assert.NotNil(t, task.CompletedAt) {
		assert.Equal(t, now, *task.CompletedAt)
	}

	// leaving a done column keeps the completion timestamp
	later := now.Add(time.Hour)
	assert.True(t, Relocate(&task, review, later))
	assert.Equal(t, models.StatusReview, task.Status)
	if assert.NotNil(t, task.CompletedAt) {
		assert.Equal(t, now, *task.CompletedAt)
	}
}

func TestRelocateKeepsFirstCompletion(t *testing.T) {
	progress := models.Column{ID: "c2", Name: "In Progress"}
	done := models.Column{ID: "c4", Name: "Done"}
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	task := models.Task{ID: "t1"}
	Place(&task, done, first)
	Relocate(&task, progress, first.Add(time.Hour))
	assert.True(t, Relocate(&task, done, first.Add(24*time.Hour)))
	assert.Equal(t, models.StatusDone, task.Status)
	if assert.NotNil(t, task.CompletedAt) {
		assert.Equal(t, first, *task.CompletedAt)
	}
}

func TestRelocateSameColumnIsNoop(t *testing.T) {
	col := models.Column{ID: "c2", Name: "In Progress"}
	id := "c2"
	task := models.Task{ColumnID: &id, Status: models.StatusReview}

	assert.False(t, Relocate(&task, col, time.Now()))
	assert.Equal(t, models.StatusReview, task.Status)
}

func TestDefaultColumns(t *testing.T) {
	cols := DefaultColumns("p1")
	if assert.Len(t, cols, 4) {
		names := []string{cols[0].Name, cols[1].Name, cols[2].Name, cols[3].Name}
		assert.Equal(t, []string{"Backlog", "In Progress", "Review", "Done"}, names)
		for i, c := range cols {
			assert.Equal(t, int64(i), c.Position)
			assert.Equal(t, "p1", c.ProjectID)
		}
	}
}

func TestBranchName(t *testing.T) {
	id := "3f2a9c1e-1111-2222-3333-444455556666"
	assert.Equal(t, "task-3f2a9c1e-add-login-screen", BranchName(id, "Add login screen!"))
	assert.Equal(t, "task-3f2a9c1e", BranchName(id, "!!!"))

	long := BranchName(id, "Implement the push notification preferences page for fans")
	assert.LessOrEqual(t, len(long), len("task-3f2a9c1e-")+30)
	assert.NotContains(t, long, "--")
	assert.False(t, long[len(long)-1] == '-')
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "team-colors-v2", Slugify("  Team Colors (v2) "))
	assert.Equal(t, "", Slugify("***"))
}

func TestStatusComment(t *testing.T) {
	assert.Equal(t, "Task status changed to **IN_PROGRESS**", StatusComment(models.StatusInProgress))
}

func TestIssueBody(t *testing.T) {
	hours := 4.5
	body := IssueBody(models.Task{ID: "t1", Description: "Wire the roster API", Priority: models.PriorityHigh, EstimatedHours: &hours})
	assert.Contains(t, body, "Wire the roster API")
	assert.Contains(t, body, "Priority: high")
	assert.Contains(t, body, "Estimate: 4.5h")
	assert.Contains(t, body, "Task: t1")
}
