// Package kanban holds the board rules: where tasks land in a column, which
// status a column implies, and how tasks are named on the external tracker.
package kanban

import (
	"fmt"
	"strings"
	"time"

	"fourgears/internal/models"
)

// NextPosition returns the position for a task appended to a column whose
// current tasks hold the given positions. An empty column starts at 1.
func NextPosition(existing ...int64) int64 {
	if len(existing) == 0 {
		return 1
	}
	highest := existing[0]
	for _, p := range existing[1:] {
		if p > highest {
			highest = p
		}
	}
	return highest + 1
}

type statusRule struct {
	status   models.TaskStatus
	keywords []string
}

// Order matters: "In Progress Review" must resolve to in_progress.
var statusRules = []statusRule{
	{status: models.StatusDone, keywords: []string{"Done", "✅"}},
	{status: models.StatusInProgress, keywords: []string{"Progress", "⚡"}},
	{status: models.StatusReview, keywords: []string{"Review", "👀"}},
}

// DeriveStatus maps a column name to a task status. Matching is
// case-sensitive and the first matching rule wins.
func DeriveStatus(columnName string) models.TaskStatus {
	for _, rule := range statusRules {
		for _, kw := range rule.keywords {
			if strings.Contains(columnName, kw) {
				return rule.status
			}
		}
	}
	return models.StatusTodo
}

// Relocate moves the task into column and re-derives its status. It returns
// false and leaves the task untouched when the column does not change.
// CompletedAt is set the first time the task becomes done and is never
// cleared or overwritten.
func Relocate(task *models.Task, column models.Column, now time.Time) bool {
	if task.ColumnID != nil && *task.ColumnID == column.ID {
		return false
	}
	id := column.ID
	task.ColumnID = &id
	task.Status = DeriveStatus(column.Name)
	if task.Status == models.StatusDone && task.CompletedAt == nil {
		done := now
		task.CompletedAt = &done
	}
	return true
}

// Place sets the initial column and status of a new task.
func Place(task *models.Task, column models.Column, now time.Time) {
	task.ColumnID = nil
	Relocate(task, column, now)
}

// DefaultColumns returns the four columns every new project starts with.
func DefaultColumns(projectID string) []models.Column {
	return []models.Column{
		{ProjectID: projectID, Name: "Backlog", Position: 0, Color: "#6b7280"},
		{ProjectID: projectID, Name: "In Progress", Position: 1, Color: "#2563eb"},
		{ProjectID: projectID, Name: "Review", Position: 2, Color: "#d97706"},
		{ProjectID: projectID, Name: "Done", Position: 3, Color: "#059669"},
	}
}

const (
	shortIDLen    = 8
	branchSlugLen = 30
)

// ShortID is the prefix of a task id used in branch names.
func ShortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// Slugify lower-cases s and collapses every run of non-alphanumerics to '-'.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BranchName builds a unique branch name from the task id and title.
func BranchName(taskID, title string) string {
	slug := Slugify(title)
	if len(slug) > branchSlugLen {
		slug = strings.TrimRight(slug[:branchSlugLen], "-")
	}
	if slug == "" {
		return "task-" + ShortID(taskID)
	}
	return fmt.Sprintf("task-%s-%s", ShortID(taskID), slug)
}

// IssueBody renders the tracker issue body for a task.
func IssueBody(task models.Task) string {
	var b strings.Builder
	if task.Description != "" {
		b.WriteString(task.Description)
		b.WriteString("\n\n")
	}
	b.WriteString("---\n")
	fmt.Fprintf(&b, "Priority: %s\n", task.Priority)
	if task.EstimatedHours != nil {
		fmt.Fprintf(&b, "Estimate: %gh\n", *task.EstimatedHours)
	}
	fmt.Fprintf(&b, "Task: %s\n", task.ID)
	return b.String()
}

// StatusComment announces a status change on the linked issue.
func StatusComment(status models.TaskStatus) string {
	return fmt.Sprintf("Task status changed to **%s**", strings.ToUpper(string(status)))
}
