package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"fourgears/internal/models"
)

var taskColumns = []string{
	"id", "project_id", "column_id", "title", "description", "priority", "status", "position",
	"assignee_id", "due_date", "estimated_hours", "actual_hours", "submission_id",
	"github_branch", "github_issue_number", "github_sync", "created_at", "updated_at", "completed_at",
}

func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

func scanTask(row rowScanner) (models.Task, error) {
	var (
		t                                    models.Task
		column, assignee, submission, branch sql.NullString
		due, completed                       sql.NullTime
		estimated, actual                    sql.NullFloat64
		issue                                sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.ProjectID, &column, &t.Title, &t.Description, &t.Priority, &t.Status,
		&t.Position, &assignee, &due, &estimated, &actual, &submission, &branch, &issue,
		&t.GitHubSync, &t.CreatedAt, &t.UpdatedAt, &completed)
	if err != nil {
		return models.Task{}, err
	}
	t.ColumnID = stringPtr(column)
	t.AssigneeID = stringPtr(assignee)
	t.DueDate = timePtr(due)
	t.EstimatedHours = floatPtr(estimated)
	t.ActualHours = floatPtr(actual)
	t.SubmissionID = stringPtr(submission)
	t.GitHubBranch = stringPtr(branch)
	t.GitHubIssueNumber = intPtr(issue)
	t.CompletedAt = timePtr(completed)
	t.Labels = []models.Label{}
	return t, nil
}

// ListTasks returns the tasks of a project ordered by column, then by position
// within the column. Equal positions fall back to creation order.
func (s *Store) ListTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	rows, err := s.query(ctx, s.db, s.sb.Select(prefixed("t", taskColumns)...).
		From("kanban_tasks t").
		LeftJoin("kanban_columns c ON c.id = t.column_id").
		Where(sq.Eq{"t.project_id": projectID}).
		OrderBy("COALESCE(c.position, -1) ASC", "t.position ASC", "t.created_at ASC", "t.id ASC"))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	index := map[string]int{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		index[t.ID] = len(tasks)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	labels, err := s.labelsFor(ctx, sq.Eq{"t.project_id": projectID})
	if err != nil {
		return nil, err
	}
	for taskID, ls := range labels {
		if i, ok := index[taskID]; ok {
			tasks[i].Labels = ls
		}
	}
	return tasks, nil
}

// GetTask retrieves a task and its labels.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	row, err := s.queryRow(ctx, s.db, s.sb.Select(taskColumns...).From("kanban_tasks").Where(sq.Eq{"id": id}))
	if err != nil {
		return models.Task{}, err
	}
	t, err := scanTask(row)
	if err != nil {
		return models.Task{}, mapErr(err, "task "+id)
	}
	labels, err := s.labelsFor(ctx, sq.Eq{"t.id": id})
	if err != nil {
		return models.Task{}, err
	}
	if ls, ok := labels[id]; ok {
		t.Labels = ls
	}
	return t, nil
}

// CreateTask inserts a task at the end of its column. The position is read
// and written in the same transaction.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	now := s.now()
	t.ID = uuid.NewString()
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	t.CreatedAt, t.UpdatedAt = now, now

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if t.ColumnID != nil {
			pos, err := s.nextTaskPosition(ctx, tx, t.ProjectID, *t.ColumnID)
			if err != nil {
				return err
			}
			t.Position = pos
		}
		_, err := s.exec(ctx, tx, s.sb.Insert("kanban_tasks").Columns(taskColumns...).Values(
			t.ID, t.ProjectID, nullString(t.ColumnID), t.Title, t.Description, string(t.Priority),
			string(t.Status), t.Position, nullString(t.AssigneeID), nullTime(t.DueDate),
			nullFloat(t.EstimatedHours), nullFloat(t.ActualHours), nullString(t.SubmissionID),
			nullString(t.GitHubBranch), nullInt(t.GitHubIssueNumber), t.GitHubSync,
			t.CreatedAt, t.UpdatedAt, nullTime(t.CompletedAt),
		))
		return mapErr(err, "insert task")
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, t.ID)
}

// UpdateTask writes the task's mutable fields. When moved is set the task is
// appended to the end of its (new) column.
func (s *Store) UpdateTask(ctx context.Context, t models.Task, moved bool) (models.Task, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if moved && t.ColumnID != nil {
			pos, err := s.nextTaskPosition(ctx, tx, t.ProjectID, *t.ColumnID)
			if err != nil {
				return err
			}
			t.Position = pos
		}
		return s.execAffecting(ctx, tx, s.sb.Update("kanban_tasks").SetMap(map[string]any{
			"column_id":       nullString(t.ColumnID),
			"title":           strings.TrimSpace(t.Title),
			"description":     strings.TrimSpace(t.Description),
			"priority":        string(t.Priority),
			"status":          string(t.Status),
			"position":        t.Position,
			"assignee_id":     nullString(t.AssigneeID),
			"due_date":        nullTime(t.DueDate),
			"estimated_hours": nullFloat(t.EstimatedHours),
			"actual_hours":    nullFloat(t.ActualHours),
			"github_sync":     t.GitHubSync,
			"completed_at":    nullTime(t.CompletedAt),
			"updated_at":      s.now(),
		}).Where(sq.Eq{"id": t.ID}), "task "+t.ID)
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, t.ID)
}

// SetTaskMirror records the tracker branch and/or issue linked to a task.
// Nil arguments leave the stored value unchanged.
func (s *Store) SetTaskMirror(ctx context.Context, id string, branch *string, issue *int) (models.Task, error) {
	changes := map[string]any{}
	if branch != nil {
		changes["github_branch"] = *branch
	}
	if issue != nil {
		changes["github_issue_number"] = *issue
	}
	if len(changes) == 0 {
		return s.GetTask(ctx, id)
	}
	changes["updated_at"] = s.now()
	if err := s.execAffecting(ctx, s.db, s.sb.Update("kanban_tasks").SetMap(changes).Where(sq.Eq{"id": id}), "task "+id); err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.execAffecting(ctx, s.db, s.sb.Delete("kanban_tasks").Where(sq.Eq{"id": id}), "task "+id)
}
