package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fourgears/internal/kanban"
	"fourgears/internal/models"
	"fourgears/internal/storage"
)

// TaskInput describes a task to create in a column.
type TaskInput struct {
	ColumnID       string          `json:"column_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Priority       models.Priority `json:"priority"`
	AssigneeID     *string         `json:"assignee_id"`
	DueDate        *time.Time      `json:"due_date"`
	EstimatedHours *float64        `json:"estimated_hours"`
	ActualHours    *float64        `json:"actual_hours"`
	SubmissionID   *string         `json:"submission_id"`
	GitHubSync     bool            `json:"github_sync"`
}

// TaskPatch lists the task fields to change. Nil fields are kept; the Clear
// flags unset the assignee and due date. A new ColumnID moves the task.
type TaskPatch struct {
	ColumnID       *string          `json:"column_id"`
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	Priority       *models.Priority `json:"priority"`
	AssigneeID     *string          `json:"assignee_id"`
	DueDate        *time.Time       `json:"due_date"`
	EstimatedHours *float64         `json:"estimated_hours"`
	ActualHours    *float64         `json:"actual_hours"`
	GitHubSync     *bool            `json:"github_sync"`
	ClearAssignee  bool             `json:"clear_assignee"`
	ClearDueDate   bool             `json:"clear_due_date"`
}

func checkHours(field string, v *float64) error {
	if v != nil && *v < 0 {
		return invalid("%s must not be negative", field)
	}
	return nil
}

// columnOf resolves a column that must belong to projectID.
func (s *Service) columnOf(ctx context.Context, projectID, columnID string) (models.Column, error) {
	col, err := s.store.GetColumn(ctx, columnID)
	if err != nil {
		return models.Column{}, err
	}
	if col.ProjectID != projectID {
		return models.Column{}, fmt.Errorf("column %s in project %s: %w", columnID, projectID, storage.ErrNotFound)
	}
	return col, nil
}

// CreateTask appends a task to a column and derives its status from the
// column name. Mirroring runs afterwards and cannot fail the creation.
func (s *Service) CreateTask(ctx context.Context, projectID string, in TaskInput) (models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, invalid("task title is required")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return models.Task{}, invalid("unknown priority %q", in.Priority)
	}
	if in.ColumnID == "" {
		return models.Task{}, invalid("column_id is required")
	}
	if err := errors.Join(checkHours("estimated_hours", in.EstimatedHours), checkHours("actual_hours", in.ActualHours)); err != nil {
		return models.Task{}, err
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return models.Task{}, err
	}
	col, err := s.columnOf(ctx, projectID, in.ColumnID)
	if err != nil {
		return models.Task{}, err
	}

	task := models.Task{
		ProjectID:      projectID,
		Title:          title,
		Description:    strings.TrimSpace(in.Description),
		Priority:       in.Priority,
		AssigneeID:     in.AssigneeID,
		DueDate:        in.DueDate,
		EstimatedHours: in.EstimatedHours,
		ActualHours:    in.ActualHours,
		SubmissionID:   in.SubmissionID,
		GitHubSync:     in.GitHubSync,
	}
	kanban.Place(&task, col, s.now())

	created, err := s.store.CreateTask(ctx, task)
	if err != nil {
		return models.Task{}, err
	}
	mirrored, _ := s.mirror(ctx, project, created)
	return mirrored, nil
}

// UpdateTask applies patch. Moving to another column appends the task there
// and re-derives its status; a status change is announced on the linked
// issue when mirroring is on.
func (s *Service) UpdateTask(ctx context.Context, id string, patch TaskPatch) (models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	previous := task.Status

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return models.Task{}, invalid("task title is required")
		}
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return models.Task{}, invalid("unknown priority %q", *patch.Priority)
		}
		task.Priority = *patch.Priority
	}
	if err := errors.Join(checkHours("estimated_hours", patch.EstimatedHours), checkHours("actual_hours", patch.ActualHours)); err != nil {
		return models.Task{}, err
	}
	if patch.ClearAssignee && patch.AssigneeID != nil {
		return models.Task{}, invalid("assignee_id and clear_assignee are exclusive")
	}
	if patch.ClearDueDate && patch.DueDate != nil {
		return models.Task{}, invalid("due_date and clear_due_date are exclusive")
	}
	switch {
	case patch.ClearAssignee:
		task.AssigneeID = nil
	case patch.AssigneeID != nil:
		task.AssigneeID = patch.AssigneeID
	}
	switch {
	case patch.ClearDueDate:
		task.DueDate = nil
	case patch.DueDate != nil:
		task.DueDate = patch.DueDate
	}
	if patch.EstimatedHours != nil {
		task.EstimatedHours = patch.EstimatedHours
	}
	if patch.ActualHours != nil {
		task.ActualHours = patch.ActualHours
	}
	if patch.GitHubSync != nil {
		task.GitHubSync = *patch.GitHubSync
	}

	moved := false
	if patch.ColumnID != nil {
		col, err := s.columnOf(ctx, task.ProjectID, *patch.ColumnID)
		if err != nil {
			return models.Task{}, err
		}
		moved = kanban.Relocate(&task, col, s.now())
	}

	updated, err := s.store.UpdateTask(ctx, task, moved)
	if err != nil {
		return models.Task{}, err
	}
	if updated.Status != previous {
		s.announceStatus(ctx, updated)
	}
	return updated, nil
}

// MirrorTask enables mirroring on a task and creates whatever branch or issue
// it is still missing. Unlike the automatic path it reports tracker failures.
func (s *Service) MirrorTask(ctx context.Context, id string) (models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	project, err := s.store.GetProject(ctx, task.ProjectID)
	if err != nil {
		return models.Task{}, err
	}
	if s.tracker == nil {
		return models.Task{}, invalid("github integration is not configured")
	}
	if project.RepoFullName == nil {
		return models.Task{}, invalid("project %s has no repository", project.ID)
	}
	if !task.GitHubSync {
		task.GitHubSync = true
		if task, err = s.store.UpdateTask(ctx, task, false); err != nil {
			return models.Task{}, err
		}
	}
	return s.mirror(ctx, project, task)
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	return s.store.DeleteTask(ctx, id)
}

// mirror creates the branch and issue a task is still missing. Each tracker
// call gets its own timeout. Failures are logged and leave the corresponding
// field unset.
func (s *Service) mirror(ctx context.Context, project models.Project, task models.Task) (models.Task, error) {
	if s.tracker == nil || !task.GitHubSync || project.RepoFullName == nil {
		return task, nil
	}
	repo := *project.RepoFullName

	var (
		branch *string
		issue  *int
		errs   []error
	)
	if task.GitHubBranch == nil {
		name := kanban.BranchName(task.ID, task.Title)
		bctx, cancel := context.WithTimeout(ctx, s.mirrorTimeout)
		err := s.tracker.CreateBranch(bctx, repo, name)
		cancel()
		if err != nil {
			s.mirrorFailed(task.ID, "create_branch", err)
			errs = append(errs, err)
		} else {
			branch = &name
		}
	}
	if task.GitHubIssueNumber == nil {
		ictx, cancel := context.WithTimeout(ctx, s.mirrorTimeout)
		created, err := s.tracker.CreateIssue(ictx, repo, task.Title, kanban.IssueBody(task))
		cancel()
		if err != nil {
			s.mirrorFailed(task.ID, "create_issue", err)
			errs = append(errs, err)
		} else {
			issue = &created.Number
		}
	}
	if branch == nil && issue == nil {
		return task, errors.Join(errs...)
	}

	linked, err := s.store.SetTaskMirror(ctx, task.ID, branch, issue)
	if err != nil {
		s.logger.Error("store mirror metadata", slog.String("task_id", task.ID), slog.String("error", err.Error()))
		return task, errors.Join(append(errs, err)...)
	}
	return linked, errors.Join(errs...)
}

func (s *Service) announceStatus(ctx context.Context, task models.Task) {
	if s.tracker == nil || !task.GitHubSync || task.GitHubIssueNumber == nil {
		return
	}
	project, err := s.store.GetProject(ctx, task.ProjectID)
	if err != nil || project.RepoFullName == nil {
		return
	}
	mctx, cancel := context.WithTimeout(ctx, s.mirrorTimeout)
	defer cancel()
	if err := s.tracker.CreateComment(mctx, *project.RepoFullName, *task.GitHubIssueNumber, kanban.StatusComment(task.Status)); err != nil {
		s.mirrorFailed(task.ID, "create_comment", err)
	}
}

func (s *Service) mirrorFailed(taskID, op string, err error) {
	s.logger.Warn("mirroring failed",
		slog.String("task_id", taskID),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}
