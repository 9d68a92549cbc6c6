package sqlstore

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"fourgears/internal/models"
)

// ListLabels returns all labels by name.
func (s *Store) ListLabels(ctx context.Context) ([]models.Label, error) {
	rows, err := s.query(ctx, s.db, s.sb.Select("id", "name", "color", "created_at").From("kanban_labels").OrderBy("name ASC"))
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	labels := []models.Label{}
	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Color, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// CreateLabel adds a global label. Names are unique.
func (s *Store) CreateLabel(ctx context.Context, name, color string) (models.Label, error) {
	l := models.Label{ID: uuid.NewString(), Name: strings.TrimSpace(name), Color: color, CreatedAt: s.now()}
	if l.Color == "" {
		l.Color = "#6b7280"
	}
	_, err := s.exec(ctx, s.db, s.sb.Insert("kanban_labels").Columns("id", "name", "color", "created_at").
		Values(l.ID, l.Name, l.Color, l.CreatedAt))
	if err != nil {
		return models.Label{}, mapErr(err, "insert label "+l.Name)
	}
	return l, nil
}

// DeleteLabel removes a label and detaches it from every task.
func (s *Store) DeleteLabel(ctx context.Context, id string) error {
	return s.execAffecting(ctx, s.db, s.sb.Delete("kanban_labels").Where(sq.Eq{"id": id}), "label "+id)
}

// AttachLabel links a label to a task.
func (s *Store) AttachLabel(ctx context.Context, taskID, labelID string) error {
	_, err := s.exec(ctx, s.db, s.sb.Insert("kanban_task_labels").Columns("task_id", "label_id").Values(taskID, labelID))
	return mapErr(err, fmt.Sprintf("attach label %s to task %s", labelID, taskID))
}

// DetachLabel unlinks a label from a task.
func (s *Store) DetachLabel(ctx context.Context, taskID, labelID string) error {
	return s.execAffecting(ctx, s.db, s.sb.Delete("kanban_task_labels").
		Where(sq.Eq{"task_id": taskID, "label_id": labelID}), fmt.Sprintf("label %s on task %s", labelID, taskID))
}

// labelsFor loads labels keyed by task id for the tasks matching where. The
// task table is aliased as t.
func (s *Store) labelsFor(ctx context.Context, where sq.Sqlizer) (map[string][]models.Label, error) {
	rows, err := s.query(ctx, s.db, s.sb.Select("tl.task_id", "l.id", "l.name", "l.color", "l.created_at").
		From("kanban_task_labels tl").
		Join("kanban_labels l ON l.id = tl.label_id").
		Join("kanban_tasks t ON t.id = tl.task_id").
		Where(where).
		OrderBy("l.name ASC"))
	if err != nil {
		return nil, fmt.Errorf("list task labels: %w", err)
	}
	defer rows.Close()

	out := map[string][]models.Label{}
	for rows.Next() {
		var (
			taskID string
			l      models.Label
		)
		if err := rows.Scan(&taskID, &l.ID, &l.Name, &l.Color, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task label: %w", err)
		}
		out[taskID] = append(out[taskID], l)
	}
	return out, rows.Err()
}
