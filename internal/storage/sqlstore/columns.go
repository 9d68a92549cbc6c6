package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"fourgears/internal/kanban"
	"fourgears/internal/models"
)

var columnColumns = []string{"id", "project_id", "name", "position", "color", "created_at"}

func scanColumn(row rowScanner) (models.Column, error) {
	var c models.Column
	err := row.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Position, &c.Color, &c.CreatedAt)
	return c, err
}

// ListColumns returns the columns of a project from left to right.
func (s *Store) ListColumns(ctx context.Context, projectID string) ([]models.Column, error) {
	rows, err := s.query(ctx, s.db, s.sb.Select(columnColumns...).From("kanban_columns").
		Where(sq.Eq{"project_id": projectID}).OrderBy("position ASC", "created_at ASC"))
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	columns := []models.Column{}
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// GetColumn fetches a column by id.
func (s *Store) GetColumn(ctx context.Context, id string) (models.Column, error) {
	return s.getColumn(ctx, s.db, id)
}

func (s *Store) getColumn(ctx context.Context, q querier, id string) (models.Column, error) {
	row, err := s.queryRow(ctx, q, s.sb.Select(columnColumns...).From("kanban_columns").Where(sq.Eq{"id": id}))
	if err != nil {
		return models.Column{}, err
	}
	c, err := scanColumn(row)
	if err != nil {
		return models.Column{}, mapErr(err, "column "+id)
	}
	return c, nil
}

// CreateColumn adds a column to a project. A negative position appends the
// column after the existing ones.
func (s *Store) CreateColumn(ctx context.Context, c models.Column) (models.Column, error) {
	var created models.Column
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if c.Position < 0 {
			row, err := s.queryRow(ctx, tx, s.sb.Select("MAX(position)").From("kanban_columns").
				Where(sq.Eq{"project_id": c.ProjectID}))
			if err != nil {
				return err
			}
			var highest sql.NullInt64
			if err := row.Scan(&highest); err != nil {
				return fmt.Errorf("select column position: %w", err)
			}
			c.Position = 0
			if highest.Valid {
				c.Position = highest.Int64 + 1
			}
		}
		var err error
		created, err = s.insertColumn(ctx, tx, c)
		return err
	})
	return created, err
}

func (s *Store) insertColumn(ctx context.Context, q querier, c models.Column) (models.Column, error) {
	c.ID = uuid.NewString()
	c.Name = strings.TrimSpace(c.Name)
	c.CreatedAt = s.now()
	if c.Color == "" {
		c.Color = "#6b7280"
	}
	_, err := s.exec(ctx, q, s.sb.Insert("kanban_columns").Columns(columnColumns...).
		Values(c.ID, c.ProjectID, c.Name, c.Position, c.Color, c.CreatedAt))
	if err != nil {
		return models.Column{}, mapErr(err, "insert column")
	}
	return c, nil
}

// UpdateColumn renames, recolors or repositions a column. Tasks already in the
// column keep their status; it is only derived when a task moves.
func (s *Store) UpdateColumn(ctx context.Context, c models.Column) (models.Column, error) {
	err := s.execAffecting(ctx, s.db, s.sb.Update("kanban_columns").
		Set("name", strings.TrimSpace(c.Name)).
		Set("position", c.Position).
		Set("color", c.Color).
		Where(sq.Eq{"id": c.ID}), "column "+c.ID)
	if err != nil {
		return models.Column{}, err
	}
	return s.GetColumn(ctx, c.ID)
}

// DeleteColumn removes a column. Its tasks stay in the project without a column.
func (s *Store) DeleteColumn(ctx context.Context, id string) error {
	return s.execAffecting(ctx, s.db, s.sb.Delete("kanban_columns").Where(sq.Eq{"id": id}), "column "+id)
}

// nextTaskPosition computes the append position for a column of a project.
func (s *Store) nextTaskPosition(ctx context.Context, q querier, projectID, columnID string) (int64, error) {
	row, err := s.queryRow(ctx, q, s.sb.Select("MAX(position)").From("kanban_tasks").
		Where(sq.Eq{"project_id": projectID, "column_id": columnID}))
	if err != nil {
		return 0, err
	}
	var position sql.NullInt64
	if err := row.Scan(&position); err != nil {
		return 0, fmt.Errorf("select position: %w", err)
	}
	if position.Valid {
		return kanban.NextPosition(position.Int64), nil
	}
	return kanban.NextPosition(), nil
}
