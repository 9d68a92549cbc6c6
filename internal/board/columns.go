package board

import (
	"context"
	"strings"

	"fourgears/internal/models"
)

// ColumnInput describes a column to add. A nil position appends it.
type ColumnInput struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	Position *int64 `json:"position"`
}

// ColumnPatch lists the column fields to change.
type ColumnPatch struct {
	Name     *string `json:"name"`
	Color    *string `json:"color"`
	Position *int64  `json:"position"`
}

// CreateColumn adds a column to an existing project.
func (s *Service) CreateColumn(ctx context.Context, projectID string, in ColumnInput) (models.Column, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Column{}, invalid("column name is required")
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return models.Column{}, err
	}
	c := models.Column{ProjectID: projectID, Name: name, Color: in.Color, Position: -1}
	if in.Position != nil {
		if *in.Position < 0 {
			return models.Column{}, invalid("column position must not be negative")
		}
		c.Position = *in.Position
	}
	return s.store.CreateColumn(ctx, c)
}

// UpdateColumn renames, recolors or repositions a column. Resident tasks keep
// the status they had.
func (s *Service) UpdateColumn(ctx context.Context, id string, patch ColumnPatch) (models.Column, error) {
	c, err := s.store.GetColumn(ctx, id)
	if err != nil {
		return models.Column{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.Column{}, invalid("column name is required")
		}
		c.Name = name
	}
	if patch.Color != nil && *patch.Color != "" {
		c.Color = *patch.Color
	}
	if patch.Position != nil {
		if *patch.Position < 0 {
			return models.Column{}, invalid("column position must not be negative")
		}
		c.Position = *patch.Position
	}
	return s.store.UpdateColumn(ctx, c)
}
