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

var projectColumns = []string{
	"id", "name", "description", "submission_id", "github_repo", "github_repo_url",
	"status", "created_by", "created_at", "updated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (models.Project, error) {
	var (
		p                                    models.Project
		submission, repo, repoURL, createdBy sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &submission, &repo, &repoURL,
		&p.Status, &createdBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.Project{}, err
	}
	p.SubmissionID = stringPtr(submission)
	p.RepoFullName = stringPtr(repo)
	p.RepoURL = stringPtr(repoURL)
	p.CreatedBy = stringPtr(createdBy)
	return p, nil
}

// ListProjects retrieves all projects ordered by creation date.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.query(ctx, s.db, s.sb.Select(projectColumns...).From("kanban_projects").OrderBy("created_at ASC", "id ASC"))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject fetches a single project by id.
func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	return s.getProject(ctx, s.db, id)
}

func (s *Store) getProject(ctx context.Context, q querier, id string) (models.Project, error) {
	row, err := s.queryRow(ctx, q, s.sb.Select(projectColumns...).From("kanban_projects").Where(sq.Eq{"id": id}))
	if err != nil {
		return models.Project{}, err
	}
	p, err := scanProject(row)
	if err != nil {
		return models.Project{}, mapErr(err, "project "+id)
	}
	return p, nil
}

// CreateProject persists a new project together with its initial columns in
// one transaction. Column ids are assigned here.
func (s *Store) CreateProject(ctx context.Context, p models.Project, columns []models.Column) (models.Project, []models.Column, error) {
	now := s.now()
	p.ID = uuid.NewString()
	p.Name = strings.TrimSpace(p.Name)
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
	p.CreatedAt, p.UpdatedAt = now, now

	created := make([]models.Column, 0, len(columns))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := s.exec(ctx, tx, s.sb.Insert("kanban_projects").Columns(projectColumns...).Values(
			p.ID, p.Name, p.Description, nullString(p.SubmissionID), nullString(p.RepoFullName),
			nullString(p.RepoURL), string(p.Status), nullString(p.CreatedBy), p.CreatedAt, p.UpdatedAt,
		))
		if err != nil {
			return mapErr(err, "insert project")
		}
		for _, c := range columns {
			c.ProjectID = p.ID
			c, err = s.insertColumn(ctx, tx, c)
			if err != nil {
				return err
			}
			created = append(created, c)
		}
		return nil
	})
	if err != nil {
		return models.Project{}, nil, err
	}
	return p, created, nil
}

// UpdateProject writes the mutable project fields.
func (s *Store) UpdateProject(ctx context.Context, p models.Project) (models.Project, error) {
	err := s.execAffecting(ctx, s.db, s.sb.Update("kanban_projects").SetMap(map[string]any{
		"name":            strings.TrimSpace(p.Name),
		"description":     p.Description,
		"status":          string(p.Status),
		"github_repo":     nullString(p.RepoFullName),
		"github_repo_url": nullString(p.RepoURL),
		"updated_at":      s.now(),
	}).Where(sq.Eq{"id": p.ID}), "project "+p.ID)
	if err != nil {
		return models.Project{}, err
	}
	return s.GetProject(ctx, p.ID)
}

// DeleteProject removes a project along with its columns, tasks and quote.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return s.execAffecting(ctx, s.db, s.sb.Delete("kanban_projects").Where(sq.Eq{"id": id}), "project "+id)
}
