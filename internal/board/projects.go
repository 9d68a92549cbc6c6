package board

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fourgears/internal/kanban"
	"fourgears/internal/models"
)

// ProjectInput describes a project to create.
type ProjectInput struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	SubmissionID *string `json:"submission_id"`
	CreateRepo   bool    `json:"create_repo"`
	PublicRepo   bool    `json:"public_repo"`
}

// ProjectPatch lists the project fields to change. Nil fields are kept.
type ProjectPatch struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Status      *models.ProjectStatus `json:"status"`
}

// CreateProject creates a project with the four default columns. When a
// repository is requested it is created first and its failure aborts the
// whole operation.
func (s *Service) CreateProject(ctx context.Context, in ProjectInput, createdBy *string) (models.Project, []models.Column, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Project{}, nil, invalid("project name is required")
	}

	p := models.Project{
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		SubmissionID: in.SubmissionID,
		Status:       models.ProjectActive,
		CreatedBy:    createdBy,
	}

	if in.CreateRepo {
		if s.tracker == nil {
			return models.Project{}, nil, invalid("github integration is not configured")
		}
		repoName := kanban.Slugify(name)
		if repoName == "" {
			return models.Project{}, nil, invalid("project name %q does not yield a repository name", name)
		}
		rctx, cancel := context.WithTimeout(ctx, s.mirrorTimeout)
		repo, err := s.tracker.CreateRepository(rctx, repoName, p.Description, !in.PublicRepo)
		cancel()
		if err != nil {
			s.logger.Error("repository creation failed", slog.String("repo", repoName), slog.String("error", err.Error()))
			return models.Project{}, nil, fmt.Errorf("create repository: %w", err)
		}
		p.RepoFullName = &repo.FullName
		p.RepoURL = &repo.HTMLURL
	}

	project, columns, err := s.store.CreateProject(ctx, p, kanban.DefaultColumns(""))
	if err != nil {
		return models.Project{}, nil, err
	}
	s.logger.Info("project created", slog.String("project_id", project.ID), slog.Bool("repo", project.RepoFullName != nil))
	return project, columns, nil
}

// UpdateProject edits a project. Status may only leave active, towards
// archived or completed.
func (s *Service) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (models.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return models.Project{}, invalid("project name is required")
		}
		p.Name = name
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil && *patch.Status != p.Status {
		next := *patch.Status
		if !next.Valid() {
			return models.Project{}, invalid("unknown project status %q", next)
		}
		if p.Status != models.ProjectActive || next == models.ProjectActive {
			return models.Project{}, invalid("project status cannot change from %s to %s", p.Status, next)
		}
		p.Status = next
	}
	return s.store.UpdateProject(ctx, p)
}
