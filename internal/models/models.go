package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus is the lifecycle state of a Kanban project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectArchived  ProjectStatus = "archived"
	ProjectCompleted ProjectStatus = "completed"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectArchived, ProjectCompleted:
		return true
	}
	return false
}

// Project describes a Kanban board that groups columns and tasks.
type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	SubmissionID *string       `json:"submission_id"`
	RepoFullName *string       `json:"github_repo"`
	RepoURL      *string       `json:"github_repo_url"`
	Status       ProjectStatus `json:"status"`
	CreatedBy    *string       `json:"created_by"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Column is an ordered workflow stage within a project.
type Column struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Position  int64     `json:"position"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskStatus is derived from the column a task lives in.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusReview     TaskStatus = "review"
	StatusDone       TaskStatus = "done"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// Priority ranks tasks; high and urgent tasks carry a surcharge in quotes.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task represents a single card on the board.
type Task struct {
	ID                string     `json:"id"`
	ProjectID         string     `json:"project_id"`
	ColumnID          *string    `json:"column_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Priority          Priority   `json:"priority"`
	Status            TaskStatus `json:"status"`
	Position          int64      `json:"position"`
	AssigneeID        *string    `json:"assignee_id"`
	DueDate           *time.Time `json:"due_date"`
	EstimatedHours    *float64   `json:"estimated_hours"`
	ActualHours       *float64   `json:"actual_hours"`
	SubmissionID      *string    `json:"submission_id"`
	GitHubBranch      *string    `json:"github_branch"`
	GitHubIssueNumber *int       `json:"github_issue_number"`
	GitHubSync        bool       `json:"github_sync"`
	Labels            []Label    `json:"labels"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CompletedAt       *time.Time `json:"completed_at"`
}

// Label is a global tag that can be attached to any task.
type Label struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// QuoteStatus tracks the customer's view of a quote.
type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "draft"
	QuoteSent     QuoteStatus = "sent"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
)

// Valid reports whether s is a known quote status.
func (s QuoteStatus) Valid() bool {
	switch s {
	case QuoteDraft, QuoteSent, QuoteAccepted, QuoteRejected:
		return true
	}
	return false
}

// Quote is the priced offer for a project. There is at most one per project.
type Quote struct {
	ID                      string          `json:"id"`
	ProjectID               string          `json:"project_id"`
	SubmissionID            *string         `json:"submission_id"`
	TotalAmount             decimal.Decimal `json:"total_amount"`
	HypotheticalMarketPrice decimal.Decimal `json:"hypothetical_market_price"`
	Notes                   string          `json:"notes"`
	Status                  QuoteStatus     `json:"status"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// SubmissionStatus tracks admin triage of a submitted app configuration.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionReviewing SubmissionStatus = "reviewing"
	SubmissionApproved  SubmissionStatus = "approved"
	SubmissionRejected  SubmissionStatus = "rejected"
)

// Valid reports whether s is a known submission status.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionReviewing, SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}

// Submission is a customer's app configuration sent in for review.
type Submission struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	TeamName   string           `json:"team_name"`
	Config     json.RawMessage  `json:"config"`
	Status     SubmissionStatus `json:"status"`
	AdminNotes string           `json:"admin_notes"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Role grants access to the admin surface.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Profile is an authenticated account.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsAdmin reports whether the profile may use admin endpoints.
func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// InviteCode gates signup. Each code can be redeemed once.
type InviteCode struct {
	Code      string     `json:"code"`
	CreatedBy *string    `json:"created_by"`
	UsedBy    *string    `json:"used_by"`
	UsedAt    *time.Time `json:"used_at"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}
