package sqlstore

import "strings"

// schema returns idempotent DDL for the given driver. Column types that differ
// between SQLite and Postgres are written as {ts} and {real}.
func schema(driver string) []string {
	ts, float := "TIMESTAMP", "REAL"
	if driver == DriverPostgres {
		ts, float = "TIMESTAMPTZ", "DOUBLE PRECISION"
	}
	r := strings.NewReplacer("{ts}", ts, "{real}", float)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            display_name TEXT NOT NULL DEFAULT '',
            role TEXT NOT NULL DEFAULT 'user',
            token_hash TEXT NOT NULL UNIQUE,
            created_at {ts} NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS invite_codes (
            code TEXT PRIMARY KEY,
            created_by TEXT REFERENCES profiles(id) ON DELETE SET NULL,
            used_by TEXT REFERENCES profiles(id) ON DELETE SET NULL,
            used_at {ts},
            expires_at {ts},
            created_at {ts} NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS submissions (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            team_name TEXT NOT NULL,
            config TEXT NOT NULL DEFAULT '{}',
            status TEXT NOT NULL DEFAULT 'pending',
            admin_notes TEXT NOT NULL DEFAULT '',
            created_at {ts} NOT NULL,
            updated_at {ts} NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS kanban_projects (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            submission_id TEXT REFERENCES submissions(id) ON DELETE SET NULL,
            github_repo TEXT,
            github_repo_url TEXT,
            status TEXT NOT NULL DEFAULT 'active',
            created_by TEXT REFERENCES profiles(id) ON DELETE SET NULL,
            created_at {ts} NOT NULL,
            updated_at {ts} NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS kanban_columns (
            id TEXT PRIMARY KEY,
            project_id TEXT NOT NULL REFERENCES kanban_projects(id) ON DELETE CASCADE,
            name TEXT NOT NULL,
            position BIGINT NOT NULL DEFAULT 0,
            color TEXT NOT NULL DEFAULT '#6b7280',
            created_at {ts} NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS kanban_tasks (
            id TEXT PRIMARY KEY,
            project_id TEXT NOT NULL REFERENCES kanban_projects(id) ON DELETE CASCADE,
            column_id TEXT REFERENCES kanban_columns(id) ON DELETE SET NULL,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            priority TEXT NOT NULL DEFAULT 'medium',
            status TEXT NOT NULL DEFAULT 'todo',
            position BIGINT NOT NULL DEFAULT 0,
            assignee_id TEXT REFERENCES profiles(id) ON DELETE SET NULL,
            due_date {ts},
            estimated_hours {real},
            actual_hours {real},
            submission_id TEXT REFERENCES submissions(id) ON DELETE SET NULL,
            github_branch TEXT,
            github_issue_number INTEGER,
            github_sync BOOLEAN NOT NULL DEFAULT FALSE,
            created_at {ts} NOT NULL,
            updated_at {ts} NOT NULL,
            completed_at {ts}
        );`,
		`CREATE TABLE IF NOT EXISTS kanban_labels (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL UNIQUE,
            color TEXT NOT NULL DEFAULT '#6b7280',
            created_at {ts} NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS kanban_task_labels (
            task_id TEXT NOT NULL REFERENCES kanban_tasks(id) ON DELETE CASCADE,
            label_id TEXT NOT NULL REFERENCES kanban_labels(id) ON DELETE CASCADE,
            PRIMARY KEY (task_id, label_id)
        );`,
		`CREATE TABLE IF NOT EXISTS quotes (
            id TEXT PRIMARY KEY,
            project_id TEXT NOT NULL UNIQUE REFERENCES kanban_projects(id) ON DELETE CASCADE,
            submission_id TEXT REFERENCES submissions(id) ON DELETE SET NULL,
            total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
            hypothetical_market_price NUMERIC(12,2) NOT NULL DEFAULT 0,
            notes TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'draft',
            created_at {ts} NOT NULL,
            updated_at {ts} NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS admin_settings (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at {ts} NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_columns_project ON kanban_columns(project_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project_column ON kanban_tasks(project_id, column_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions(user_id);`,
	}

	out := make([]string, len(stmts))
	for i, stmt := range stmts {
		out[i] = r.Replace(stmt)
	}
	return out
}
