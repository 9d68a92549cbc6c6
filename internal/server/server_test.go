package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fourgears/internal/board"
	"fourgears/internal/models"
	"fourgears/internal/quote"
	"fourgears/internal/secrets"
	"fourgears/internal/server"
	"fourgears/internal/storage/sqlstore"
)

type harness struct {
	t          *testing.T
	srv        *server.Server
	store      *sqlstore.Store
	adminToken string
}

func newHarness(t *testing.T, staticDir, webhookSecret string) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "api.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	box, err := secrets.NewBox("test-secret")
	require.NoError(t, err)

	svc := board.New(store, board.Options{Pricing: quote.DefaultPricing(), Logger: logger})
	srv := server.New(server.Options{
		Board:         svc,
		Vault:         secrets.NewVault(store, box),
		Logger:        logger,
		StaticDir:     staticDir,
		WebhookSecret: webhookSecret,
	})

	_, token, err := store.CreateProfile(context.Background(), "admin@4gears.dev", "Admin", models.RoleAdmin)
	require.NoError(t, err)
	return &harness{t: t, srv: srv, store: store, adminToken: token}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type projectResponse struct {
	Project models.Project  `json:"project"`
	Columns []models.Column `json:"columns"`
}

type taskResponse struct {
	Task models.Task `json:"task"`
}

type quoteResponse struct {
	Quote models.Quote `json:"quote"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *harness) createProject(name string, extra map[string]any) projectResponse {
	h.t.Helper()
	body := map[string]any{"name": name}
	for k, v := range extra {
		body[k] = v
	}
	rec := h.do(http.MethodPost, "/api/projects", h.adminToken, body)
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[projectResponse](h.t, rec)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, "", "")
	rec := h.do(http.MethodGet, "/api/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, sqlstore.DriverSQLite, body["driver"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t, "", "")

	rec := h.do(http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "unauthorized")

	rec = h.do(http.MethodGet, "/api/projects", "fg_notarealtoken", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, userToken, err := h.store.CreateProfile(context.Background(), "team@tigers.dev", "Tigers", models.RoleUser)
	require.NoError(t, err)
	rec = h.do(http.MethodGet, "/api/projects", userToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/api/me", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[struct {
		Profile models.Profile `json:"profile"`
	}](t, rec)
	assert.Equal(t, "team@tigers.dev", me.Profile.Email)
	assert.Equal(t, models.RoleUser, me.Profile.Role)
}

func TestBoardFlow(t *testing.T) {
	h := newHarness(t, "", "")
	created := h.createProject("Tigers App", nil)
	require.Len(t, created.Columns, 4)
	backlog, done := created.Columns[0], created.Columns[3]
	assert.Equal(t, "Backlog", backlog.Name)
	assert.Equal(t, "Done", done.Name)
	assert.Equal(t, models.ProjectActive, created.Project.Status)

	rec := h.do(http.MethodPost, "/api/projects/"+created.Project.ID+"/tasks", h.adminToken, map[string]any{
		"column_id":       backlog.ID,
		"title":           "Design logo",
		"priority":        "medium",
		"estimated_hours": 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode[taskResponse](t, rec).Task
	assert.Equal(t, int64(1), task.Position)
	assert.Equal(t, models.StatusTodo, task.Status)

	rec = h.do(http.MethodPut, "/api/tasks/"+task.ID, h.adminToken, map[string]any{"column_id": done.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[taskResponse](t, rec).Task
	assert.Equal(t, models.StatusDone, moved.Status)
	assert.NotNil(t, moved.CompletedAt)
	assert.Equal(t, int64(1), moved.Position)

	rec = h.do(http.MethodGet, "/api/projects/"+created.Project.ID+"/tasks", h.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Tasks []models.Task `json:"tasks"`
	}](t, rec)
	require.Len(t, list.Tasks, 1)

	rec = h.do(http.MethodGet, "/api/projects/"+created.Project.ID+"/quote", h.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	est := decode[struct {
		Estimate quote.Estimate `json:"estimate"`
		Quote    *models.Quote  `json:"quote"`
	}](t, rec)
	assert.True(t, est.Estimate.MarketPrice.Equal(decimal.NewFromInt(4700)), est.Estimate.MarketPrice.String())
	assert.True(t, est.Estimate.CalculatedPrice.Equal(decimal.NewFromInt(2150)), est.Estimate.CalculatedPrice.String())
	assert.Nil(t, est.Quote)

	rec = h.do(http.MethodPut, "/api/projects/"+created.Project.ID+"/quote", h.adminToken, map[string]any{"notes": "draft"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[quoteResponse](t, rec).Quote
	assert.True(t, saved.TotalAmount.Equal(decimal.NewFromInt(2150)))
	assert.Equal(t, models.QuoteDraft, saved.Status)

	rec = h.do(http.MethodDelete, "/api/tasks/"+task.ID, h.adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodGet, "/api/tasks/"+task.ID, h.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestColumnsAndProjectStatus(t *testing.T) {
	h := newHarness(t, "", "")
	created := h.createProject("Board", nil)
	id := created.Project.ID

	rec := h.do(http.MethodPost, "/api/projects/"+id+"/columns", h.adminToken, map[string]any{"name": "QA"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	col := decode[struct {
		Column models.Column `json:"column"`
	}](t, rec).Column
	assert.Equal(t, int64(4), col.Position)

	rec = h.do(http.MethodPut, "/api/columns/"+col.ID, h.adminToken, map[string]any{"name": "Quality"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPut, "/api/projects/"+id, h.adminToken, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.ProjectCompleted, decode[projectResponse](t, rec).Project.Status)

	rec = h.do(http.MethodPut, "/api/projects/"+id, h.adminToken, map[string]any{"status": "active"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodDelete, "/api/columns/"+col.ID, h.adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodDelete, "/api/projects/"+id, h.adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodGet, "/api/projects/"+id, h.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationAndNotFound(t *testing.T) {
	h := newHarness(t, "", "")
	created := h.createProject("Validation", nil)

	rec := h.do(http.MethodPost, "/api/projects", h.adminToken, map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/projects/"+created.Project.ID+"/tasks", h.adminToken, map[string]any{
		"column_id": created.Columns[0].ID,
		"title":     "",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/projects/"+created.Project.ID+"/tasks", h.adminToken, map[string]any{
		"column_id": "missing",
		"title":     "Orphan",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodGet, "/api/projects/missing/tasks", h.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodPut, "/api/tasks/missing", h.adminToken, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+h.adminToken)
	out := httptest.NewRecorder()
	h.srv.Engine().ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)

	rec = h.do(http.MethodGet, "/api/nope", h.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "endpoint not found", decode[errorResponse](t, rec).Error)
}

func TestLabels(t *testing.T) {
	h := newHarness(t, "", "")
	created := h.createProject("Labels", nil)

	rec := h.do(http.MethodPost, "/api/labels", h.adminToken, map[string]any{"name": "bug", "color": "#ff0000"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	label := decode[struct {
		Label models.Label `json:"label"`
	}](t, rec).Label

	rec = h.do(http.MethodPost, "/api/labels", h.adminToken, map[string]any{"name": "bug"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodPost, "/api/projects/"+created.Project.ID+"/tasks", h.adminToken, map[string]any{
		"column_id": created.Columns[0].ID,
		"title":     "Fix crash",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decode[taskResponse](t, rec).Task

	rec = h.do(http.MethodPut, "/api/tasks/"+task.ID+"/labels/"+label.ID, h.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/api/tasks/"+task.ID, h.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[taskResponse](t, rec).Task
	require.Len(t, got.Labels, 1)
	assert.Equal(t, "bug", got.Labels[0].Name)

	rec = h.do(http.MethodDelete, "/api/tasks/"+task.ID+"/labels/"+label.ID, h.adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodDelete, "/api/labels/"+label.ID, h.adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodDelete, "/api/labels/"+label.ID, h.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignupAndSubmissions(t *testing.T) {
	h := newHarness(t, "", "")

	rec := h.do(http.MethodPost, "/api/invite-codes", h.adminToken, map[string]any{"expires_in_hours": 24})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	invite := decode[struct {
		InviteCode models.InviteCode `json:"invite_code"`
	}](t, rec).InviteCode
	require.NotNil(t, invite.ExpiresAt)

	rec = h.do(http.MethodPost, "/api/auth/signup", "", map[string]any{"code": invite.Code, "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/auth/signup", "", map[string]any{
		"code":         invite.Code,
		"email":        "Team@Tigers.dev",
		"display_name": "Tigers",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	signup := decode[struct {
		Profile models.Profile `json:"profile"`
		Token   string         `json:"token"`
	}](t, rec)
	assert.Equal(t, "team@tigers.dev", signup.Profile.Email)
	assert.True(t, strings.HasPrefix(signup.Token, "fg_"))

	rec = h.do(http.MethodPost, "/api/auth/signup", "", map[string]any{"code": invite.Code, "email": "other@tigers.dev"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodPost, "/api/submissions", signup.Token, map[string]any{
		"team_name": "Tigers",
		"config":    map[string]any{"colors": []string{"orange"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sub := decode[struct {
		Submission models.Submission `json:"submission"`
	}](t, rec).Submission
	assert.Equal(t, models.SubmissionPending, sub.Status)

	_, otherToken, err := h.store.CreateProfile(context.Background(), "lions@club.dev", "Lions", models.RoleUser)
	require.NoError(t, err)
	rec = h.do(http.MethodGet, "/api/submissions", otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[struct {
		Submissions []models.Submission `json:"submissions"`
	}](t, rec).Submissions)
	rec = h.do(http.MethodGet, "/api/submissions/"+sub.ID, otherToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/api/submissions", h.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct {
		Submissions []models.Submission `json:"submissions"`
	}](t, rec).Submissions, 1)

	rec = h.do(http.MethodPut, "/api/submissions/"+sub.ID+"/status", h.adminToken, map[string]any{
		"status":      "approved",
		"admin_notes": "looks good",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The customer accepts the quote for the project built from their submission.
	created := h.createProject("Tigers App", map[string]any{"submission_id": sub.ID})
	rec = h.do(http.MethodPut, "/api/projects/"+created.Project.ID+"/quote", h.adminToken, map[string]any{"status": "sent"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	q := decode[quoteResponse](t, rec).Quote

	rec = h.do(http.MethodPost, "/api/quotes/"+q.ID+"/accept", otherToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/api/quotes/"+q.ID, signup.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/api/quotes/"+q.ID+"/accept", signup.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.QuoteAccepted, decode[quoteResponse](t, rec).Quote.Status)
}

func TestGitHubTokenSetting(t *testing.T) {
	h := newHarness(t, "", "")

	rec := h.do(http.MethodGet, "/api/settings/github-token", h.adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, false, body["configured"])

	rec = h.do(http.MethodPut, "/api/settings/github-token", h.adminToken, map[string]any{"token": "ghp_abcdefghijklmnop1234"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode[map[string]any](t, rec)
	assert.Equal(t, true, body["configured"])
	masked, _ := body["token"].(string)
	assert.True(t, strings.HasSuffix(masked, "1234"))
	assert.NotContains(t, masked, "abcdef")

	raw, err := h.store.GetSetting(context.Background(), secrets.GitHubTokenKey)
	require.NoError(t, err)
	assert.NotContains(t, raw, "ghp_")
}

func TestNotifyAdminWebhook(t *testing.T) {
	h := newHarness(t, "", "s3cret")
	payload := map[string]any{
		"type":   "INSERT",
		"table":  "app_submissions",
		"record": map[string]any{"id": "sub-1", "team_name": "Tigers"},
	}

	rec := h.do(http.MethodPost, "/api/functions/notify-admin", "", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/functions/notify-admin", bytes.NewReader(mustJSON(t, payload)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Secret", "s3cret")
	out := httptest.NewRecorder()
	h.srv.Engine().ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code, out.Body.String())
	body := decode[map[string]any](t, out)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Admin notified of submission from Tigers", body["message"])
}

func TestWarnsWithoutWebhookSecret(t *testing.T) {
	store, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "warn.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	for secret, warned := range map[string]bool{"": true, "s3cret": false} {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		server.New(server.Options{Board: board.New(store, board.Options{Logger: logger}), Logger: logger, WebhookSecret: secret})
		assert.Equal(t, warned, strings.Contains(buf.String(), "webhook secret not set"), "secret %q", secret)
	}
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>4gears</html>"), 0o644))
	h := newHarness(t, dir, "")

	rec := h.do(http.MethodGet, "/projects/abc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "4gears")

	rec = h.do(http.MethodGet, "/api/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticAssets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log('4gears')"), 0o644))
	h := newHarness(t, dir, "")

	rec := h.do(http.MethodGet, "/assets/app.js", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "4gears")
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}
