package github_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fourgears/internal/github"
)

type staticToken string

func (s staticToken) GitHubToken(context.Context) (string, error) {
	if s == "" {
		return "", github.ErrNoToken
	}
	return string(s), nil
}

type recorded struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

func fakeGitHub(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		mu.Lock()
		seen = append(seen, rec)
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestCreateRepositoryUsesOrgWhenOwnerSet(t *testing.T) {
	srv, seen := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"full_name":"4gears/tigers-app","html_url":"https://github.com/4gears/tigers-app","default_branch":"main"}`))
	})
	client := github.New(srv.URL, "4gears", staticToken("ghp_secret"), srv.Client())

	repo, err := client.CreateRepository(context.Background(), "tigers-app", "Tigers", true)
	require.NoError(t, err)
	assert.Equal(t, "4gears/tigers-app", repo.FullName)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, "/orgs/4gears/repos", req.Path)
	assert.Equal(t, "Bearer ghp_secret", req.Auth)
	assert.Equal(t, true, req.Body["auto_init"])
	assert.Equal(t, true, req.Body["private"])
}

func TestCreateRepositoryForUser(t *testing.T) {
	srv, seen := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"full_name":"me/app"}`))
	})
	client := github.New(srv.URL, "", staticToken("t"), srv.Client())

	_, err := client.CreateRepository(context.Background(), "app", "", false)
	require.NoError(t, err)
	assert.Equal(t, "/user/repos", (*seen)[0].Path)
}

func TestCreateBranchResolvesDefaultBranch(t *testing.T) {
	srv, seen := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/4gears/app":
			_, _ = w.Write([]byte(`{"full_name":"4gears/app","default_branch":"trunk"}`))
		case "/repos/4gears/app/git/ref/heads/trunk":
			_, _ = w.Write([]byte(`{"object":{"sha":"abc123"}}`))
		case "/repos/4gears/app/git/refs":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	client := github.New(srv.URL, "4gears", staticToken("t"), srv.Client())

	require.NoError(t, client.CreateBranch(context.Background(), "4gears/app", "task-1234abcd-logo"))
	require.Len(t, *seen, 3)
	last := (*seen)[2]
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "refs/heads/task-1234abcd-logo", last.Body["ref"])
	assert.Equal(t, "abc123", last.Body["sha"])
}

func TestCreateIssueAndComment(t *testing.T) {
	srv, seen := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		if r.URL.Path == "/repos/4gears/app/issues" {
			_, _ = w.Write([]byte(`{"number":7,"html_url":"https://github.com/4gears/app/issues/7"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})
	client := github.New(srv.URL, "4gears", staticToken("t"), srv.Client())

	issue, err := client.CreateIssue(context.Background(), "4gears/app", "Logo", "body")
	require.NoError(t, err)
	assert.Equal(t, 7, issue.Number)

	require.NoError(t, client.CreateComment(context.Background(), "4gears/app", 7, "Task status changed to **DONE**"))
	assert.Equal(t, "/repos/4gears/app/issues/7/comments", (*seen)[1].Path)
	assert.Equal(t, "Task status changed to **DONE**", (*seen)[1].Body["body"])
}

func TestAPIErrorCarriesMessage(t *testing.T) {
	srv, _ := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"name already exists on this account"}`))
	})
	client := github.New(srv.URL, "4gears", staticToken("t"), srv.Client())

	_, err := client.CreateRepository(context.Background(), "app", "", true)
	var apiErr *github.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "name already exists on this account", apiErr.Message)
}

func TestMissingTokenSkipsRequest(t *testing.T) {
	srv, seen := fakeGitHub(t, func(w http.ResponseWriter, r *http.Request) {})
	client := github.New(srv.URL, "4gears", staticToken(""), srv.Client())

	_, err := client.CreateIssue(context.Background(), "4gears/app", "x", "y")
	assert.ErrorIs(t, err, github.ErrNoToken)
	assert.Empty(t, *seen)
}
