// Package github mirrors board activity to a GitHub account through its REST
// API: repositories for projects, branches and issues for tasks.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

// ErrNoToken is returned when no access token has been configured.
var ErrNoToken = errors.New("github token not configured")

// TokenSource yields the access token used for each call. The token is read
// per call so that an admin can rotate it without a restart.
type TokenSource interface {
	GitHubToken(ctx context.Context) (string, error)
}

// APIError is a non-2xx answer from the GitHub API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api: %d %s", e.StatusCode, e.Message)
}

// Repository is the subset of the repository resource the platform keeps.
type Repository struct {
	FullName      string `json:"full_name"`
	HTMLURL       string `json:"html_url"`
	DefaultBranch string `json:"default_branch"`
}

// Issue is the subset of the issue resource the platform keeps.
type Issue struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// Client talks to the GitHub REST API.
type Client struct {
	baseURL string
	owner   string
	tokens  TokenSource
	http    *http.Client
}

// New builds a client. An empty owner creates repositories under the token's
// user instead of an organization.
func New(baseURL, owner string, tokens TokenSource, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		owner:   owner,
		tokens:  tokens,
		http:    httpClient,
	}
}

// CreateRepository creates a repository with an initial commit so that
// branches can be cut from it right away.
func (c *Client) CreateRepository(ctx context.Context, name, description string, private bool) (*Repository, error) {
	path := "/user/repos"
	if c.owner != "" {
		path = "/orgs/" + url.PathEscape(c.owner) + "/repos"
	}
	in := map[string]any{
		"name":        name,
		"description": description,
		"private":     private,
		"auto_init":   true,
	}
	var repo Repository
	if err := c.do(ctx, http.MethodPost, path, in, &repo); err != nil {
		return nil, fmt.Errorf("create repository %s: %w", name, err)
	}
	return &repo, nil
}

// CreateBranch cuts refs/heads/<branch> from the head of the repository's
// default branch. repo is the "owner/name" full name.
func (c *Client) CreateBranch(ctx context.Context, repo, branch string) error {
	var meta Repository
	if err := c.do(ctx, http.MethodGet, "/repos/"+repo, nil, &meta); err != nil {
		return fmt.Errorf("get repository %s: %w", repo, err)
	}
	base := meta.DefaultBranch
	if base == "" {
		base = "main"
	}

	var ref struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	if err := c.do(ctx, http.MethodGet, "/repos/"+repo+"/git/ref/heads/"+url.PathEscape(base), nil, &ref); err != nil {
		return fmt.Errorf("resolve %s head: %w", base, err)
	}

	in := map[string]string{"ref": "refs/heads/" + branch, "sha": ref.Object.SHA}
	if err := c.do(ctx, http.MethodPost, "/repos/"+repo+"/git/refs", in, nil); err != nil {
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	return nil
}

// CreateIssue opens an issue in repo.
func (c *Client) CreateIssue(ctx context.Context, repo, title, body string) (*Issue, error) {
	var issue Issue
	in := map[string]string{"title": title, "body": body}
	if err := c.do(ctx, http.MethodPost, "/repos/"+repo+"/issues", in, &issue); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	return &issue, nil
}

// CreateComment adds a comment to an issue.
func (c *Client) CreateComment(ctx context.Context, repo string, number int, body string) error {
	path := fmt.Sprintf("/repos/%s/issues/%d/comments", repo, number)
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"body": body}, nil); err != nil {
		return fmt.Errorf("comment on issue %d: %w", number, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.tokens == nil {
		return ErrNoToken
	}
	token, err := c.tokens.GitHubToken(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNoToken
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// oauth2 adds the bearer header on top of the configured transport.
	httpClient := oauth2.NewClient(
		context.WithValue(ctx, oauth2.HTTPClient, c.http),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
	)
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &msg) == nil && msg.Message != "" {
			apiErr.Message = msg.Message
		}
		return apiErr
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
