package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

var tracer = otel.Tracer("github.com/noahsabaj/hearth-docs/pkg/history/github")

// Config holds GitHub API settings
type Config struct {
	APIBaseURL string // https://api.github.com
	WebBaseURL string // https://github.com
	Owner      string
	Repo       string
	Branch     string
	DocsDir    string
	Token      string
	Timeout    time.Duration
	UserAgent  string
}

// DefaultConfig returns settings for the hearth-engine repository
func DefaultConfig() Config {
	return Config{
		APIBaseURL: "https://api.github.com",
		WebBaseURL: "https://github.com",
		Owner:      "noahsabaj",
		Repo:       "hearth-engine",
		Branch:     "main",
		DocsDir:    "docs",
		Timeout:    10 * time.Second,
		UserAgent:  "hearth-docs",
	}
}

// Commit is the part of the commits API response we use
type Commit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message   string `json:"message"`
		Committer struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the commits endpoint
type Client struct {
	http *http.Client
	cfg  Config
}

// NewClient creates a client. When cfg.Token is set requests are authenticated
// with a static OAuth2 bearer token.
func NewClient(ctx context.Context, cfg Config) *Client {
	defaults := DefaultConfig()
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaults.APIBaseURL
	}
	if cfg.WebBaseURL == "" {
		cfg.WebBaseURL = defaults.WebBaseURL
	}
	if cfg.Branch == "" {
		cfg.Branch = defaults.Branch
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}

	httpClient := &http.Client{}
	if cfg.Token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	}
	httpClient.Timeout = cfg.Timeout

	return &Client{http: httpClient, cfg: cfg}
}

// Config returns the effective configuration
func (c *Client) Config() Config {
	return c.cfg
}

// LatestCommit returns the newest commit touching path on the configured branch.
// It returns nil when the path has no commits or the repository is not found.
func (c *Client) LatestCommit(ctx context.Context, path string) (*Commit, error) {
	ctx, span := tracer.Start(ctx, "GitHub.LatestCommit",
		trace.WithAttributes(
			attribute.String("github.repo", c.cfg.Owner+"/"+c.cfg.Repo),
			attribute.String("github.path", path),
		),
	)
	defer span.End()

	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?%s",
		strings.TrimRight(c.cfg.APIBaseURL, "/"),
		url.PathEscape(c.cfg.Owner),
		url.PathEscape(c.cfg.Repo),
		url.Values{
			"path":     {path},
			"sha":      {c.cfg.Branch},
			"per_page": {"1"},
		}.Encode(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		span.SetStatus(codes.Error, apiErr.Error())
		return nil, apiErr
	}

	var commits []Commit
	if err := json.NewDecoder(resp.Body).Decode(&commits); err != nil {
		return nil, fmt.Errorf("failed to decode commits: %w", err)
	}
	if len(commits) == 0 {
		return nil, nil
	}
	return &commits[0], nil
}

// HistoryURL is the web page listing commits for path
func (c *Client) HistoryURL(path string) string {
	return fmt.Sprintf("%s/%s/%s/commits/%s/%s",
		strings.TrimRight(c.cfg.WebBaseURL, "/"),
		c.cfg.Owner, c.cfg.Repo, c.cfg.Branch, path)
}
