package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/noahsabaj/hearth-docs/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commitsResponse = `[
  {
    "sha": "3f1c2a",
    "html_url": "https://github.com/noahsabaj/hearth-engine/commit/3f1c2a",
    "commit": {
      "message": "docs: refresh installation guide",
      "committer": {"name": "docs-bot", "date": "2025-03-02T12:00:00Z"}
    }
  }
]`

func newTestSource(t *testing.T, handler http.HandlerFunc, token string) *Source {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(context.Background(), Config{
		APIBaseURL: server.URL,
		WebBaseURL: "https://github.com",
		Owner:      "noahsabaj",
		Repo:       "hearth-engine",
		DocsDir:    "docs",
		Token:      token,
	})
	return NewSource(client, history.DefaultTable())
}

func TestSource_Lookup(t *testing.T) {
	var authHeader, path, query string
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		path = r.URL.Path
		query = r.URL.Query().Get("path")
		assert.Equal(t, "main", r.URL.Query().Get("sha"))
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(commitsResponse))
	}, "secret-token")

	rec, err := source.Lookup(context.Background(), "installation")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "/repos/noahsabaj/hearth-engine/commits", path)
	assert.Equal(t, "docs/installation.md", query)
	assert.Equal(t, "Bearer secret-token", authHeader)

	assert.Equal(t, "installation", rec.SectionID)
	assert.Equal(t, time.Date(2025, time.March, 2, 12, 0, 0, 0, time.UTC), rec.LastModified.UTC())
	assert.Equal(t, "https://github.com/noahsabaj/hearth-engine/commits/main/docs/installation.md", rec.CommitURL)
}

func TestSource_UnknownSectionSkipsRequest(t *testing.T) {
	var calls int32
	source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}, "")

	for _, id := range []string{"", "not-a-section", "../secrets"} {
		rec, err := source.Lookup(context.Background(), id)
		assert.NoError(t, err)
		assert.Nil(t, rec)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestSource_AbsentResponses(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}},
		{"no commits", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("[]"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := newTestSource(t, tt.handler, "")
			rec, err := source.Lookup(context.Background(), "basic-usage")
			assert.NoError(t, err)
			assert.Nil(t, rec)
		})
	}
}

func TestSource_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusForbidden)
		}, "")

		_, err := source.Lookup(context.Background(), "basic-usage")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.Contains(t, apiErr.Error(), "rate limited")
	})

	t.Run("bad json", func(t *testing.T) {
		source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{not json"))
		}, "")

		_, err := source.Lookup(context.Background(), "basic-usage")
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		source := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(commitsResponse))
		}, "")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := source.Lookup(ctx, "basic-usage")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(context.Background(), Config{Owner: "o", Repo: "r"})
	cfg := client.Config()

	assert.Equal(t, "https://api.github.com", cfg.APIBaseURL)
	assert.Equal(t, "https://github.com", cfg.WebBaseURL)
	assert.Equal(t, "main", cfg.Branch)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "https://github.com/o/r/commits/main/docs/x.md", client.HistoryURL("docs/x.md"))
}
