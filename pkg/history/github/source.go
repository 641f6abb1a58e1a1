package github

import (
	"context"
	"path"

	"github.com/noahsabaj/hearth-docs/pkg/history"
)

// Source resolves sections through the commits API
type Source struct {
	client   *Client
	sections *history.Table
}

// NewSource creates a source. sections is the allow-list of known section ids.
func NewSource(client *Client, sections *history.Table) *Source {
	return &Source{client: client, sections: sections}
}

// DocPath maps a section id to the markdown path in the repository
func (s *Source) DocPath(sectionID string) string {
	return path.Join(s.client.cfg.DocsDir, sectionID+".md")
}

// Lookup implements history.Source
func (s *Source) Lookup(ctx context.Context, sectionID string) (*history.Record, error) {
	if !s.sections.Contains(sectionID) {
		return nil, nil
	}

	docPath := s.DocPath(sectionID)
	commit, err := s.client.LatestCommit(ctx, docPath)
	if err != nil {
		return nil, err
	}
	if commit == nil {
		return nil, nil
	}

	return &history.Record{
		SectionID:    sectionID,
		LastModified: commit.Commit.Committer.Date,
		CommitURL:    s.client.HistoryURL(docPath),
	}, nil
}
