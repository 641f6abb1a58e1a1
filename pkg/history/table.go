package history

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidTable is returned when a table definition cannot be used
	ErrInvalidTable = errors.New("invalid history table")
	// ErrDuplicateSection is returned when a section id appears twice
	ErrDuplicateSection = errors.New("duplicate section id")
)

// TimestampLayout is the wall-clock layout used by the built-in records
const TimestampLayout = "2006-01-02T15:04:05"

// Record is the last-modified metadata of one documentation section
type Record struct {
	SectionID    string    `json:"section_id"`
	LastModified time.Time `json:"last_modified"`
	CommitURL    string    `json:"commit_url,omitempty"`
}

// HasCommitURL reports whether the record links to an external history view
func (r Record) HasCommitURL() bool {
	return r.CommitURL != ""
}

// Table is an immutable mapping from section id to Record.
// All methods are safe for concurrent use because nothing mutates a Table
// after NewTable returns.
type Table struct {
	records map[string]Record
	order   []string
}

// NewTable builds a table from records. Section ids must be non-empty and unique.
func NewTable(records ...Record) (*Table, error) {
	t := &Table{
		records: make(map[string]Record, len(records)),
		order:   make([]string, 0, len(records)),
	}

	for i, rec := range records {
		if rec.SectionID == "" {
			return nil, fmt.Errorf("%w: record %d has an empty section id", ErrInvalidTable, i)
		}
		if _, exists := t.records[rec.SectionID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSection, rec.SectionID)
		}
		t.records[rec.SectionID] = rec
		t.order = append(t.order, rec.SectionID)
	}

	return t, nil
}

// MustNewTable is like NewTable but panics on error.
// Intended for package-level defaults built from literals.
func MustNewTable(records ...Record) *Table {
	t, err := NewTable(records...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the record for a section. A missing section is not an error.
func (t *Table) Lookup(sectionID string) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	rec, ok := t.records[sectionID]
	return rec, ok
}

// Contains reports whether the table has a record for sectionID
func (t *Table) Contains(sectionID string) bool {
	_, ok := t.Lookup(sectionID)
	return ok
}

// Sections returns section ids in definition order
func (t *Table) Sections() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of sections
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

const commitBaseURL = "https://github.com/noahsabaj/hearth-engine/commits/main/docs/"

var defaultTable = MustNewTable(
	builtin("getting-started", "2025-01-15T10:30:00"),
	builtin("installation", "2025-01-14T15:45:00"),
	builtin("basic-usage", "2025-01-13T09:20:00"),
	builtin("core-concepts", "2025-01-12T14:10:00"),
	builtin("cargo-commands", "2025-01-11T11:00:00"),
	builtin("api-reference", "2025-01-10T16:30:00"),
)

// DefaultTable returns the built-in six-section table.
// The same *Table is returned on every call; it is immutable.
func DefaultTable() *Table {
	return defaultTable
}

func builtin(sectionID, lastModified string) Record {
	ts, err := time.Parse(TimestampLayout, lastModified)
	if err != nil {
		panic(fmt.Sprintf("history: bad built-in timestamp %q: %v", lastModified, err))
	}
	return Record{
		SectionID:    sectionID,
		LastModified: ts,
		CommitURL:    commitBaseURL + sectionID + ".md",
	}
}

// SectionIDFrom maps an optional section id to a lookup key.
// A nil pointer becomes the empty string, which never matches a section.
func SectionIDFrom(sectionID *string) string {
	if sectionID == nil {
		return ""
	}
	return *sectionID
}
