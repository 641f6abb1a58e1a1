package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedTableSource is returned for an unknown TableSpec kind
var ErrUnsupportedTableSource = errors.New("unsupported table source")

// Table source kinds
const (
	TableKindBuiltin = "builtin"
	TableKindFile    = "file"
	TableKindS3      = "s3"
	TableKindSQL     = "sql"
)

// TableSpec describes where the history table is loaded from at startup
type TableSpec struct {
	Kind string // builtin, file, s3, sql

	// File
	Path string

	// S3
	S3Bucket       string
	S3Key          string
	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	// SQL
	SQLDriver string // postgres or sqlite3
	SQLDSN    string
	SQLQuery  string
}

// DefaultSQLQuery selects every row of the section_history table
const DefaultSQLQuery = "SELECT section_id, last_modified, commit_url FROM section_history ORDER BY section_id"

// OpenTable loads the table described by spec. It is meant to run once at startup.
func OpenTable(ctx context.Context, spec TableSpec) (*Table, error) {
	switch spec.Kind {
	case "", TableKindBuiltin:
		return DefaultTable(), nil

	case TableKindFile:
		return LoadTableFile(spec.Path)

	case TableKindS3:
		client, err := NewS3Client(ctx, spec)
		if err != nil {
			return nil, err
		}
		return LoadTableS3(ctx, client, spec.S3Bucket, spec.S3Key)

	case TableKindSQL:
		db, err := sql.Open(spec.SQLDriver, spec.SQLDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s database: %w", spec.SQLDriver, err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping %s database: %w", spec.SQLDriver, err)
		}
		return LoadTableSQL(ctx, db, spec.SQLQuery)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTableSource, spec.Kind)
	}
}

// tableDocument is the YAML layout of a table file:
//
//	sections:
//	  - id: getting-started
//	    last_modified: "2025-01-15T10:30:00"
//	    commit_url: https://github.com/...
type tableDocument struct {
	Sections []sectionEntry `yaml:"sections"`
}

type sectionEntry struct {
	ID           string `yaml:"id"`
	LastModified string `yaml:"last_modified"`
	CommitURL    string `yaml:"commit_url,omitempty"`
}

// ParseTable parses a YAML table document
func ParseTable(data []byte) (*Table, error) {
	var doc tableDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("%w: no sections defined", ErrInvalidTable)
	}

	records := make([]Record, 0, len(doc.Sections))
	for _, entry := range doc.Sections {
		ts, err := ParseTimestamp(entry.LastModified)
		if err != nil {
			return nil, fmt.Errorf("%w: section %q: %v", ErrInvalidTable, entry.ID, err)
		}
		records = append(records, Record{
			SectionID:    strings.TrimSpace(entry.ID),
			LastModified: ts,
			CommitURL:    strings.TrimSpace(entry.CommitURL),
		})
	}

	return NewTable(records...)
}

// ParseTimestamp accepts the wall-clock layout of the built-in table and RFC 3339
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("missing last_modified")
	}
	if ts, err := time.Parse(TimestampLayout, value); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid last_modified %q", value)
	}
	return ts, nil
}

// LoadTableFile reads a YAML table from disk
func LoadTableFile(path string) (*Table, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: file path is required", ErrInvalidTable)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read table file: %w", err)
	}
	table, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return table, nil
}

// ObjectGetter is the subset of the S3 client used to fetch a table
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client creates an S3 client from the S3 fields of spec
func NewS3Client(ctx context.Context, spec TableSpec) (*s3.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(spec.S3Region),
	}
	if spec.S3AccessKey != "" && spec.S3SecretKey != "" {
		// Static credentials (MinIO or explicit keys)
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(spec.S3AccessKey, spec.S3SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if spec.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(spec.S3Endpoint)
		}
		o.UsePathStyle = spec.S3UsePathStyle
	}), nil
}

// LoadTableS3 reads a YAML table from an S3 object
func LoadTableS3(ctx context.Context, client ObjectGetter, bucket, key string) (*Table, error) {
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: S3 bucket and key are required", ErrInvalidTable)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}

	table, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s3://%s/%s: %w", bucket, key, err)
	}
	return table, nil
}

// LoadTableSQL reads (section_id, last_modified, commit_url) rows.
// An empty query uses DefaultSQLQuery.
func LoadTableSQL(ctx context.Context, db *sql.DB, query string) (*Table, error) {
	if query == "" {
		query = DefaultSQLQuery
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query section history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec       Record
			commitURL sql.NullString
		)
		if err := rows.Scan(&rec.SectionID, &rec.LastModified, &commitURL); err != nil {
			return nil, fmt.Errorf("failed to scan section history row: %w", err)
		}
		rec.CommitURL = commitURL.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate section history: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: section_history is empty", ErrInvalidTable)
	}

	return NewTable(records...)
}
