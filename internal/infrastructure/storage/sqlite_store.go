package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"UpdatesScanner/internal/domain"
	"UpdatesScanner/internal/ports"
)

// SQLiteStore persists update records partitioned by ISO week. The
// composite primary key (week_key, update_id) carries the dedup
// invariant: one row per announcement identity, ever.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

var _ ports.UpdateStore = (*SQLiteStore)(nil)

// Open creates a database handle using the pure-Go sqlite driver.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	return db, nil
}

// NewSQLiteStore wires a database handle and the configured table name.
func NewSQLiteStore(db *sql.DB, table string) *SQLiteStore {
	return &SQLiteStore{db: db, table: table}
}

// Init creates the updates table if it doesn't exist.
func (s *SQLiteStore) Init(ctx context.Context) error {
	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	week_key TEXT NOT NULL,
	update_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	link TEXT NOT NULL DEFAULT '',
	published_at TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT 'Other',
	tags TEXT NOT NULL DEFAULT '[]',
	summary TEXT NOT NULL DEFAULT '',
	image_url TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (week_key, update_id)
);
CREATE INDEX IF NOT EXISTS idx_%s_published ON %s(week_key, published_at);
`, s.table, s.table, s.table)

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Get returns the stored record for an identity, or nil when absent.
func (s *SQLiteStore) Get(ctx context.Context, weekKey, updateID string) (*domain.UpdateRecord, error) {
	query, args, err := sq.Select(recordColumns...).
		From(s.table).
		Where(sq.Eq{"week_key": weekKey, "update_id": updateID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get query: %w", err)
	}

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// Put writes the full record, overwriting any previous row for the same
// identity. Merge decisions happen in the coordinator, not here.
func (s *SQLiteStore) Put(ctx context.Context, record domain.UpdateRecord) error {
	tagsValue := record.Tags
	if tagsValue == nil {
		tagsValue = []string{}
	}
	tags, err := json.Marshal(tagsValue)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	query, args, err := sq.Insert(s.table).
		Columns(recordColumns...).
		Values(
			record.WeekKey,
			record.UpdateID,
			record.Title,
			record.Link,
			record.PublishedAt.UTC().Format(time.RFC3339),
			record.Category,
			string(tags),
			record.Summary,
			record.ImageURL,
			record.Source,
		).
		Suffix(`ON CONFLICT (week_key, update_id) DO UPDATE SET
			title = excluded.title,
			link = excluded.link,
			published_at = excluded.published_at,
			category = excluded.category,
			tags = excluded.tags,
			summary = excluded.summary,
			image_url = excluded.image_url,
			source = excluded.source`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build put query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// ListWeek returns all records of a week, newest publication first.
func (s *SQLiteStore) ListWeek(ctx context.Context, weekKey string) ([]domain.UpdateRecord, error) {
	query, args, err := sq.Select(recordColumns...).
		From(s.table).
		Where(sq.Eq{"week_key": weekKey}).
		OrderBy("published_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list week: %w", err)
	}
	defer rows.Close()

	var records []domain.UpdateRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}

// Weeks lists distinct week keys, most recent first.
func (s *SQLiteStore) Weeks(ctx context.Context) ([]string, error) {
	query, _, err := sq.Select("DISTINCT week_key").
		From(s.table).
		OrderBy("week_key DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build weeks query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list weeks: %w", err)
	}
	defer rows.Close()

	var weeks []string
	for rows.Next() {
		var week string
		if err := rows.Scan(&week); err != nil {
			return nil, fmt.Errorf("scan week: %w", err)
		}
		weeks = append(weeks, week)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return weeks, nil
}

var recordColumns = []string{
	"week_key", "update_id", "title", "link", "published_at",
	"category", "tags", "summary", "image_url", "source",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.UpdateRecord, error) {
	var (
		record      domain.UpdateRecord
		publishedAt string
		tags        string
	)

	err := row.Scan(
		&record.WeekKey,
		&record.UpdateID,
		&record.Title,
		&record.Link,
		&publishedAt,
		&record.Category,
		&tags,
		&record.Summary,
		&record.ImageURL,
		&record.Source,
	)
	if err != nil {
		return nil, err
	}

	if publishedAt != "" {
		parsed, err := time.Parse(time.RFC3339, publishedAt)
		if err != nil {
			return nil, fmt.Errorf("parse published_at %q: %w", publishedAt, err)
		}
		record.PublishedAt = parsed.UTC()
	}

	if err := json.Unmarshal([]byte(tags), &record.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags %q: %w", tags, err)
	}

	return &record, nil
}
