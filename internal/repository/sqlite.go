package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mr1hm/go-disaster-feed/internal/models"
	_ "modernc.org/sqlite"
)

// Fixed width so created_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// :memory: databases are per connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS volunteer_interests (
			id TEXT PRIMARY KEY,
			report_id TEXT NOT NULL,
			name TEXT NOT NULL,
			contact TEXT,
			message TEXT,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_volunteer_interests_report_id ON volunteer_interests(report_id);
		CREATE INDEX IF NOT EXISTS idx_volunteer_interests_created_at ON volunteer_interests(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func (s *SQLiteDB) AddVolunteer(ctx context.Context, v *models.VolunteerInterest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO volunteer_interests (id, report_id, name, contact, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.ReportID, v.Name, v.Contact, v.Message, v.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("error inserting volunteer interest: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListByReport(ctx context.Context, reportID string, opts Filter) ([]models.VolunteerInterest, error) {
	query := `
		SELECT id, report_id, name, COALESCE(contact, ''), COALESCE(message, ''), created_at
		FROM volunteer_interests
		WHERE report_id = ?
		ORDER BY created_at DESC, id`
	args := []any{reportID}

	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying volunteer interests: %w", err)
	}
	defer rows.Close()

	out := []models.VolunteerInterest{}
	for rows.Next() {
		var (
			v       models.VolunteerInterest
			created string
		)
		if err := rows.Scan(&v.ID, &v.ReportID, &v.Name, &v.Contact, &v.Message, &created); err != nil {
			return nil, fmt.Errorf("error scanning volunteer interest: %w", err)
		}
		if v.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("error parsing created_at %q: %w", created, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteDB) CountByReports(ctx context.Context, reportIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(reportIDs))
	if len(reportIDs) == 0 {
		return counts, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(reportIDs)), ",")
	args := make([]any, len(reportIDs))
	for i, id := range reportIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT report_id, COUNT(*)
		FROM volunteer_interests
		WHERE report_id IN (`+placeholders+`)
		GROUP BY report_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("error counting volunteer interests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("error scanning count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
