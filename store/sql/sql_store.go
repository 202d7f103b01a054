// Package sql provides SQL-based store implementations for MySQL and
// compatible databases.
package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	wastebot "github.com/greenloop/wastebot"
)

// Dialect represents the SQL dialect.
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectTiDB     Dialect = "tidb"
)

// Config holds the configuration for the SQL store.
type Config struct {
	Dialect         Dialect
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns the default SQL store configuration.
func DefaultConfig() Config {
	return Config{
		Dialect:         DialectMySQL,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Store implements store.Store on a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// rebind converts MySQL-style placeholders (?) to the appropriate format
// for the dialect. For PostgreSQL, converts ? to $1, $2, etc.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var result []byte
	paramIndex := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, []byte(fmt.Sprintf("%d", paramIndex))...)
			paramIndex++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}

// New creates a new SQL store.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open(string(cfg.Dialect), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, dialect: cfg.Dialect}, nil
}

// NewWithDB creates a new SQL store with an existing database connection.
func NewWithDB(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// PutPending stores a session's pending submission, replacing any
// existing one in a single statement.
func (s *Store) PutPending(ctx context.Context, sub wastebot.PendingSubmission) error {
	query := s.rebind(`INSERT INTO pending_submissions (session_id, image_hash, storage_ref, category, submitted_by, created_at)
              VALUES (?, ?, ?, ?, ?, ?)
              ON DUPLICATE KEY UPDATE image_hash = VALUES(image_hash), storage_ref = VALUES(storage_ref),
                  category = VALUES(category), submitted_by = VALUES(submitted_by), created_at = VALUES(created_at)`)

	_, err := s.db.ExecContext(ctx, query,
		sub.SessionID, sub.ImageHash, sub.StorageRef, string(sub.Category), sub.SubmittedBy, sub.CreatedAt.UnixMilli())
	if err != nil {
		return wastebot.NewStoreError("put", "pending_submissions", err)
	}
	return nil
}

// GetPending reads a session's pending submission without consuming it.
func (s *Store) GetPending(ctx context.Context, sessionID string) (*wastebot.PendingSubmission, error) {
	query := s.rebind(`SELECT session_id, image_hash, storage_ref, category, submitted_by, created_at
              FROM pending_submissions WHERE session_id = ?`)

	sub, err := scanPending(s.db.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wastebot.ErrNoPendingSubmission
		}
		return nil, wastebot.NewStoreError("get", "pending_submissions", err)
	}
	return sub, nil
}

// TakePending atomically reads and deletes a session's pending submission.
// The row lock taken by SELECT ... FOR UPDATE serializes concurrent
// location deliveries so exactly one of them gets the submission.
func (s *Store) TakePending(ctx context.Context, sessionID string) (*wastebot.PendingSubmission, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wastebot.NewStoreError("take", "pending_submissions", err)
	}
	defer tx.Rollback()

	query := s.rebind(`SELECT session_id, image_hash, storage_ref, category, submitted_by, created_at
              FROM pending_submissions WHERE session_id = ? FOR UPDATE`)

	sub, err := scanPending(tx.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wastebot.ErrNoPendingSubmission
		}
		return nil, wastebot.NewStoreError("take", "pending_submissions", err)
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM pending_submissions WHERE session_id = ?`), sessionID); err != nil {
		return nil, wastebot.NewStoreError("take", "pending_submissions", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wastebot.NewStoreError("take", "pending_submissions", err)
	}
	return sub, nil
}

// DeletePending removes a session's pending submission if present.
func (s *Store) DeletePending(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM pending_submissions WHERE session_id = ?`), sessionID)
	if err != nil {
		return wastebot.NewStoreError("delete", "pending_submissions", err)
	}
	return nil
}

// DeleteExpiredBefore removes pending submissions created before the cutoff.
func (s *Store) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM pending_submissions WHERE created_at < ?`), cutoff.UnixMilli())
	if err != nil {
		return 0, wastebot.NewStoreError("sweep", "pending_submissions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wastebot.NewStoreError("sweep", "pending_submissions", err)
	}
	return int(n), nil
}

// CreateReport persists a finalized report. The unique index on
// image_hash enforces global dedup; violation maps to ErrDuplicateImage.
func (s *Store) CreateReport(ctx context.Context, report wastebot.Report) error {
	query := s.rebind(`INSERT INTO reports (id, session_id, storage_ref, description, lat, lng, status, category, image_hash, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		report.ID, report.SessionID, report.StorageRef, report.Description,
		report.Lat, report.Lng, string(report.Status), string(report.Category),
		report.ImageHash, report.CreatedAt.UnixMilli())
	if err != nil {
		if isDuplicateKey(err) {
			return wastebot.ErrDuplicateImage
		}
		return wastebot.NewStoreError("create", "reports", err)
	}
	return nil
}

// GetReport fetches a report by ID.
func (s *Store) GetReport(ctx context.Context, reportID string) (*wastebot.Report, error) {
	query := s.rebind(`SELECT id, session_id, storage_ref, description, lat, lng, status, category, image_hash, created_at
              FROM reports WHERE id = ?`)

	var (
		r         wastebot.Report
		status    string
		category  string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, query, reportID).Scan(
		&r.ID, &r.SessionID, &r.StorageRef, &r.Description,
		&r.Lat, &r.Lng, &status, &category, &r.ImageHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wastebot.ErrReportNotFound
		}
		return nil, wastebot.NewStoreError("get", "reports", err)
	}
	r.Status = wastebot.ReportStatus(status)
	r.Category = wastebot.Category(category)
	r.CreatedAt = time.UnixMilli(createdAt)
	return &r, nil
}

// HasImageHash reports whether any report already carries this hash.
func (s *Store) HasImageHash(ctx context.Context, hash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT 1 FROM reports WHERE image_hash = ? LIMIT 1`), hash).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, wastebot.NewStoreError("get", "reports", err)
	}
	return true, nil
}

// GrantReward appends an entry to the reward ledger.
func (s *Store) GrantReward(ctx context.Context, entry wastebot.RewardEntry) error {
	query := s.rebind(`INSERT INTO reward_ledger (id, session_id, report_id, points, reason, created_at)
              VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.SessionID, entry.ReportID, entry.Points, entry.Reason, entry.CreatedAt.UnixMilli())
	if err != nil {
		return wastebot.NewStoreError("grant", "reward_ledger", err)
	}
	return nil
}

// Balance sums the reward points granted to a session's user.
func (s *Store) Balance(ctx context.Context, sessionID string) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT SUM(points) FROM reward_ledger WHERE session_id = ?`), sessionID).Scan(&total)
	if err != nil {
		return 0, wastebot.NewStoreError("get", "reward_ledger", err)
	}
	return int(total.Int64), nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPending(row rowScanner) (*wastebot.PendingSubmission, error) {
	var (
		sub       wastebot.PendingSubmission
		category  string
		createdAt int64
	)
	if err := row.Scan(&sub.SessionID, &sub.ImageHash, &sub.StorageRef, &category, &sub.SubmittedBy, &createdAt); err != nil {
		return nil, err
	}
	sub.Category = wastebot.Category(category)
	sub.CreatedAt = time.UnixMilli(createdAt)
	return &sub, nil
}

// isDuplicateKey recognizes MySQL error 1062 (duplicate entry).
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
