package store

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/simonvc/stockledger/internal/ledger"
	_ "modernc.org/sqlite"
)

type AccountFilter struct {
	Type       ledger.AccountType
	ActiveOnly bool
	Limit      int
	Offset     int
}

type EntryFilter struct {
	BusinessID  int64
	AccountCode int
	SourceType  ledger.SourceType
	From        time.Time
	To          time.Time
	Limit       int
	Offset      int
}

// stampLayout is a fixed-width UTC timestamp so stored values sort and
// compare correctly as text.
const stampLayout = "2006-01-02T15:04:05.000000000Z"

type Store struct {
	writer *sql.DB
	reader *sql.DB
	now    func() time.Time
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func Open(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(runtime.NumCPU())

	s := &Store{writer: writer, reader: reader, now: func() time.Time { return time.Now().UTC() }}

	if err := s.migrate(context.Background()); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	err1 := s.writer.Close()
	err2 := s.reader.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// withTx runs fn inside a writer transaction. Any error rolls back
// everything fn wrote.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func formatStamp(t time.Time) string {
	return t.UTC().Format(stampLayout)
}

func parseStamp(s string) time.Time {
	if t, err := time.Parse(stampLayout, s); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func formatDate(t time.Time) string {
	return t.Format(ledger.DateLayout)
}

func parseDate(s string) time.Time {
	t, _ := time.Parse(ledger.DateLayout, s)
	return t
}

// dateBounds turns an optional [from, to] range into inclusive date strings.
func dateBounds(from, to time.Time) (string, string) {
	lo, hi := "0000-01-01", "9999-12-31"
	if !from.IsZero() {
		lo = formatDate(from)
	}
	if !to.IsZero() {
		hi = formatDate(to)
	}
	return lo, hi
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
