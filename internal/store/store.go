package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	busyTimeoutMS   = 5000
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute
)

// Domain names. Each is one table created lazily by the migration framework.
const (
	DomainBlobs           = "blobs"
	DomainTextBlobs       = "text_blobs"
	DomainFactsComparison = "facts_comparison"
	DomainSentenceReview  = "sentence_review"
	DomainChatHistory     = "chat_history"
	DomainFieldVersions   = "field_versions"
)

// Domains lists every domain in purge order.
var Domains = []string{
	DomainBlobs,
	DomainTextBlobs,
	DomainFactsComparison,
	DomainSentenceReview,
	DomainChatHistory,
	DomainFieldVersions,
}

// Store wraps the SQLite database holding the project's durable domains.
//
// A Store may be degraded: when the database failed to open, Available
// reports false, reads return empty results and writes are logged no-ops.
// Callers never see open failures as errors.
type Store struct {
	db  *sql.DB
	log *slog.Logger

	mu         sync.Mutex
	commitHook func(domain string)
}

// Open opens the SQLite database and bootstraps the schema.
func Open(path string) (*Store, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := configureDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, log: slog.With("component", "store")}, nil
}

// OpenOrDegraded opens the store, falling back to a degraded instance when
// the database cannot be opened.
func OpenOrDegraded(path string) *Store {
	s, err := Open(path)
	if err != nil {
		slog.Warn("durable store unavailable; persistence degraded", "path", path, "error", err)
		return Degraded()
	}
	return s
}

// Degraded returns an unavailable store.
func Degraded() *Store {
	return &Store{log: slog.With("component", "store")}
}

// Available reports whether the underlying database opened.
func (s *Store) Available() bool {
	return s != nil && s.db != nil
}

// DB exposes the underlying handle for maintenance commands.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetCommitHook registers the single callback invoked after every committed
// mutation with the affected domain. Registering replaces any prior hook.
func (s *Store) SetCommitHook(fn func(domain string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitHook = fn
}

func (s *Store) notifyCommit(domain string) {
	s.mu.Lock()
	hook := s.commitHook
	s.mu.Unlock()
	if hook != nil {
		hook(domain)
	}
}

// droppedWrite logs a write discarded because the store is unavailable.
func (s *Store) droppedWrite(domain string) {
	s.log.Warn("durable store unavailable; write dropped", "domain", domain)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func configureDB(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeoutMS),
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// Tune connection pool for local usage. A single connection also keeps
	// same-instance operations in submission order.
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String(), nil
}
