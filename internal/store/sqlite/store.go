// Package sqlite implements repositories.BlobStore on a local SQLite file,
// for self-hosting without a GitHub repository. Revision semantics match the
// remote store: every write is conditioned on the revision it read.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"notebin/internal/domain"
	"notebin/internal/domain/repositories"
)

// Store keeps blobs in a single table keyed by path
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ repositories.BlobStore = (*Store)(nil)

// Open opens (creating if needed) the database file at dbPath.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Store, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serialises writers and keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("sqlite blob store opened", "path", dbPath)
	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// init creates the blob and commit tables
func (s *Store) init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS blobs (
			path TEXT PRIMARY KEY,
			content BLOB NOT NULL,
			revision TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS blob_commits (
			id INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			revision TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_blob_commits_path ON blob_commits(path);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init sqlite schema: %w", err)
		}
	}
	return nil
}

// FetchBlob implements repositories.BlobStore
func (s *Store) FetchBlob(ctx context.Context, path string) (*repositories.Blob, error) {
	var blob repositories.Blob
	err := s.db.QueryRowContext(ctx,
		`SELECT content, revision FROM blobs WHERE path = ?`, path,
	).Scan(&blob.Content, &blob.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrBlobNotFound
	}
	if err != nil {
		return nil, &domain.TransportError{Op: "fetch", Err: err}
	}
	return &blob, nil
}

// WriteBlob implements repositories.BlobStore
func (s *Store) WriteBlob(ctx context.Context, path string, content []byte, revision, message string) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", &domain.TransportError{Op: "write", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	newRevision := uuid.NewString()
	now := time.Now().UTC()

	var res sql.Result
	if revision == "" {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO blobs (path, content, revision, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(path) DO NOTHING`,
			path, content, newRevision, now)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE blobs SET content = ?, revision = ?, updated_at = ? WHERE path = ? AND revision = ?`,
			content, newRevision, now, path, revision)
	}
	if err != nil {
		return "", &domain.TransportError{Op: "write", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return "", &domain.TransportError{Op: "write", Err: err}
	}
	if affected == 0 {
		return "", domain.ErrRevisionConflict
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO blob_commits (path, revision, message, created_at) VALUES (?, ?, ?, ?)`,
		path, newRevision, message, now); err != nil {
		return "", &domain.TransportError{Op: "write", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return "", &domain.TransportError{Op: "write", Err: err}
	}

	s.logger.Debug("blob written", "path", path, "previous", revision, "revision", newRevision)
	return newRevision, nil
}

// ListBlobs implements repositories.BlobStore
func (s *Store) ListBlobs(ctx context.Context, dir string) ([]string, error) {
	prefix := strings.Trim(dir, "/") + "/"
	// byte-wise range: every path starting with prefix sorts in [prefix, prefix+"0")
	// since '0' follows '/'
	upper := strings.TrimSuffix(prefix, "/") + "0"
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM blobs WHERE path >= ? AND path < ? ORDER BY path`,
		prefix, upper)
	if err != nil {
		return nil, &domain.TransportError{Op: "list", Err: err}
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, &domain.TransportError{Op: "list", Err: err}
		}
		// direct children only
		if !strings.Contains(strings.TrimPrefix(p, prefix), "/") {
			paths = append(paths, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.TransportError{Op: "list", Err: err}
	}
	return paths, nil
}

// CommitCount returns how many writes have been committed at path
func (s *Store) CommitCount(ctx context.Context, path string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blob_commits WHERE path = ?`, path).Scan(&n)
	return n, err
}
