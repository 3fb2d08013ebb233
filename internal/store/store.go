package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"soundshelf/internal/apperr"
)

var (
	// ErrUserExists signals the username or email is already taken.
	ErrUserExists = apperr.New(apperr.Conflict, "username or email already exists")
	// ErrUserNotFound is returned when a user id or username does not exist.
	ErrUserNotFound = apperr.New(apperr.NotFound, "user not found")
	// ErrArtistNotFound is returned when an artist id does not exist.
	ErrArtistNotFound = apperr.New(apperr.NotFound, "artist not found")
	// ErrSongNotFound is returned when a song id does not exist.
	ErrSongNotFound = apperr.New(apperr.NotFound, "song not found")
	// ErrPlaylistNotFound is returned when a playlist id does not exist.
	ErrPlaylistNotFound = apperr.New(apperr.NotFound, "playlist not found")
)

// LatestPageSize is the fixed page size of the newest-first artist listing.
const LatestPageSize = 20

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// inTx runs fn inside a transaction, committing only when fn succeeds.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

// likePattern builds a case-insensitive substring pattern with LIKE wildcards escaped.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

// normalizeIDs drops non-positive and duplicate ids. The result is never nil so
// that it binds as an empty array rather than NULL.
func normalizeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
