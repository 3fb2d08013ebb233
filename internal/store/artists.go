package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"soundshelf/internal/models"
)

// ListArtists returns every artist ordered by name.
func (s *Store) ListArtists(ctx context.Context) ([]models.Artist, error) {
	return s.queryArtists(ctx, `
		SELECT id, name
		FROM artists
		ORDER BY name ASC, id ASC
	`)
}

// ListLatestArtists returns one page of artists, newest first, starting at offset.
// Offset paging may skip or repeat rows while artists are being inserted.
func (s *Store) ListLatestArtists(ctx context.Context, offset int) ([]models.Artist, error) {
	if offset < 0 {
		offset = 0
	}
	return s.queryArtists(ctx, `
		SELECT id, name
		FROM artists
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`, LatestPageSize, offset)
}

// SearchArtists returns artists whose name contains q, ignoring case.
func (s *Store) SearchArtists(ctx context.Context, q string) ([]models.Artist, error) {
	return s.queryArtists(ctx, `
		SELECT id, name
		FROM artists
		WHERE name ILIKE $1
		ORDER BY id ASC
	`, likePattern(q))
}

// ArtistByID returns a single artist.
func (s *Store) ArtistByID(ctx context.Context, id int64) (models.Artist, error) {
	var artist models.Artist
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM artists WHERE id = $1`, id).Scan(&artist.ID, &artist.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Artist{}, ErrArtistNotFound
	}
	if err != nil {
		return models.Artist{}, fmt.Errorf("get artist: %w", err)
	}
	return artist, nil
}

// CreateArtist persists a new artist.
func (s *Store) CreateArtist(ctx context.Context, name string) (models.Artist, error) {
	artist := models.Artist{Name: name}
	if err := s.db.QueryRowContext(ctx, `
		INSERT INTO artists (name)
		VALUES ($1)
		RETURNING id
	`, name).Scan(&artist.ID); err != nil {
		return models.Artist{}, fmt.Errorf("insert artist: %w", err)
	}
	return artist, nil
}

// UpdateArtist renames an artist.
func (s *Store) UpdateArtist(ctx context.Context, id int64, name string) (models.Artist, error) {
	artist := models.Artist{ID: id, Name: name}
	res, err := s.db.ExecContext(ctx, `UPDATE artists SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return models.Artist{}, fmt.Errorf("update artist: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Artist{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return models.Artist{}, ErrArtistNotFound
	}
	return artist, nil
}

// DeleteArtist removes an artist. Its songs stay in the catalog.
func (s *Store) DeleteArtist(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM artist_songs WHERE artist_id = $1`, id); err != nil {
			return fmt.Errorf("delete artist songs: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM artists WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete artist: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return ErrArtistNotFound
		}
		return nil
	})
}

// CountArtists returns the number of artists in the catalog.
func (s *Store) CountArtists(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artists`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count artists: %w", err)
	}
	return count, nil
}

func (s *Store) queryArtists(ctx context.Context, query string, args ...any) ([]models.Artist, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query artists: %w", err)
	}
	defer rows.Close()

	artists := make([]models.Artist, 0)
	for rows.Next() {
		var artist models.Artist
		if err := rows.Scan(&artist.ID, &artist.Name); err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		artists = append(artists, artist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artists: %w", err)
	}
	return artists, nil
}
