package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"soundshelf/internal/apperr"
	"soundshelf/internal/models"
)

const songSearchLimit = 100

// SongByID returns a single song with its artists.
func (s *Store) SongByID(ctx context.Context, id int64) (models.Song, error) {
	var song models.Song
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, filename
		FROM songs
		WHERE id = $1`, id).Scan(&song.ID, &song.Title, &song.Filename)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Song{}, ErrSongNotFound
	}
	if err != nil {
		return models.Song{}, fmt.Errorf("get song: %w", err)
	}

	songs := []models.Song{song}
	if err := attachArtists(ctx, s.db, songs); err != nil {
		return models.Song{}, err
	}
	return songs[0], nil
}

// SongsByArtist returns the songs credited to an artist.
func (s *Store) SongsByArtist(ctx context.Context, artistID int64) ([]models.Song, error) {
	if _, err := s.ArtistByID(ctx, artistID); err != nil {
		return nil, err
	}
	return s.querySongs(ctx, s.db, `
		SELECT s.id, s.title, s.filename
		FROM songs s
		JOIN artist_songs a ON a.song_id = s.id
		WHERE a.artist_id = $1
		ORDER BY s.id ASC`, artistID)
}

// SearchSongs returns songs whose title contains q, ignoring case.
func (s *Store) SearchSongs(ctx context.Context, q string) ([]models.Song, error) {
	return s.querySongs(ctx, s.db, `
		SELECT id, title, filename
		FROM songs
		WHERE title ILIKE $1
		ORDER BY id ASC
		LIMIT $2`, likePattern(q), songSearchLimit)
}

// CreateSong inserts a song credited to the given artists, all of which must exist.
func (s *Store) CreateSong(ctx context.Context, title, filename string, artistIDs []int64) (models.Song, error) {
	ids := normalizeIDs(artistIDs)
	song := models.Song{Title: title, Filename: filename}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		found, err := existingIDs(ctx, tx, `SELECT id FROM artists WHERE id = ANY($1)`, ids)
		if err != nil {
			return fmt.Errorf("resolve artists: %w", err)
		}
		if missing := missingIDs(ids, found); len(missing) > 0 {
			return apperr.Validation("unknown artist ids: " + joinIDs(missing))
		}

		if err := tx.QueryRowContext(ctx, `
			INSERT INTO songs (title, filename)
			VALUES ($1, $2)
			RETURNING id`, title, filename).Scan(&song.ID); err != nil {
			return fmt.Errorf("insert song: %w", err)
		}

		if len(ids) > 0 {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO artist_songs (artist_id, song_id)
				SELECT id, $1 FROM artists WHERE id = ANY($2)`, song.ID, pq.Array(ids)); err != nil {
				return fmt.Errorf("link artists: %w", err)
			}
		}

		songs := []models.Song{song}
		if err := attachArtists(ctx, tx, songs); err != nil {
			return err
		}
		song = songs[0]
		return nil
	})
	if err != nil {
		return models.Song{}, err
	}
	return song, nil
}

func (s *Store) querySongs(ctx context.Context, q querier, query string, args ...any) ([]models.Song, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]models.Song, 0)
	for rows.Next() {
		var song models.Song
		if err := rows.Scan(&song.ID, &song.Title, &song.Filename); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	rows.Close()

	if err := attachArtists(ctx, q, songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// attachArtists fills the Artists field of every song with one query.
func attachArtists(ctx context.Context, q querier, songs []models.Song) error {
	if len(songs) == 0 {
		return nil
	}

	ids := make([]int64, len(songs))
	for i, song := range songs {
		ids[i] = song.ID
	}

	rows, err := q.QueryContext(ctx, `
		SELECT a_s.song_id, a.id, a.name
		FROM artist_songs a_s
		JOIN artists a ON a.id = a_s.artist_id
		WHERE a_s.song_id = ANY($1)
		ORDER BY a.id ASC`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("list song artists: %w", err)
	}
	defer rows.Close()

	bySong := make(map[int64][]models.Artist)
	for rows.Next() {
		var (
			songID int64
			artist models.Artist
		)
		if err := rows.Scan(&songID, &artist.ID, &artist.Name); err != nil {
			return fmt.Errorf("scan song artist: %w", err)
		}
		bySong[songID] = append(bySong[songID], artist)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate song artists: %w", err)
	}

	for i := range songs {
		songs[i].Artists = bySong[songs[i].ID]
		if songs[i].Artists == nil {
			songs[i].Artists = make([]models.Artist, 0)
		}
	}
	return nil
}

func existingIDs(ctx context.Context, q querier, query string, ids []int64) ([]int64, error) {
	found := make([]int64, 0, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found = append(found, id)
	}
	return found, rows.Err()
}

func missingIDs(want, found []int64) []int64 {
	have := make(map[int64]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}
	var missing []int64
	for _, id := range want {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
