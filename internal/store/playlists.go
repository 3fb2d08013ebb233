package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"soundshelf/internal/models"
)

// PlaylistsByOwner returns every playlist owned by the given user.
func (s *Store) PlaylistsByOwner(ctx context.Context, userID int64) ([]models.Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, user_id, created_at, updated_at
		FROM playlists
		WHERE user_id = $1
		ORDER BY id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]models.Playlist, 0)
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}
	rows.Close()

	for i := range playlists {
		songs, err := s.playlistSongs(ctx, s.db, playlists[i].ID)
		if err != nil {
			return nil, err
		}
		playlists[i].Songs = songs
	}
	return playlists, nil
}

// PlaylistByID returns a single playlist with its songs.
func (s *Store) PlaylistByID(ctx context.Context, id int64) (models.Playlist, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, user_id, created_at, updated_at
		FROM playlists
		WHERE id = $1`, id)
	playlist, err := scanPlaylist(row)
	if err != nil {
		return models.Playlist{}, err
	}

	songs, err := s.playlistSongs(ctx, s.db, playlist.ID)
	if err != nil {
		return models.Playlist{}, err
	}
	playlist.Songs = songs
	return playlist, nil
}

// CreatePlaylist inserts a playlist owned by ownerID and links the songs among
// songIDs that exist. Unknown song ids are dropped.
func (s *Store) CreatePlaylist(ctx context.Context, ownerID int64, name string, songIDs []int64) (models.Playlist, error) {
	playlist := models.Playlist{Name: name, UserID: ownerID}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO playlists (name, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $3)
			RETURNING id, created_at, updated_at`,
			name, ownerID, now,
		).Scan(&playlist.ID, &playlist.CreatedAt, &playlist.UpdatedAt); err != nil {
			if isForeignKeyViolation(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("insert playlist: %w", err)
		}

		if err := linkSongsTx(ctx, tx, playlist.ID, normalizeIDs(songIDs)); err != nil {
			return err
		}

		songs, err := s.playlistSongs(ctx, tx, playlist.ID)
		if err != nil {
			return err
		}
		playlist.Songs = songs
		return nil
	})
	if err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

// ReplacePlaylist renames a playlist and replaces its whole song set in one
// transaction. Repeating a call with the same set leaves membership unchanged.
func (s *Store) ReplacePlaylist(ctx context.Context, id int64, name string, songIDs []int64) (models.Playlist, error) {
	playlist := models.Playlist{ID: id, Name: name}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE playlists
			SET name = $1, updated_at = $2
			WHERE id = $3
			RETURNING user_id, created_at, updated_at`,
			name, time.Now().UTC(), id,
		).Scan(&playlist.UserID, &playlist.CreatedAt, &playlist.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPlaylistNotFound
		}
		if err != nil {
			return fmt.Errorf("update playlist: %w", err)
		}

		if err := replaceMembershipTx(ctx, tx, id, normalizeIDs(songIDs)); err != nil {
			return err
		}

		songs, err := s.playlistSongs(ctx, tx, id)
		if err != nil {
			return err
		}
		playlist.Songs = songs
		return nil
	})
	if err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

// DeletePlaylist unlinks every song of a playlist and then removes the playlist.
func (s *Store) DeletePlaylist(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_songs WHERE playlist_id = $1`, id); err != nil {
			return fmt.Errorf("clear playlist songs: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM playlists WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete playlist: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return ErrPlaylistNotFound
		}
		return nil
	})
}

// replaceMembershipTx unlinks members missing from songIDs and links the new ones.
func replaceMembershipTx(ctx context.Context, tx *sql.Tx, playlistID int64, songIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM playlist_songs
		WHERE playlist_id = $1 AND NOT (song_id = ANY($2))`, playlistID, pq.Array(songIDs)); err != nil {
		return fmt.Errorf("unlink playlist songs: %w", err)
	}
	return linkSongsTx(ctx, tx, playlistID, songIDs)
}

func linkSongsTx(ctx context.Context, tx *sql.Tx, playlistID int64, songIDs []int64) error {
	if len(songIDs) == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO playlist_songs (playlist_id, song_id)
		SELECT $1, id FROM songs WHERE id = ANY($2)
		ON CONFLICT (playlist_id, song_id) DO NOTHING`, playlistID, pq.Array(songIDs)); err != nil {
		return fmt.Errorf("link playlist songs: %w", err)
	}
	return nil
}

func (s *Store) playlistSongs(ctx context.Context, q querier, playlistID int64) ([]models.Song, error) {
	return s.querySongs(ctx, q, `
		SELECT s.id, s.title, s.filename
		FROM songs s
		JOIN playlist_songs ps ON ps.song_id = s.id
		WHERE ps.playlist_id = $1
		ORDER BY s.id ASC`, playlistID)
}

func scanPlaylist(row rowScanner) (models.Playlist, error) {
	var playlist models.Playlist
	err := row.Scan(&playlist.ID, &playlist.Name, &playlist.UserID, &playlist.CreatedAt, &playlist.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Playlist{}, ErrPlaylistNotFound
	}
	if err != nil {
		return models.Playlist{}, fmt.Errorf("scan playlist: %w", err)
	}
	return playlist, nil
}
