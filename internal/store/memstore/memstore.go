// Package memstore keeps the catalog in process memory. It mirrors the
// Postgres store method for method and returns the same sentinel errors.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"soundshelf/internal/apperr"
	"soundshelf/internal/models"
	"soundshelf/internal/store"
)

type userRecord struct {
	user models.User
	hash string
}

// Store is a concurrency-safe in-memory backend.
type Store struct {
	mu sync.RWMutex

	users     map[int64]*userRecord
	artists   map[int64]models.Artist
	songs     map[int64]models.Song
	playlists map[int64]models.Playlist

	// songArtists maps a song id to the ids of its credited artists.
	songArtists map[int64][]int64
	// members maps a playlist id to the set of song ids it holds.
	members map[int64]map[int64]struct{}

	nextUserID     int64
	nextArtistID   int64
	nextSongID     int64
	nextPlaylistID int64

	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:          make(map[int64]*userRecord),
		artists:        make(map[int64]models.Artist),
		songs:          make(map[int64]models.Song),
		playlists:      make(map[int64]models.Playlist),
		songArtists:    make(map[int64][]int64),
		members:        make(map[int64]map[int64]struct{}),
		nextUserID:     1,
		nextArtistID:   1,
		nextSongID:     1,
		nextPlaylistID: 1,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// CreateUser inserts a user. The first user ever registered is made an admin.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.users {
		if rec.user.Username == username || rec.user.Email == email {
			return models.User{}, store.ErrUserExists
		}
	}

	role := models.RoleUser
	if len(s.users) == 0 {
		role = models.RoleAdmin
	}

	user := models.User{
		ID:        s.nextUserID,
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: s.now(),
	}
	s.nextUserID++
	s.users[user.ID] = &userRecord{user: user, hash: passwordHash}
	return user, nil
}

// UserByID returns the user with the given id.
func (s *Store) UserByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[id]
	if !ok {
		return models.User{}, store.ErrUserNotFound
	}
	return rec.user, nil
}

// UserByUsername returns the user with the given username.
func (s *Store) UserByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.users {
		if rec.user.Username == username {
			return rec.user, nil
		}
	}
	return models.User{}, store.ErrUserNotFound
}

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, id := range sortedKeys(s.users) {
		users = append(users, s.users[id].user)
	}
	return users, nil
}

// CredentialsByEmail returns the user and password hash for email.
func (s *Store) CredentialsByEmail(_ context.Context, email string) (models.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.users {
		if rec.user.Email == email {
			return models.Credentials{User: rec.user, PasswordHash: rec.hash}, nil
		}
	}
	return models.Credentials{}, store.ErrUserNotFound
}

// CredentialsByID returns the user and password hash for id.
func (s *Store) CredentialsByID(_ context.Context, id int64) (models.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[id]
	if !ok {
		return models.Credentials{}, store.ErrUserNotFound
	}
	return models.Credentials{User: rec.user, PasswordHash: rec.hash}, nil
}

// UpdateUserRole sets the role of a user and returns the updated user.
func (s *Store) UpdateUserRole(_ context.Context, id int64, role models.Role) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return models.User{}, store.ErrUserNotFound
	}
	rec.user.Role = role
	return rec.user, nil
}

// UpdateUserPassword replaces the stored password hash of a user.
func (s *Store) UpdateUserPassword(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	rec.hash = passwordHash
	return nil
}

// DeleteUser removes a user together with their playlists and memberships.
func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrUserNotFound
	}
	for pid, playlist := range s.playlists {
		if playlist.UserID == id {
			delete(s.members, pid)
			delete(s.playlists, pid)
		}
	}
	delete(s.users, id)
	return nil
}

// ListArtists returns every artist ordered by name.
func (s *Store) ListArtists(_ context.Context) ([]models.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artists := s.artistsWhere(func(models.Artist) bool { return true })
	slices.SortStableFunc(artists, func(a, b models.Artist) int {
		return strings.Compare(a.Name, b.Name)
	})
	return artists, nil
}

// ListLatestArtists returns one page of artists, newest first.
func (s *Store) ListLatestArtists(_ context.Context, offset int) ([]models.Artist, error) {
	if offset < 0 {
		offset = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	artists := s.artistsWhere(func(models.Artist) bool { return true })
	slices.Reverse(artists)
	if offset >= len(artists) {
		return make([]models.Artist, 0), nil
	}
	end := min(offset+store.LatestPageSize, len(artists))
	return artists[offset:end], nil
}

// SearchArtists returns artists whose name contains q, ignoring case.
func (s *Store) SearchArtists(_ context.Context, q string) ([]models.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(q)
	return s.artistsWhere(func(a models.Artist) bool {
		return strings.Contains(strings.ToLower(a.Name), needle)
	}), nil
}

// ArtistByID returns the artist with the given id.
func (s *Store) ArtistByID(_ context.Context, id int64) (models.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artist, ok := s.artists[id]
	if !ok {
		return models.Artist{}, store.ErrArtistNotFound
	}
	return artist, nil
}

// CreateArtist inserts an artist.
func (s *Store) CreateArtist(_ context.Context, name string) (models.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	artist := models.Artist{ID: s.nextArtistID, Name: name}
	s.nextArtistID++
	s.artists[artist.ID] = artist
	return artist, nil
}

// UpdateArtist renames an artist.
func (s *Store) UpdateArtist(_ context.Context, id int64, name string) (models.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.artists[id]; !ok {
		return models.Artist{}, store.ErrArtistNotFound
	}
	artist := models.Artist{ID: id, Name: name}
	s.artists[id] = artist
	return artist, nil
}

// DeleteArtist removes an artist. Its songs stay in the catalog.
func (s *Store) DeleteArtist(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.artists[id]; !ok {
		return store.ErrArtistNotFound
	}
	for songID, artistIDs := range s.songArtists {
		s.songArtists[songID] = slices.DeleteFunc(artistIDs, func(a int64) bool { return a == id })
	}
	delete(s.artists, id)
	return nil
}

// CountArtists returns the number of artists in the catalog.
func (s *Store) CountArtists(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.artists)), nil
}

// SongByID returns the song with the given id and its artists.
func (s *Store) SongByID(_ context.Context, id int64) (models.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.songs[id]; !ok {
		return models.Song{}, store.ErrSongNotFound
	}
	return s.songLocked(id), nil
}

// SongsByArtist returns every song credited to the artist.
func (s *Store) SongsByArtist(_ context.Context, artistID int64) ([]models.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.artists[artistID]; !ok {
		return nil, store.ErrArtistNotFound
	}
	return s.songsWhere(func(song models.Song) bool {
		return slices.Contains(s.songArtists[song.ID], artistID)
	}), nil
}

// SearchSongs returns songs whose title contains q, ignoring case.
func (s *Store) SearchSongs(_ context.Context, q string) ([]models.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(q)
	songs := s.songsWhere(func(song models.Song) bool {
		return strings.Contains(strings.ToLower(song.Title), needle)
	})
	if len(songs) > songSearchLimit {
		songs = songs[:songSearchLimit]
	}
	return songs, nil
}

// CreateSong inserts a song credited to the given artists, all of which must exist.
func (s *Store) CreateSong(_ context.Context, title, filename string, artistIDs []int64) (models.Song, error) {
	ids := normalizeIDs(artistIDs)

	s.mu.Lock()
	defer s.mu.Unlock()

	var missing []string
	for _, id := range ids {
		if _, ok := s.artists[id]; !ok {
			missing = append(missing, fmt.Sprint(id))
		}
	}
	if len(missing) > 0 {
		return models.Song{}, apperr.Validation("unknown artist ids: " + strings.Join(missing, ", "))
	}

	song := models.Song{ID: s.nextSongID, Title: title, Filename: filename}
	s.nextSongID++
	s.songs[song.ID] = song
	s.songArtists[song.ID] = ids
	return s.songLocked(song.ID), nil
}

// PlaylistsByOwner returns every playlist owned by the given user.
func (s *Store) PlaylistsByOwner(_ context.Context, userID int64) ([]models.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playlists := make([]models.Playlist, 0)
	for _, id := range sortedKeys(s.playlists) {
		if s.playlists[id].UserID == userID {
			playlists = append(playlists, s.playlistLocked(id))
		}
	}
	return playlists, nil
}

// PlaylistByID returns a single playlist with its songs.
func (s *Store) PlaylistByID(_ context.Context, id int64) (models.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.playlists[id]; !ok {
		return models.Playlist{}, store.ErrPlaylistNotFound
	}
	return s.playlistLocked(id), nil
}

// CreatePlaylist inserts a playlist owned by ownerID and links the songs among
// songIDs that exist. Unknown song ids are dropped.
func (s *Store) CreatePlaylist(_ context.Context, ownerID int64, name string, songIDs []int64) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[ownerID]; !ok {
		return models.Playlist{}, store.ErrUserNotFound
	}

	now := s.now()
	playlist := models.Playlist{
		ID:        s.nextPlaylistID,
		Name:      name,
		UserID:    ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextPlaylistID++
	s.playlists[playlist.ID] = playlist
	s.members[playlist.ID] = s.knownSongs(songIDs)
	return s.playlistLocked(playlist.ID), nil
}

// ReplacePlaylist renames a playlist and replaces its whole song set.
func (s *Store) ReplacePlaylist(_ context.Context, id int64, name string, songIDs []int64) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, store.ErrPlaylistNotFound
	}
	playlist.Name = name
	playlist.UpdatedAt = s.now()
	s.playlists[id] = playlist
	s.members[id] = s.knownSongs(songIDs)
	return s.playlistLocked(id), nil
}

// DeletePlaylist removes a playlist and its memberships.
func (s *Store) DeletePlaylist(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.playlists[id]; !ok {
		return store.ErrPlaylistNotFound
	}
	delete(s.members, id)
	delete(s.playlists, id)
	return nil
}
