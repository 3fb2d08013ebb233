package memstore

import (
	"cmp"
	"slices"

	"soundshelf/internal/models"
)

const songSearchLimit = 100

// The helpers below expect s.mu to be held by the caller.

func (s *Store) artistsWhere(keep func(models.Artist) bool) []models.Artist {
	artists := make([]models.Artist, 0)
	for _, id := range sortedKeys(s.artists) {
		if artist := s.artists[id]; keep(artist) {
			artists = append(artists, artist)
		}
	}
	return artists
}

func (s *Store) songsWhere(keep func(models.Song) bool) []models.Song {
	songs := make([]models.Song, 0)
	for _, id := range sortedKeys(s.songs) {
		if keep(s.songs[id]) {
			songs = append(songs, s.songLocked(id))
		}
	}
	return songs
}

func (s *Store) songLocked(id int64) models.Song {
	song := s.songs[id]
	ids := slices.Clone(s.songArtists[id])
	slices.Sort(ids)

	song.Artists = make([]models.Artist, 0, len(ids))
	for _, artistID := range ids {
		if artist, ok := s.artists[artistID]; ok {
			song.Artists = append(song.Artists, artist)
		}
	}
	return song
}

func (s *Store) playlistLocked(id int64) models.Playlist {
	playlist := s.playlists[id]
	playlist.Songs = make([]models.Song, 0, len(s.members[id]))
	for _, songID := range sortedKeys(s.members[id]) {
		if _, ok := s.songs[songID]; ok {
			playlist.Songs = append(playlist.Songs, s.songLocked(songID))
		}
	}
	return playlist
}

// knownSongs returns the set of ids in songIDs that name stored songs.
func (s *Store) knownSongs(songIDs []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(songIDs))
	for _, id := range songIDs {
		if _, ok := s.songs[id]; ok {
			set[id] = struct{}{}
		}
	}
	return set
}

func normalizeIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
