// Package catalog serves the artist and song catalog.
package catalog

import (
	"context"
	"strings"
	"unicode/utf8"

	"soundshelf/internal/apperr"
	"soundshelf/internal/models"
)

const maxNameLength = 255

// Store captures the persistence needs of the catalog.
type Store interface {
	ListArtists(ctx context.Context) ([]models.Artist, error)
	ListLatestArtists(ctx context.Context, offset int) ([]models.Artist, error)
	SearchArtists(ctx context.Context, q string) ([]models.Artist, error)
	ArtistByID(ctx context.Context, id int64) (models.Artist, error)
	CreateArtist(ctx context.Context, name string) (models.Artist, error)
	UpdateArtist(ctx context.Context, id int64, name string) (models.Artist, error)
	DeleteArtist(ctx context.Context, id int64) error
	CountArtists(ctx context.Context) (int64, error)

	SongByID(ctx context.Context, id int64) (models.Song, error)
	SongsByArtist(ctx context.Context, artistID int64) ([]models.Song, error)
	SearchSongs(ctx context.Context, q string) ([]models.Song, error)
	CreateSong(ctx context.Context, title, filename string, artistIDs []int64) (models.Song, error)
}

// Service exposes catalog reads and the privileged catalog mutations. Callers
// are expected to gate the mutations on role.
type Service interface {
	Artists(ctx context.Context) ([]models.Artist, error)
	LatestArtists(ctx context.Context, offset int) ([]models.Artist, error)
	SearchArtists(ctx context.Context, q string) ([]models.Artist, error)
	Artist(ctx context.Context, id int64) (models.Artist, error)
	ArtistCount(ctx context.Context) (int64, error)
	SongsOfArtist(ctx context.Context, artistID int64) ([]models.Song, error)
	CreateArtist(ctx context.Context, name string) (models.Artist, error)
	UpdateArtist(ctx context.Context, id int64, name string) (models.Artist, error)
	DeleteArtist(ctx context.Context, id int64) error

	Song(ctx context.Context, id int64) (models.Song, error)
	SearchSongs(ctx context.Context, q string) ([]models.Song, error)
	CreateSong(ctx context.Context, title, filename string, artistIDs []int64) (models.Song, error)
}

type service struct {
	store Store
}

// New constructs a catalog Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Artists(ctx context.Context) ([]models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListArtists(ctx)
}

func (s *service) LatestArtists(ctx context.Context, offset int) ([]models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, apperr.Validation("from must not be negative")
	}
	return s.store.ListLatestArtists(ctx, offset)
}

func (s *service) SearchArtists(ctx context.Context, q string) ([]models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.SearchArtists(ctx, strings.TrimSpace(q))
}

func (s *service) Artist(ctx context.Context, id int64) (models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return models.Artist{}, err
	}
	return s.store.ArtistByID(ctx, id)
}

func (s *service) ArtistCount(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.store.CountArtists(ctx)
}

func (s *service) SongsOfArtist(ctx context.Context, artistID int64) ([]models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.SongsByArtist(ctx, artistID)
}

func (s *service) CreateArtist(ctx context.Context, name string) (models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return models.Artist{}, err
	}
	name, err := validName("name", name)
	if err != nil {
		return models.Artist{}, err
	}
	return s.store.CreateArtist(ctx, name)
}

func (s *service) UpdateArtist(ctx context.Context, id int64, name string) (models.Artist, error) {
	if err := ctx.Err(); err != nil {
		return models.Artist{}, err
	}
	name, err := validName("name", name)
	if err != nil {
		return models.Artist{}, err
	}
	return s.store.UpdateArtist(ctx, id, name)
}

func (s *service) DeleteArtist(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteArtist(ctx, id)
}

func (s *service) Song(ctx context.Context, id int64) (models.Song, error) {
	if err := ctx.Err(); err != nil {
		return models.Song{}, err
	}
	return s.store.SongByID(ctx, id)
}

func (s *service) SearchSongs(ctx context.Context, q string) ([]models.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.SearchSongs(ctx, strings.TrimSpace(q))
}

func (s *service) CreateSong(ctx context.Context, title, filename string, artistIDs []int64) (models.Song, error) {
	if err := ctx.Err(); err != nil {
		return models.Song{}, err
	}
	title, err := validName("title", title)
	if err != nil {
		return models.Song{}, err
	}
	filename, err = validName("filename", filename)
	if err != nil {
		return models.Song{}, err
	}
	if len(artistIDs) == 0 {
		return models.Song{}, apperr.Validation("a song needs at least one artist")
	}
	return s.store.CreateSong(ctx, title, filename, artistIDs)
}

func validName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperr.Validation(field + " is required")
	}
	if utf8.RuneCountInString(value) > maxNameLength {
		return "", apperr.Validation(field + " is too long")
	}
	return value, nil
}
