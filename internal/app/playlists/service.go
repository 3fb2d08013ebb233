package playlists

import (
	"context"
	"strings"
	"unicode/utf8"

	"soundshelf/internal/apperr"
	"soundshelf/internal/auth"
	"soundshelf/internal/models"
)

const (
	minNameLength = 3
	maxNameLength = 255
)

// Store captures the persistence needs for playlist workflows.
type Store interface {
	UserByUsername(ctx context.Context, username string) (models.User, error)
	PlaylistsByOwner(ctx context.Context, userID int64) ([]models.Playlist, error)
	PlaylistByID(ctx context.Context, id int64) (models.Playlist, error)
	CreatePlaylist(ctx context.Context, ownerID int64, name string, songIDs []int64) (models.Playlist, error)
	ReplacePlaylist(ctx context.Context, id int64, name string, songIDs []int64) (models.Playlist, error)
	DeletePlaylist(ctx context.Context, id int64) error
}

// Service coordinates playlist operations. Every call is made on behalf of an
// authenticated identity and only the owner or an admin may touch a playlist.
type Service interface {
	ListByUsername(ctx context.Context, identity auth.Identity, username string) ([]models.Playlist, error)
	Get(ctx context.Context, identity auth.Identity, id int64) (models.Playlist, error)
	Create(ctx context.Context, identity auth.Identity, name string, songIDs []int64) (models.Playlist, error)
	Update(ctx context.Context, identity auth.Identity, id int64, name string, songIDs []int64) (models.Playlist, error)
	Delete(ctx context.Context, identity auth.Identity, id int64) error
}

type service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) ListByUsername(ctx context.Context, identity auth.Identity, username string) ([]models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	owner, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwnerOrRole(identity, owner.ID, models.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.PlaylistsByOwner(ctx, owner.ID)
}

func (s *service) Get(ctx context.Context, identity auth.Identity, id int64) (models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return models.Playlist{}, err
	}
	return s.owned(ctx, identity, id)
}

func (s *service) Create(ctx context.Context, identity auth.Identity, name string, songIDs []int64) (models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return models.Playlist{}, err
	}
	if err := auth.RequireRole(identity, models.RoleUser, models.RoleEditor, models.RoleAdmin); err != nil {
		return models.Playlist{}, err
	}

	name, err := validName(name)
	if err != nil {
		return models.Playlist{}, err
	}
	return s.store.CreatePlaylist(ctx, identity.UserID, name, songIDs)
}

func (s *service) Update(ctx context.Context, identity auth.Identity, id int64, name string, songIDs []int64) (models.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return models.Playlist{}, err
	}

	if _, err := s.owned(ctx, identity, id); err != nil {
		return models.Playlist{}, err
	}
	name, err := validName(name)
	if err != nil {
		return models.Playlist{}, err
	}
	return s.store.ReplacePlaylist(ctx, id, name, songIDs)
}

func (s *service) Delete(ctx context.Context, identity auth.Identity, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.owned(ctx, identity, id); err != nil {
		return err
	}
	return s.store.DeletePlaylist(ctx, id)
}

// owned loads a playlist and checks that identity may act on it.
func (s *service) owned(ctx context.Context, identity auth.Identity, id int64) (models.Playlist, error) {
	playlist, err := s.store.PlaylistByID(ctx, id)
	if err != nil {
		return models.Playlist{}, err
	}
	if err := auth.RequireOwnerOrRole(identity, playlist.UserID, models.RoleAdmin); err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < minNameLength {
		return "", apperr.Validation("name must be at least 3 characters")
	}
	if n > maxNameLength {
		return "", apperr.Validation("name is too long")
	}
	return name, nil
}
