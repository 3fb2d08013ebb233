package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"soundshelf/internal/apperr"
	"soundshelf/internal/auth"
	"soundshelf/internal/models"
)

type artistRequest struct {
	Name string `json:"name"`
}

var catalogEditors = []models.Role{models.RoleEditor, models.RoleAdmin}

func (s *Server) registerArtistRoutes(api *mux.Router) {
	api.HandleFunc("/artists", s.handleListArtists).Methods(http.MethodGet)
	api.HandleFunc("/artists/latest", s.handleLatestArtists).Methods(http.MethodGet)
	api.HandleFunc("/artists/search", s.handleSearchArtists).Methods(http.MethodGet)
	api.HandleFunc("/artists/count", s.handleArtistCount).Methods(http.MethodGet)
	api.HandleFunc("/artists/{id:[0-9]+}", s.handleGetArtist).Methods(http.MethodGet)
	api.HandleFunc("/artists/{id:[0-9]+}/songs", s.handleArtistSongs).Methods(http.MethodGet)

	api.Handle("/artists", s.withRoles(s.handleCreateArtist, catalogEditors...)).Methods(http.MethodPost)
	api.Handle("/artists/{id:[0-9]+}", s.withRoles(s.handleUpdateArtist, catalogEditors...)).Methods(http.MethodPut)
	api.Handle("/artists/{id:[0-9]+}", s.withRoles(s.handleDeleteArtist, catalogEditors...)).Methods(http.MethodDelete)
}

func (s *Server) handleListArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := s.catalog.Artists(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

func (s *Server) handleLatestArtists(w http.ResponseWriter, r *http.Request) {
	from := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, apperr.Validation("from must be an integer"))
			return
		}
		from = parsed
	}

	artists, err := s.catalog.LatestArtists(r.Context(), from)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

func (s *Server) handleSearchArtists(w http.ResponseWriter, r *http.Request) {
	q, ok := searchQuery(w, r)
	if !ok {
		return
	}
	artists, err := s.catalog.SearchArtists(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

func (s *Server) handleArtistCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.catalog.ArtistCount(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: count})
}

func (s *Server) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	artist, err := s.catalog.Artist(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

func (s *Server) handleArtistSongs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	songs, err := s.catalog.SongsOfArtist(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (s *Server) handleCreateArtist(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	var req artistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	artist, err := s.catalog.CreateArtist(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, artist)
}

func (s *Server) handleUpdateArtist(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req artistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	artist, err := s.catalog.UpdateArtist(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

func (s *Server) handleDeleteArtist(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.catalog.DeleteArtist(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func searchQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, r, apperr.Validation("q is required"))
		return "", false
	}
	return q, true
}
