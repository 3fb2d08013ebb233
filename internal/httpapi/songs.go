package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"soundshelf/internal/auth"
)

type songRequest struct {
	Title    string  `json:"title"`
	Filename string  `json:"filename"`
	Artists  []int64 `json:"artists"`
}

func (s *Server) registerSongRoutes(api *mux.Router) {
	api.HandleFunc("/songs/search", s.handleSearchSongs).Methods(http.MethodGet)
	api.HandleFunc("/songs/{id:[0-9]+}", s.handleGetSong).Methods(http.MethodGet)
	api.Handle("/songs", s.withRoles(s.handleCreateSong, catalogEditors...)).Methods(http.MethodPost)
}

func (s *Server) handleSearchSongs(w http.ResponseWriter, r *http.Request) {
	q, ok := searchQuery(w, r)
	if !ok {
		return
	}
	songs, err := s.catalog.SearchSongs(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	song, err := s.catalog.Song(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (s *Server) handleCreateSong(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	var req songRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	song, err := s.catalog.CreateSong(r.Context(), req.Title, req.Filename, req.Artists)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, song)
}
