package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"soundshelf/internal/auth"
)

type playlistRequest struct {
	Name  string  `json:"name"`
	Songs []int64 `json:"songs"`
}

func (s *Server) registerPlaylistRoutes(api *mux.Router) {
	api.Handle("/playlists/user/{username}", s.authenticated(s.handleUserPlaylists)).Methods(http.MethodGet)
	api.Handle("/playlists", s.authenticated(s.handleCreatePlaylist)).Methods(http.MethodPost)
	api.Handle("/playlists/{id:[0-9]+}", s.authenticated(s.handleGetPlaylist)).Methods(http.MethodGet)
	api.Handle("/playlists/{id:[0-9]+}", s.authenticated(s.handleUpdatePlaylist)).Methods(http.MethodPut)
	api.Handle("/playlists/{id:[0-9]+}", s.authenticated(s.handleDeletePlaylist)).Methods(http.MethodDelete)
}

func (s *Server) handleUserPlaylists(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	list, err := s.playlists.ListByUsername(r.Context(), identity, mux.Vars(r)["username"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var req playlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	playlist, err := s.playlists.Create(r.Context(), identity, req.Name, req.Songs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, playlist)
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	playlist, err := s.playlists.Get(r.Context(), identity, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req playlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	playlist, err := s.playlists.Update(r.Context(), identity, id, req.Name, req.Songs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.playlists.Delete(r.Context(), identity, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
