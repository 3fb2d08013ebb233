package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"soundshelf/internal/auth"
	"soundshelf/internal/models"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type roleRequest struct {
	Type models.Role `json:"type"`
}

func (s *Server) registerUserRoutes(api *mux.Router) {
	api.Handle("/users/register", s.limited(s.handleRegister)).Methods(http.MethodPost)
	api.Handle("/users/login", s.limited(s.handleLogin)).Methods(http.MethodPost)
	api.Handle("/users/refresh", s.authenticated(s.handleRefresh)).Methods(http.MethodGet)
	api.Handle("/users/password", s.authenticated(s.handleUpdatePassword)).Methods(http.MethodPut)
	api.Handle("/users", s.withRoles(s.handleListUsers, models.RoleAdmin)).Methods(http.MethodGet)
	api.Handle("/users/{id:[0-9]+}", s.withRoles(s.handleUpdateUserRole, models.RoleAdmin)).Methods(http.MethodPut)
	api.Handle("/users/{id:[0-9]+}", s.withRoles(s.handleDeleteUser, models.RoleAdmin)).Methods(http.MethodDelete)
	api.HandleFunc("/users/{username}", s.handleGetUser).Methods(http.MethodGet)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.users.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	result, err := s.users.Refresh(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.users.UpdatePassword(r.Context(), identity.UserID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	list, err := s.users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.ByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUserRole(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.users.UpdateRole(r.Context(), id, req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.users.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
