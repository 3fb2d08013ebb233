package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"soundshelf/internal/app/catalog"
	"soundshelf/internal/app/playlists"
	"soundshelf/internal/app/users"
	"soundshelf/internal/apperr"
	"soundshelf/internal/auth"
	"soundshelf/internal/http/middleware"
	"soundshelf/internal/logging"
	"soundshelf/internal/models"
)

const maxBodyBytes = 1 << 20

// Config collects the dependencies of a Server.
type Config struct {
	Users     users.Service
	Catalog   catalog.Service
	Playlists playlists.Service
	Guard     *auth.Guard
	// AuthLimiter throttles register and login. Nil disables throttling.
	AuthLimiter    *middleware.RateLimiter
	AllowedOrigins []string
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	users          users.Service
	catalog        catalog.Service
	playlists      playlists.Service
	guard          *auth.Guard
	authLimiter    *middleware.RateLimiter
	allowedOrigins []string
}

// New configures a Server from cfg.
func New(cfg Config) *Server {
	return &Server{
		users:          cfg.Users,
		catalog:        cfg.Catalog,
		playlists:      cfg.Playlists,
		guard:          cfg.Guard,
		authLimiter:    cfg.AuthLimiter,
		allowedOrigins: cfg.AllowedOrigins,
	}
}

// Routes exposes the API under /api wrapped in logging, recovery and CORS.
func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/alive", s.handleAlive).Methods(http.MethodGet)

	s.registerUserRoutes(api)
	s.registerArtistRoutes(api)
	s.registerSongRoutes(api)
	s.registerPlaylistRoutes(api)

	var handler http.Handler = router
	handler = middleware.CORS(s.allowedOrigins)(handler)
	handler = middleware.Recovery()(handler)
	handler = middleware.RequestLogging()(handler)
	return handler
}

func (s *Server) handleAlive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

// identityHandler is a handler that runs on behalf of a verified caller.
type identityHandler func(w http.ResponseWriter, r *http.Request, identity auth.Identity)

// authenticated verifies the bearer token before calling next.
func (s *Server) authenticated(next identityHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.guard.RequireAuthenticated(parseBearerToken(r.Header.Get("Authorization")))
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := auth.WithIdentity(r.Context(), identity)
		ctx = logging.WithUserID(ctx, identity.UserID)
		next(w, r.WithContext(ctx), identity)
	})
}

// withRoles is authenticated plus a role gate.
func (s *Server) withRoles(next identityHandler, allowed ...models.Role) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, identity auth.Identity) {
		if err := auth.RequireRole(identity, allowed...); err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r, identity)
	})
}

// limited applies the auth rate limiter when one is configured.
func (s *Server) limited(next http.HandlerFunc) http.Handler {
	if s.authLimiter == nil {
		return next
	}
	return s.authLimiter.Middleware(next)
}

func parseBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid request body")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id")
	}
	return id, nil
}

// writeError renders err with the status of its kind. Internal faults are
// logged and replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: apperr.Message(err)})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
