package main

import (
	"net/http"

	"soundshelf/internal/app/catalog"
	"soundshelf/internal/app/playlists"
	"soundshelf/internal/app/users"
	"soundshelf/internal/auth"
	"soundshelf/internal/config"
	"soundshelf/internal/http/middleware"
	"soundshelf/internal/httpapi"
)

func newHTTPHandler(cfg *config.Config, repo repository) http.Handler {
	tokens := auth.NewTokens(cfg.Security.JWTSecret, cfg.Security.TokenTTL, cfg.Security.Issuer)
	credentials := auth.NewCredentials(cfg.Security.BcryptCost)

	return httpapi.New(httpapi.Config{
		Users:          users.New(repo, credentials, tokens),
		Catalog:        catalog.New(repo),
		Playlists:      playlists.New(repo),
		Guard:          auth.NewGuard(tokens),
		AuthLimiter:    middleware.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}).Routes()
}
