/*
Package handler provides the HTTP handlers and routing setup for the voice service.

This file defines the main Router, applying logging, CORS and recovery middleware
before delegating requests to the grant, presence and watch handlers.
*/
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"voicesvc/internal/app/presence"
	"voicesvc/internal/pkg/auth/matrix"
	"voicesvc/internal/pkg/logx"
	"voicesvc/internal/pkg/resp"
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// Grant issuance sits behind the Matrix identity gate; roster reads, the webhook
// and the watch stream are open.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", HandleHealth())

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.With(matrix.RequireIdentity(deps.Verifier, deps.Metrics)).
		Post("/token", HandleIssueToken(deps))

	r.Route("/participants", func(p chi.Router) {
		p.Post("/webhook", HandlePresenceWebhook(deps))
		p.Get("/{channelId}", HandleListParticipants(deps))
		p.Get("/{channelId}/watch", HandleWatchParticipants(wsUpgrader, deps))
	})

	return r
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HandleHealth reports liveness with the current server time.
func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logx.Debug("Health check endpoint hit")

		resp.RespondSuccess(w, r, healthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(presence.TimestampLayout),
		})
	}
}
