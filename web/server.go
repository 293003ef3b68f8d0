// Package web exposes the HTTP and websocket surface: account endpoints,
// room management, history, search and the live message stream.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"babelroom/auth"
	"babelroom/domain"
	"babelroom/observability"
	"babelroom/services"
)

type Server struct {
	log          *slog.Logger
	chatService  services.IChatService
	authService  services.IAuthService
	tokens       *auth.TokenManager
	metrics      *observability.Metrics
	limitResults int
}

func NewServer(log *slog.Logger, chatService services.IChatService,
	authService services.IAuthService, tokens *auth.TokenManager,
	metrics *observability.Metrics, limitResults int) *Server {
	return &Server{
		log:          log,
		chatService:  chatService,
		authService:  authService,
		tokens:       tokens,
		metrics:      metrics,
		limitResults: limitResults,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/api/register", s.handleRegister)
	r.Post("/api/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/api/rooms", s.handleCreateRoom)
		r.Get("/api/rooms/{code}", s.handleGetRoom)
		r.Get("/api/rooms/{code}/messages", s.handleGetMessages)
		r.Get("/api/rooms/{code}/search", s.handleSearch)
		r.Get("/api/stats", s.handleStats)
		r.Get("/ws/rooms/{code}", s.handleRoomStream)
	})

	return r
}

type contextKey string

const viewerKey contextKey = "viewer"

// authenticate rebuilds the viewer from the bearer token. The claims carry
// everything delivery needs, so no store lookup happens per request.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := s.tokens.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		viewer := domain.User{
			ID:                claims.UserID,
			Email:             claims.Email,
			PreferredLanguage: claims.Language,
			Roles:             claims.Roles,
		}
		ctx := context.WithValue(r.Context(), viewerKey, viewer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func viewerFrom(r *http.Request) domain.User {
	viewer, _ := r.Context().Value(viewerKey).(domain.User)
	return viewer
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Browsers cannot set headers on websocket dials, so the token may ride
	// the query string for the stream endpoint.
	return r.URL.Query().Get("token")
}
