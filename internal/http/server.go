package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"campusconnect/internal/auth"
	"campusconnect/internal/cache"
	"campusconnect/internal/config"
	"campusconnect/internal/repository"
	"campusconnect/internal/service"
)

type Server struct {
	cfg      config.Config
	codec    *auth.Codec
	resolver *auth.Resolver
	auth     *service.Auth
	events   *service.Events
	projects *service.Projects
	users    *service.Users
	cache    *cache.ResponseCache
	limiter  *rateLimiter
}

func NewServer(cfg config.Config, store *repository.Store, redisClient *redis.Client) *Server {
	codec := auth.NewCodec(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	resolver := auth.NewResolver(store)
	return &Server{
		cfg:      cfg,
		codec:    codec,
		resolver: resolver,
		auth:     service.NewAuth(store, resolver, codec, cfg.BcryptCost),
		events:   service.NewEvents(store),
		projects: service.NewProjects(store),
		users:    service.NewUsers(store, cfg.BcryptCost),
		cache:    cache.NewResponseCache(redisClient, cfg.CacheTTL),
		limiter:  newRateLimiter(cfg.LoginRatePerMin, cfg.LoginRateBurst),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(metricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(s.limiter.middleware).Post("/register", s.handleRegister)
			r.With(s.limiter.middleware).Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.With(s.authMiddleware).Post("/logout", s.handleLogout)
			r.With(s.authMiddleware).Get("/me", s.handleMe)
		})

		r.Route("/events", func(r chi.Router) {
			r.With(s.cache.Cached("events")).Get("/", s.handleListEvents)
			r.With(s.cache.Cached("events")).Get("/categories", s.handleEventCategories)
			r.With(s.authMiddleware).Get("/my-registrations", s.handleMyRegistrations)
			r.With(s.authMiddleware).Post("/", s.handleCreateEvent)
			r.With(s.cache.Cached("events")).Get("/{eventID}", s.handleGetEvent)
			r.With(s.authMiddleware).Put("/{eventID}", s.handleUpdateEvent)
			r.With(s.authMiddleware).Delete("/{eventID}", s.handleDeleteEvent)
			r.With(s.authMiddleware).Post("/{eventID}/register", s.handleRegisterForEvent)
			r.With(s.authMiddleware).Delete("/{eventID}/register", s.handleUnregisterFromEvent)
			r.With(s.authMiddleware).Get("/{eventID}/registration", s.handleRegistrationStatus)
		})

		r.Route("/projects", func(r chi.Router) {
			r.With(s.cache.Cached("projects")).Get("/", s.handleListProjects)
			r.With(s.cache.Cached("projects")).Get("/categories", s.handleProjectCategories)
			r.With(s.authMiddleware).Post("/", s.handleCreateProject)
			r.With(s.cache.Cached("projects")).Get("/{projectID}", s.handleGetProject)
			r.With(s.authMiddleware).Put("/{projectID}", s.handleUpdateProject)
			r.With(s.authMiddleware).Delete("/{projectID}", s.handleDeleteProject)
			r.With(s.authMiddleware).Post("/{projectID}/like", s.handleToggleLike)
			r.With(s.authMiddleware).Get("/{projectID}/like", s.handleLikeStatus)
			r.Get("/{projectID}/comments", s.handleListComments)
			r.With(s.authMiddleware).Post("/{projectID}/comments", s.handleAddComment)
			r.With(s.authMiddleware).Delete("/comments/{commentID}", s.handleDeleteComment)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(s.authMiddleware).Get("/", s.handleListUsers)
			r.With(s.authMiddleware).Get("/search", s.handleSearchUsers)
			r.With(s.authMiddleware).Get("/{userID}", s.handleGetUser)
			r.With(s.authMiddleware).Put("/{userID}", s.handleUpdateUser)
			r.With(s.authMiddleware).Delete("/{userID}", s.handleDeleteUser)
		})
	})

	return r
}

// authMiddleware resolves the bearer token to a live principal. Refresh
// tokens are rejected here so they can never be used as access tokens, and a
// deactivated user's still-valid token stops working immediately.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := s.codec.Parse(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "token_expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		if claims.IsRefresh() {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		principal, err := s.resolver.ResolveByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "invalid_token")
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		ctx := context.WithValue(r.Context(), principalKey{}, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type principalKey struct{}

func principalFromContext(ctx context.Context) *auth.Principal {
	principal, _ := ctx.Value(principalKey{}).(*auth.Principal)
	return principal
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func pageParams(r *http.Request) (limit, offset int) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, _ = strconv.Atoi(raw)
	}
	return limit, offset
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeServiceError maps domain errors to status codes. Unknown errors are
// logged and reported as an opaque 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed")
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "missing_token")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrNotFound),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenInvalidSignature),
		errors.Is(err, auth.ErrTokenMalformed),
		errors.Is(err, auth.ErrTokenUnsupported):
		writeError(w, http.StatusUnauthorized, "invalid_token")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found")
	case errors.Is(err, service.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "event_not_found")
	case errors.Is(err, service.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, "project_not_found")
	case errors.Is(err, service.ErrCommentNotFound):
		writeError(w, http.StatusNotFound, "comment_not_found")
	case errors.Is(err, service.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "email_taken")
	case errors.Is(err, service.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "username_taken")
	case errors.Is(err, service.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "already_registered")
	case errors.Is(err, service.ErrEventFull):
		writeError(w, http.StatusConflict, "event_full")
	case errors.Is(err, service.ErrDeadlinePassed):
		writeError(w, http.StatusUnprocessableEntity, "registration_closed")
	case errors.Is(err, service.ErrEventInPast):
		writeError(w, http.StatusUnprocessableEntity, "event_in_past")
	case errors.Is(err, service.ErrNotRegistered):
		writeError(w, http.StatusUnprocessableEntity, "not_registered")
	default:
		log.Printf("http: unhandled error: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}
