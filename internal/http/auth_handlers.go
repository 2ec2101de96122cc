package http

import (
	"net/http"
	"strings"
	"time"

	"campusconnect/internal/model"
	"campusconnect/internal/service"
)

type userSummary struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Role          model.Role `json:"role"`
	Department    *string    `json:"department,omitempty"`
	Bio           *string    `json:"bio,omitempty"`
	EmailVerified bool       `json:"emailVerified"`
	LastLogin     *string    `json:"lastLogin,omitempty"`
	CreatedAt     string     `json:"createdAt"`
}

func mapUserSummary(user model.User) userSummary {
	summary := userSummary{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Role:          user.Role,
		Department:    user.Department,
		Bio:           user.Bio,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt.UTC().Format(time.RFC3339),
	}
	if user.LastLogin != nil {
		lastLogin := user.LastLogin.UTC().Format(time.RFC3339)
		summary.LastLogin = &lastLogin
	}
	return summary
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	user, err := s.auth.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapUserSummary(user))
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}
	if identifier == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}
	pair, err := s.auth.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	// The refresh token may arrive as a bearer header or in the body.
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing_refresh_token")
		return
	}
	pair, err := s.auth.Refresh(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	user, err := s.users.Get(r.Context(), principal, principal.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUserSummary(user))
}
