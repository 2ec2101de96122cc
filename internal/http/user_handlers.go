package http

import (
	"net/http"

	"campusconnect/internal/model"
	"campusconnect/internal/service"
)

func mapUserSummaries(users []model.User) []userSummary {
	resp := make([]userSummary, 0, len(users))
	for _, user := range users {
		resp = append(resp, mapUserSummary(user))
	}
	return resp
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	users, err := s.users.List(r.Context(), principalFromContext(r.Context()), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUserSummaries(users))
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	term := r.URL.Query().Get("q")
	users, err := s.users.Search(r.Context(), principalFromContext(r.Context()), term, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUserSummaries(users))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}
	user, err := s.users.Get(r.Context(), principalFromContext(r.Context()), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUserSummary(user))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}
	var input service.UpdateUserInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	user, err := s.users.Update(r.Context(), principalFromContext(r.Context()), userID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUserSummary(user))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}
	if err := s.users.Deactivate(r.Context(), principalFromContext(r.Context()), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
