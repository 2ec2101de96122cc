package http

import (
	"net/http"
	"time"

	"campusconnect/internal/model"
	"campusconnect/internal/repository"
	"campusconnect/internal/service"
)

type projectResponse struct {
	ID            int64               `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	Status        model.ProjectStatus `json:"status"`
	OwnerID       int64               `json:"ownerId"`
	LikesCount    int32               `json:"likesCount"`
	CommentsCount int32               `json:"commentsCount"`
	IsFeatured    bool                `json:"isFeatured"`
	CreatedAt     string              `json:"createdAt"`
}

func mapProjectResponse(project model.Project) projectResponse {
	return projectResponse{
		ID:            project.ID,
		Title:         project.Title,
		Description:   project.Description,
		Category:      project.Category,
		Status:        project.Status,
		OwnerID:       project.OwnerID,
		LikesCount:    project.LikesCount,
		CommentsCount: project.CommentsCount,
		IsFeatured:    project.IsFeatured,
		CreatedAt:     project.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type commentResponse struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"projectId"`
	AuthorID  int64  `json:"authorId"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

func mapCommentResponse(comment model.ProjectComment) commentResponse {
	return commentResponse{
		ID:        comment.ID,
		ProjectID: comment.ProjectID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := repository.ProjectFilter{
		Category:     query.Get("category"),
		Status:       query.Get("status"),
		FeaturedOnly: query.Get("featured") == "true",
		Search:       query.Get("search"),
		MostLiked:    query.Get("sort") == "most-liked",
	}
	limit, offset := pageParams(r)
	projects, err := s.projects.List(r.Context(), filter, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]projectResponse, 0, len(projects))
	for _, project := range projects {
		resp = append(resp, mapProjectResponse(project))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProjectCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.projects.Categories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_project_id")
		return
	}
	project, err := s.projects.Get(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProjectResponse(project))
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var input service.CreateProjectInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	project, err := s.projects.Create(r.Context(), principalFromContext(r.Context()), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.cache.Invalidate(r.Context(), "projects")
	writeJSON(w, http.StatusCreated, mapProjectResponse(project))
}

type updateProjectRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Status      *string `json:"status"`
	IsFeatured  *bool   `json:"isFeatured"`
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_project_id")
		return
	}
	var req updateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	project, err := s.projects.Update(r.Context(), principalFromContext(r.Context()), projectID, repository.ProjectUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Status:      req.Status,
		IsFeatured:  req.IsFeatured,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.cache.Invalidate(r.Context(), "projects")
	writeJSON(w, http.StatusOK, mapProjectResponse(project))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_project_id")
		return
	}
	if err := s.projects.Delete(r.Context(), principalFromContext(r.Context()), projectID); err != nil {
		writeServiceError(w, err)
		return
	}
	s.cache.Invalidate(r.Context(), "projects")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_project_id")
		return
	}
	liked, err := s.projects.ToggleLike(r.Context(), principalFromContext(r.Context()), projectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.cache.Invalidate(r.Context(), "projects")
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

func (s *Server) handleLikeStatus(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_project_id")
		return
	}
	liked, err := s.projects.HasLiked(r.Context(), principalFromContext(r.Context()), projectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_project_id")
		return
	}
	limit, offset := pageParams(r)
	comments, err := s.projects.ListComments(r.Context(), projectID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := make([]commentResponse, 0, len(comments))
	for _, comment := range comments {
		resp = append(resp, mapCommentResponse(comment))
	}
	writeJSON(w, http.StatusOK, resp)
}

type addCommentRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	projectID, ok := idParam(r, "projectID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_project_id")
		return
	}
	var req addCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	comment, err := s.projects.AddComment(r.Context(), principalFromContext(r.Context()), projectID, req.Content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.cache.Invalidate(r.Context(), "projects")
	writeJSON(w, http.StatusCreated, mapCommentResponse(comment))
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, ok := idParam(r, "commentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_comment_id")
		return
	}
	if err := s.projects.DeleteComment(r.Context(), principalFromContext(r.Context()), commentID); err != nil {
		writeServiceError(w, err)
		return
	}
	s.cache.Invalidate(r.Context(), "projects")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
