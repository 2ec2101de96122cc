package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"campusconnect/internal/auth"
	"campusconnect/internal/model"
	"campusconnect/internal/repository"
)

// Projects owns project CRUD, the like toggle and comments. The likes and
// comments counters follow the same discipline as event registrations: they
// only move together with the row that justifies them, inside a transaction,
// through guarded updates.
type Projects struct {
	store *repository.Store
}

func NewProjects(store *repository.Store) *Projects {
	return &Projects{store: store}
}

type CreateProjectInput struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Status      model.ProjectStatus `json:"status"`
	IsFeatured  bool                `json:"isFeatured"`
}

func (s *Projects) Create(ctx context.Context, principal *auth.Principal, input CreateProjectInput) (model.Project, error) {
	if err := auth.Evaluate(auth.Authenticated(), principal, 0); err != nil {
		return model.Project{}, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return model.Project{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Category) == "" {
		return model.Project{}, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if input.Status == "" {
		input.Status = model.ProjectOpen
	}
	if !input.Status.IsValid() {
		return model.Project{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, input.Status)
	}
	return s.store.CreateProject(ctx, model.Project{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Category:    input.Category,
		Status:      input.Status,
		OwnerID:     principal.ID,
		IsFeatured:  input.IsFeatured,
	})
}

func (s *Projects) Get(ctx context.Context, id int64) (model.Project, error) {
	project, err := s.store.GetActiveProject(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Project{}, ErrProjectNotFound
	}
	return project, err
}

func (s *Projects) List(ctx context.Context, filter repository.ProjectFilter, limit, offset int) ([]model.Project, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.ListProjects(ctx, filter, limit, offset)
}

func (s *Projects) Categories(ctx context.Context) ([]string, error) {
	return s.store.ListProjectCategories(ctx)
}

func (s *Projects) Update(ctx context.Context, principal *auth.Principal, id int64, update repository.ProjectUpdate) (model.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return model.Project{}, err
	}
	if err := auth.Evaluate(auth.RequireRoleOrSelf(model.RoleAdmin), principal, project.OwnerID); err != nil {
		return model.Project{}, err
	}
	if update.Status != nil && !model.ProjectStatus(*update.Status).IsValid() {
		return model.Project{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *update.Status)
	}
	updated, err := s.store.UpdateProject(ctx, id, update)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Project{}, ErrProjectNotFound
	}
	return updated, err
}

func (s *Projects) Delete(ctx context.Context, principal *auth.Principal, id int64) error {
	project, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Evaluate(auth.RequireRoleOrSelf(model.RoleAdmin), principal, project.OwnerID); err != nil {
		return err
	}
	removed, err := s.store.DeactivateProject(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrProjectNotFound
	}
	return nil
}

// ToggleLike flips the principal's like on a project and returns the new
// state. A lost race on the unique (user_id, project_id) constraint is read
// as "already liked" without a second counter bump.
func (s *Projects) ToggleLike(ctx context.Context, principal *auth.Principal, projectID int64) (liked bool, err error) {
	if err := auth.Evaluate(auth.Authenticated(), principal, 0); err != nil {
		return false, err
	}
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.GetActiveProject(ctx, projectID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrProjectNotFound
			}
			return err
		}
		removed, err := tx.DeleteLike(ctx, principal.ID, projectID)
		if err != nil {
			return err
		}
		if removed {
			liked = false
			return tx.DecrementLikesCount(ctx, projectID)
		}
		if err := tx.CreateLike(ctx, principal.ID, projectID); err != nil {
			if repository.IsUniqueViolation(err) {
				liked = true
				return nil
			}
			return err
		}
		liked = true
		return tx.IncrementLikesCount(ctx, projectID)
	})
	return liked, err
}

// HasLiked reports whether the principal currently likes the project.
func (s *Projects) HasLiked(ctx context.Context, principal *auth.Principal, projectID int64) (bool, error) {
	if err := auth.Evaluate(auth.Authenticated(), principal, 0); err != nil {
		return false, err
	}
	if _, err := s.Get(ctx, projectID); err != nil {
		return false, err
	}
	return s.store.LikeExists(ctx, principal.ID, projectID)
}

func (s *Projects) AddComment(ctx context.Context, principal *auth.Principal, projectID int64, content string) (model.ProjectComment, error) {
	if err := auth.Evaluate(auth.Authenticated(), principal, 0); err != nil {
		return model.ProjectComment{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return model.ProjectComment{}, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	if len(content) > 2000 {
		return model.ProjectComment{}, fmt.Errorf("%w: content exceeds 2000 characters", ErrInvalidInput)
	}
	var created model.ProjectComment
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.GetActiveProject(ctx, projectID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrProjectNotFound
			}
			return err
		}
		var err error
		created, err = tx.CreateComment(ctx, model.ProjectComment{
			ProjectID: projectID,
			AuthorID:  principal.ID,
			Content:   content,
		})
		if err != nil {
			return err
		}
		return tx.IncrementCommentsCount(ctx, projectID)
	})
	return created, err
}

// DeleteComment is restricted to the comment author or an admin.
func (s *Projects) DeleteComment(ctx context.Context, principal *auth.Principal, commentID int64) error {
	comment, err := s.store.GetComment(ctx, commentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCommentNotFound
	}
	if err != nil {
		return err
	}
	if err := auth.Evaluate(auth.RequireRoleOrSelf(model.RoleAdmin), principal, comment.AuthorID); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		removed, err := tx.DeleteComment(ctx, commentID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrCommentNotFound
		}
		return tx.DecrementCommentsCount(ctx, comment.ProjectID)
	})
}

func (s *Projects) ListComments(ctx context.Context, projectID int64, limit, offset int) ([]model.ProjectComment, error) {
	if _, err := s.Get(ctx, projectID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.store.ListComments(ctx, projectID, limit, offset)
}
