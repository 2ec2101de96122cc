package repository

import (
	"context"
	"fmt"

	"campusconnect/internal/model"
)

const projectColumns = `id, title, description, category, status, owner_id,
	likes_count, comments_count, is_featured, is_active, created_at, updated_at`

func scanProject(row interface{ Scan(dest ...any) error }) (model.Project, error) {
	var project model.Project
	err := row.Scan(
		&project.ID,
		&project.Title,
		&project.Description,
		&project.Category,
		&project.Status,
		&project.OwnerID,
		&project.LikesCount,
		&project.CommentsCount,
		&project.IsFeatured,
		&project.IsActive,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	return project, err
}

func (s *Store) CreateProject(ctx context.Context, project model.Project) (model.Project, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO projects (title, description, category, status, owner_id, is_featured)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+projectColumns+`
	`, project.Title, project.Description, project.Category, project.Status, project.OwnerID, project.IsFeatured)
	return scanProject(row)
}

func (s *Store) GetActiveProject(ctx context.Context, id int64) (model.Project, error) {
	row := s.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 AND is_active = true`, id)
	return scanProject(row)
}

type ProjectFilter struct {
	Category     string
	Status       string
	FeaturedOnly bool
	Search       string
	OwnerID      int64
	MostLiked    bool
}

func (s *Store) ListProjects(ctx context.Context, filter ProjectFilter, limit, offset int) ([]model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE is_active = true`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Category != "" {
		query += ` AND category = ` + arg(filter.Category)
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(filter.Status)
	}
	if filter.FeaturedOnly {
		query += ` AND is_featured = true`
	}
	if filter.Search != "" {
		p := arg(filter.Search)
		query += ` AND (title ILIKE '%' || ` + p + ` || '%' OR description ILIKE '%' || ` + p + ` || '%')`
	}
	if filter.OwnerID != 0 {
		query += ` AND owner_id = ` + arg(filter.OwnerID)
	}
	if filter.MostLiked {
		query += ` ORDER BY likes_count DESC, created_at DESC`
	} else {
		query += ` ORDER BY created_at DESC, id DESC`
	}
	query += ` LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]model.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (s *Store) ListProjectCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT category FROM projects WHERE is_active = true ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

type ProjectUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Status      *string
	IsFeatured  *bool
}

// UpdateProject never touches likes_count or comments_count.
func (s *Store) UpdateProject(ctx context.Context, id int64, update ProjectUpdate) (model.Project, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE projects SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			category = COALESCE($4, category),
			status = COALESCE($5, status),
			is_featured = COALESCE($6, is_featured),
			updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING `+projectColumns+`
	`, id, update.Title, update.Description, update.Category, update.Status, update.IsFeatured)
	return scanProject(row)
}

func (s *Store) DeactivateProject(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE projects SET is_active = false, updated_at = now() WHERE id = $1 AND is_active = true`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) LikeExists(ctx context.Context, userID, projectID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM project_likes WHERE user_id = $1 AND project_id = $2)
	`, userID, projectID).Scan(&exists)
	return exists, err
}

func (s *Store) CreateLike(ctx context.Context, userID, projectID int64) error {
	_, err := s.db.Exec(ctx, `INSERT INTO project_likes (user_id, project_id) VALUES ($1, $2)`, userID, projectID)
	return err
}

func (s *Store) DeleteLike(ctx context.Context, userID, projectID int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM project_likes WHERE user_id = $1 AND project_id = $2`, userID, projectID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) IncrementLikesCount(ctx context.Context, projectID int64) error {
	_, err := s.db.Exec(ctx, `UPDATE projects SET likes_count = likes_count + 1 WHERE id = $1`, projectID)
	return err
}

func (s *Store) DecrementLikesCount(ctx context.Context, projectID int64) error {
	_, err := s.db.Exec(ctx, `UPDATE projects SET likes_count = likes_count - 1 WHERE id = $1 AND likes_count > 0`, projectID)
	return err
}

func (s *Store) CreateComment(ctx context.Context, comment model.ProjectComment) (model.ProjectComment, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO project_comments (project_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, project_id, author_id, content, created_at
	`, comment.ProjectID, comment.AuthorID, comment.Content)
	var created model.ProjectComment
	err := row.Scan(&created.ID, &created.ProjectID, &created.AuthorID, &created.Content, &created.CreatedAt)
	return created, err
}

func (s *Store) GetComment(ctx context.Context, id int64) (model.ProjectComment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, project_id, author_id, content, created_at FROM project_comments WHERE id = $1
	`, id)
	var comment model.ProjectComment
	err := row.Scan(&comment.ID, &comment.ProjectID, &comment.AuthorID, &comment.Content, &comment.CreatedAt)
	return comment, err
}

func (s *Store) DeleteComment(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM project_comments WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListComments(ctx context.Context, projectID int64, limit, offset int) ([]model.ProjectComment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, project_id, author_id, content, created_at
		FROM project_comments
		WHERE project_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]model.ProjectComment, 0)
	for rows.Next() {
		var comment model.ProjectComment
		if err := rows.Scan(&comment.ID, &comment.ProjectID, &comment.AuthorID, &comment.Content, &comment.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

func (s *Store) IncrementCommentsCount(ctx context.Context, projectID int64) error {
	_, err := s.db.Exec(ctx, `UPDATE projects SET comments_count = comments_count + 1 WHERE id = $1`, projectID)
	return err
}

func (s *Store) DecrementCommentsCount(ctx context.Context, projectID int64) error {
	_, err := s.db.Exec(ctx, `UPDATE projects SET comments_count = comments_count - 1 WHERE id = $1 AND comments_count > 0`, projectID)
	return err
}
