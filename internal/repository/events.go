package repository

import (
	"context"
	"fmt"
	"time"

	"campusconnect/internal/model"
)

const eventColumns = `id, title, description, category, event_date, start_time, end_time,
	location, max_attendees, current_attendees, organizer_id, is_featured, is_active,
	registration_deadline, created_at, updated_at`

func scanEvent(row interface{ Scan(dest ...any) error }) (model.Event, error) {
	var event model.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Category,
		&event.EventDate,
		&event.StartTime,
		&event.EndTime,
		&event.Location,
		&event.MaxAttendees,
		&event.CurrentAttendees,
		&event.OrganizerID,
		&event.IsFeatured,
		&event.IsActive,
		&event.RegistrationDeadline,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	return event, err
}

func (s *Store) CreateEvent(ctx context.Context, event model.Event) (model.Event, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO events (title, description, category, event_date, start_time, end_time,
			location, max_attendees, organizer_id, is_featured, registration_deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+eventColumns+`
	`, event.Title, event.Description, event.Category, event.EventDate, event.StartTime,
		event.EndTime, event.Location, event.MaxAttendees, event.OrganizerID,
		event.IsFeatured, event.RegistrationDeadline)
	return scanEvent(row)
}

// GetActiveEvent returns the event only while it is not soft-deleted.
func (s *Store) GetActiveEvent(ctx context.Context, id int64) (model.Event, error) {
	row := s.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 AND is_active = true`, id)
	return scanEvent(row)
}

type EventFilter struct {
	Category     string
	FeaturedOnly bool
	UpcomingOnly bool
	Search       string
	RegisteredBy int64
}

func (s *Store) ListEvents(ctx context.Context, filter EventFilter, limit, offset int) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE is_active = true`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Category != "" {
		query += ` AND category = ` + arg(filter.Category)
	}
	if filter.FeaturedOnly {
		query += ` AND is_featured = true`
	}
	if filter.UpcomingOnly {
		query += ` AND event_date >= CURRENT_DATE`
	}
	if filter.Search != "" {
		p := arg(filter.Search)
		query += ` AND (title ILIKE '%' || ` + p + ` || '%' OR description ILIKE '%' || ` + p + ` || '%' OR location ILIKE '%' || ` + p + ` || '%')`
	}
	if filter.RegisteredBy != 0 {
		query += ` AND id IN (SELECT event_id FROM event_registrations WHERE user_id = ` + arg(filter.RegisteredBy) + `)`
	}
	query += ` ORDER BY event_date, id LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *Store) ListEventCategories(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT category FROM events WHERE is_active = true ORDER BY category`)
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

type EventUpdate struct {
	Title                *string
	Description          *string
	Category             *string
	EventDate            *time.Time
	StartTime            *string
	EndTime              *string
	Location             *string
	MaxAttendees         *int32
	IsFeatured           *bool
	RegistrationDeadline *time.Time
}

// UpdateEvent never touches current_attendees; only the registration engine's
// conditional updates may move the counter.
func (s *Store) UpdateEvent(ctx context.Context, id int64, update EventUpdate) (model.Event, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE events SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			category = COALESCE($4, category),
			event_date = COALESCE($5, event_date),
			start_time = COALESCE($6, start_time),
			end_time = COALESCE($7, end_time),
			location = COALESCE($8, location),
			max_attendees = COALESCE($9, max_attendees),
			is_featured = COALESCE($10, is_featured),
			registration_deadline = COALESCE($11, registration_deadline),
			updated_at = now()
		WHERE id = $1 AND is_active = true
		RETURNING `+eventColumns+`
	`, id, update.Title, update.Description, update.Category, update.EventDate,
		update.StartTime, update.EndTime, update.Location, update.MaxAttendees,
		update.IsFeatured, update.RegistrationDeadline)
	return scanEvent(row)
}

func (s *Store) DeactivateEvent(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE events SET is_active = false, updated_at = now() WHERE id = $1 AND is_active = true`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// IncrementAttendeeCount bumps the counter only while capacity remains. The
// condition runs inside the UPDATE so concurrent registrations cannot lose
// updates; the returned bool is false when the event was already full.
func (s *Store) IncrementAttendeeCount(ctx context.Context, eventID int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE events SET current_attendees = current_attendees + 1, updated_at = now()
		WHERE id = $1 AND current_attendees < max_attendees
	`, eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DecrementAttendeeCount is floored at zero regardless of call order.
func (s *Store) DecrementAttendeeCount(ctx context.Context, eventID int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE events SET current_attendees = current_attendees - 1, updated_at = now()
		WHERE id = $1 AND current_attendees > 0
	`, eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) RegistrationExists(ctx context.Context, userID, eventID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM event_registrations WHERE user_id = $1 AND event_id = $2)
	`, userID, eventID).Scan(&exists)
	return exists, err
}

func (s *Store) CreateRegistration(ctx context.Context, userID, eventID int64) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO event_registrations (user_id, event_id, attendance_status)
		VALUES ($1, $2, $3)
	`, userID, eventID, model.AttendanceRegistered)
	return err
}

func (s *Store) DeleteRegistration(ctx context.Context, userID, eventID int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM event_registrations WHERE user_id = $1 AND event_id = $2
	`, userID, eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
