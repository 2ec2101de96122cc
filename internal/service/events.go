package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"campusconnect/internal/auth"
	"campusconnect/internal/model"
	"campusconnect/internal/repository"
)

// Events owns event CRUD and the registration engine. Every path that moves
// the attendee counter runs inside a transaction with a conditional update, so
// current_attendees can never exceed max_attendees or drop below zero no
// matter how requests interleave.
type Events struct {
	store *repository.Store
	now   func() time.Time
}

func NewEvents(store *repository.Store) *Events {
	return &Events{store: store, now: time.Now}
}

type CreateEventInput struct {
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Category             string     `json:"category"`
	EventDate            time.Time  `json:"eventDate"`
	StartTime            string     `json:"startTime"`
	EndTime              string     `json:"endTime"`
	Location             string     `json:"location"`
	MaxAttendees         int32      `json:"maxAttendees"`
	IsFeatured           bool       `json:"isFeatured"`
	RegistrationDeadline *time.Time `json:"registrationDeadline"`
}

func (s *Events) Create(ctx context.Context, principal *auth.Principal, input CreateEventInput) (model.Event, error) {
	if err := auth.Evaluate(auth.Authenticated(), principal, 0); err != nil {
		return model.Event{}, err
	}
	if err := validateEvent(input); err != nil {
		return model.Event{}, err
	}
	return s.store.CreateEvent(ctx, model.Event{
		Title:                strings.TrimSpace(input.Title),
		Description:          input.Description,
		Category:             input.Category,
		EventDate:            input.EventDate,
		StartTime:            input.StartTime,
		EndTime:              input.EndTime,
		Location:             input.Location,
		MaxAttendees:         input.MaxAttendees,
		OrganizerID:          principal.ID,
		IsFeatured:           input.IsFeatured,
		RegistrationDeadline: input.RegistrationDeadline,
	})
}

func (s *Events) Get(ctx context.Context, id int64) (model.Event, error) {
	event, err := s.store.GetActiveEvent(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	return event, err
}

func (s *Events) List(ctx context.Context, filter repository.EventFilter, limit, offset int) ([]model.Event, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.ListEvents(ctx, filter, limit, offset)
}

func (s *Events) Categories(ctx context.Context) ([]string, error) {
	return s.store.ListEventCategories(ctx)
}

// Update is restricted to the organizer or an admin. The attendee counter is
// not reachable from here.
func (s *Events) Update(ctx context.Context, principal *auth.Principal, id int64, update repository.EventUpdate) (model.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	if err := auth.Evaluate(auth.RequireRoleOrSelf(model.RoleAdmin), principal, event.OrganizerID); err != nil {
		return model.Event{}, err
	}
	if update.MaxAttendees != nil && *update.MaxAttendees <= 0 {
		return model.Event{}, fmt.Errorf("%w: maxAttendees must be positive", ErrInvalidInput)
	}
	updated, err := s.store.UpdateEvent(ctx, id, update)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	return updated, err
}

// Delete soft-deletes; registrations are kept for history.
func (s *Events) Delete(ctx context.Context, principal *auth.Principal, id int64) error {
	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.Evaluate(auth.RequireRoleOrSelf(model.RoleAdmin), principal, event.OrganizerID); err != nil {
		return err
	}
	removed, err := s.store.DeactivateEvent(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrEventNotFound
	}
	return nil
}

// Register enrolls the principal in an event. Checks run in a fixed order so
// a request that fails several at once reports the same error every time:
// duplicate, then capacity, then deadline, then past date. The capacity check
// is repeated by the conditional counter update, which is what actually holds
// under concurrency.
func (s *Events) Register(ctx context.Context, principal *auth.Principal, eventID int64) error {
	if err := auth.Evaluate(auth.Authenticated(), principal, 0); err != nil {
		return err
	}
	now := s.now()
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		event, err := tx.GetActiveEvent(ctx, eventID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrEventNotFound
		}
		if err != nil {
			return err
		}
		registered, err := tx.RegistrationExists(ctx, principal.ID, eventID)
		if err != nil {
			return err
		}
		if err := registrationGuard(event, registered, now); err != nil {
			return err
		}
		bumped, err := tx.IncrementAttendeeCount(ctx, eventID)
		if err != nil {
			return err
		}
		if !bumped {
			return ErrEventFull
		}
		if err := tx.CreateRegistration(ctx, principal.ID, eventID); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrAlreadyRegistered
			}
			return err
		}
		return nil
	})
}

// Unregister removes the principal's registration and releases the seat. The
// decrement is floored at zero inside the update itself.
func (s *Events) Unregister(ctx context.Context, principal *auth.Principal, eventID int64) error {
	if err := auth.Evaluate(auth.Authenticated(), principal, 0); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.GetActiveEvent(ctx, eventID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrEventNotFound
			}
			return err
		}
		removed, err := tx.DeleteRegistration(ctx, principal.ID, eventID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrNotRegistered
		}
		_, err = tx.DecrementAttendeeCount(ctx, eventID)
		return err
	})
}

// IsRegistered reports whether the principal holds a registration.
func (s *Events) IsRegistered(ctx context.Context, principal *auth.Principal, eventID int64) (bool, error) {
	if err := auth.Evaluate(auth.Authenticated(), principal, 0); err != nil {
		return false, err
	}
	if _, err := s.Get(ctx, eventID); err != nil {
		return false, err
	}
	return s.store.RegistrationExists(ctx, principal.ID, eventID)
}

func registrationGuard(event model.Event, alreadyRegistered bool, now time.Time) error {
	if alreadyRegistered {
		return ErrAlreadyRegistered
	}
	if event.IsFull() {
		return ErrEventFull
	}
	if !event.RegistrationOpen(now) {
		return ErrDeadlinePassed
	}
	if event.IsPast(now) {
		return ErrEventInPast
	}
	return nil
}

func validateEvent(input CreateEventInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if input.EventDate.IsZero() {
		return fmt.Errorf("%w: eventDate is required", ErrInvalidInput)
	}
	if input.StartTime == "" || input.EndTime == "" {
		return fmt.Errorf("%w: startTime and endTime are required", ErrInvalidInput)
	}
	if input.MaxAttendees <= 0 {
		return fmt.Errorf("%w: maxAttendees must be positive", ErrInvalidInput)
	}
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
