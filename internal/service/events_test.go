package service

import (
	"errors"
	"testing"
	"time"

	"campusconnect/internal/model"
)

func futureDeadline(now time.Time) *time.Time {
	d := now.Add(time.Hour)
	return &d
}

func pastDeadline(now time.Time) *time.Time {
	d := now.Add(-time.Hour)
	return &d
}

func TestRegistrationGuardOrder(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	openEvent := model.Event{
		EventDate:            now.Add(48 * time.Hour),
		MaxAttendees:         10,
		CurrentAttendees:     3,
		RegistrationDeadline: futureDeadline(now),
	}

	tests := []struct {
		name       string
		event      func() model.Event
		registered bool
		want       error
	}{
		{"open event admits", func() model.Event { return openEvent }, false, nil},
		{"no deadline admits", func() model.Event {
			e := openEvent
			e.RegistrationDeadline = nil
			return e
		}, false, nil},
		{"duplicate reported first", func() model.Event {
			e := openEvent
			e.CurrentAttendees = e.MaxAttendees
			e.RegistrationDeadline = pastDeadline(now)
			e.EventDate = now.Add(-48 * time.Hour)
			return e
		}, true, ErrAlreadyRegistered},
		{"full before deadline", func() model.Event {
			e := openEvent
			e.CurrentAttendees = e.MaxAttendees
			e.RegistrationDeadline = pastDeadline(now)
			return e
		}, false, ErrEventFull},
		{"deadline before past date", func() model.Event {
			e := openEvent
			e.RegistrationDeadline = pastDeadline(now)
			e.EventDate = now.Add(-48 * time.Hour)
			return e
		}, false, ErrDeadlinePassed},
		{"past date rejected", func() model.Event {
			e := openEvent
			e.EventDate = now.Add(-48 * time.Hour)
			return e
		}, false, ErrEventInPast},
		{"same-day event is not past", func() model.Event {
			e := openEvent
			e.EventDate = now
			return e
		}, false, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := registrationGuard(tc.event(), tc.registered, now)
			if !errors.Is(got, tc.want) {
				t.Fatalf("registrationGuard() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidateEvent(t *testing.T) {
	valid := CreateEventInput{
		Title:        "Robotics Demo",
		Description:  "Live demo",
		Category:     "TECH",
		EventDate:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		StartTime:    "18:00",
		EndTime:      "20:00",
		Location:     "Hall B",
		MaxAttendees: 50,
	}
	if err := validateEvent(valid); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	mutations := []struct {
		name   string
		mutate func(*CreateEventInput)
	}{
		{"empty title", func(in *CreateEventInput) { in.Title = "  " }},
		{"empty category", func(in *CreateEventInput) { in.Category = "" }},
		{"empty location", func(in *CreateEventInput) { in.Location = "" }},
		{"zero date", func(in *CreateEventInput) { in.EventDate = time.Time{} }},
		{"missing times", func(in *CreateEventInput) { in.StartTime = "" }},
		{"zero capacity", func(in *CreateEventInput) { in.MaxAttendees = 0 }},
		{"negative capacity", func(in *CreateEventInput) { in.MaxAttendees = -5 }},
	}
	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			if err := validateEvent(in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("validateEvent() = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, 20, 0},
		{-1, -10, 20, 0},
		{50, 100, 50, 100},
		{500, 0, 100, 0},
	}
	for _, tc := range tests {
		gotLimit, gotOffset := clampPage(tc.limit, tc.offset)
		if gotLimit != tc.wantLimit || gotOffset != tc.wantOffset {
			t.Errorf("clampPage(%d, %d) = (%d, %d), want (%d, %d)",
				tc.limit, tc.offset, gotLimit, gotOffset, tc.wantLimit, tc.wantOffset)
		}
	}
}
