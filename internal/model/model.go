package model

import "time"

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleAdmin:
		return true
	default:
		return false
	}
}

type AttendanceStatus string

const (
	AttendanceRegistered AttendanceStatus = "REGISTERED"
	AttendanceAttended   AttendanceStatus = "ATTENDED"
	AttendanceNoShow     AttendanceStatus = "NO_SHOW"
	AttendanceCancelled  AttendanceStatus = "CANCELLED"
)

type ProjectStatus string

const (
	ProjectOpen       ProjectStatus = "OPEN"
	ProjectInProgress ProjectStatus = "IN_PROGRESS"
	ProjectCompleted  ProjectStatus = "COMPLETED"
)

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectOpen, ProjectInProgress, ProjectCompleted:
		return true
	default:
		return false
	}
}

type User struct {
	ID            int64
	Username      string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Role          Role
	Department    *string
	Bio           *string
	IsActive      bool
	EmailVerified bool
	LastLogin     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

type Event struct {
	ID                   int64
	Title                string
	Description          string
	Category             string
	EventDate            time.Time
	StartTime            string
	EndTime              string
	Location             string
	MaxAttendees         int32
	CurrentAttendees     int32
	OrganizerID          int64
	IsFeatured           bool
	IsActive             bool
	RegistrationDeadline *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (e Event) IsFull() bool {
	return e.CurrentAttendees >= e.MaxAttendees
}

func (e Event) AvailableSpots() int32 {
	return e.MaxAttendees - e.CurrentAttendees
}

func (e Event) RegistrationOpen(now time.Time) bool {
	return e.RegistrationDeadline == nil || now.Before(*e.RegistrationDeadline)
}

// IsPast reports whether the event date is strictly before today's date.
// The clock's date component is compared in UTC.
func (e Event) IsPast(now time.Time) bool {
	today := now.UTC().Truncate(24 * time.Hour)
	return e.EventDate.UTC().Truncate(24 * time.Hour).Before(today)
}

type EventRegistration struct {
	ID               int64
	UserID           int64
	EventID          int64
	AttendanceStatus AttendanceStatus
	RegisteredAt     time.Time
}

type Project struct {
	ID            int64
	Title         string
	Description   string
	Category      string
	Status        ProjectStatus
	OwnerID       int64
	LikesCount    int32
	CommentsCount int32
	IsFeatured    bool
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ProjectLike struct {
	ID        int64
	UserID    int64
	ProjectID int64
	CreatedAt time.Time
}

type ProjectComment struct {
	ID        int64
	ProjectID int64
	AuthorID  int64
	Content   string
	CreatedAt time.Time
}
