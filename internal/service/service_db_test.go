package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"campusconnect/internal/auth"
	"campusconnect/internal/db"
	"campusconnect/internal/model"
	"campusconnect/internal/repository"
)

// The tests below need a real Postgres; they skip unless DATABASE_URL is set.

type testEnv struct {
	store    *repository.Store
	auth     *Auth
	events   *Events
	projects *Projects
	users    *Users
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE project_comments, project_likes, projects,
		event_registrations, events, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	store := repository.NewStore(pool)
	resolver := auth.NewResolver(store)
	codec := auth.NewCodec("test-secret", "campusconnect-test", 15*time.Minute, 24*time.Hour)
	return &testEnv{
		store:    store,
		auth:     NewAuth(store, resolver, codec, 4),
		events:   NewEvents(store),
		projects: NewProjects(store),
		users:    NewUsers(store, 4),
	}
}

func (e *testEnv) student(t *testing.T, name string) *auth.Principal {
	t.Helper()
	user, err := e.auth.Register(context.Background(), RegisterInput{
		Username:  name,
		Email:     name + "@example.edu",
		Password:  "password123",
		FirstName: "Test",
		LastName:  "Student",
	})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return &auth.Principal{ID: user.ID, Email: user.Email, Role: user.Role}
}

func (e *testEnv) futureEvent(t *testing.T, organizer *auth.Principal, maxAttendees int32) model.Event {
	t.Helper()
	event, err := e.events.Create(context.Background(), organizer, CreateEventInput{
		Title:        "Hackathon",
		Description:  "48h build sprint",
		Category:     "TECH",
		EventDate:    time.Now().UTC().Add(7 * 24 * time.Hour),
		StartTime:    "09:00",
		EndTime:      "18:00",
		Location:     "Building A",
		MaxAttendees: maxAttendees,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return event
}

func TestLoginRefreshFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.student(t, "alice")

	pair, err := env.auth.Login(ctx, "alice@example.edu", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.TokenType != "Bearer" || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("incomplete token pair: %+v", pair)
	}

	if _, err := env.auth.Login(ctx, "alice@example.edu", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := env.auth.Login(ctx, "alice", "password123"); err != nil {
		t.Fatalf("login by username: %v", err)
	}

	renewed, err := env.auth.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if renewed.UserID != pair.UserID {
		t.Fatalf("refresh changed subject: %d != %d", renewed.UserID, pair.UserID)
	}

	if _, err := env.auth.Refresh(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("access token accepted for refresh: %v", err)
	}
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.student(t, "alice")

	pair, err := env.auth.Login(ctx, "alice@example.edu", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := env.users.Deactivate(ctx, alice, alice.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := env.auth.Refresh(ctx, pair.RefreshToken); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("deactivated refresh: got %v, want ErrNotFound", err)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.student(t, "alice")

	_, err := env.auth.Register(ctx, RegisterInput{
		Username: "other", Email: "ALICE@example.edu", Password: "password123",
		FirstName: "A", LastName: "B",
	})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("duplicate email: got %v", err)
	}
	_, err = env.auth.Register(ctx, RegisterInput{
		Username: "alice", Email: "fresh@example.edu", Password: "password123",
		FirstName: "A", LastName: "B",
	})
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("duplicate username: got %v", err)
	}
}

func TestEventRegistrationLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.student(t, "organizer")
	alice := env.student(t, "alice")
	event := env.futureEvent(t, organizer, 2)

	if err := env.events.Register(ctx, alice, event.ID); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := env.events.Register(ctx, alice, event.ID); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("double register: got %v", err)
	}

	got, err := env.events.Get(ctx, event.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentAttendees != 1 {
		t.Fatalf("current_attendees = %d, want 1", got.CurrentAttendees)
	}

	if err := env.events.Unregister(ctx, alice, event.ID); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if err := env.events.Unregister(ctx, alice, event.ID); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("double unregister: got %v", err)
	}

	got, err = env.events.Get(ctx, event.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentAttendees != 0 {
		t.Fatalf("current_attendees = %d, want 0", got.CurrentAttendees)
	}

	if err := env.events.Register(ctx, alice, event.ID+9999); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("missing event: got %v", err)
	}
}

func TestRegisterAfterDeadline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.student(t, "organizer")
	alice := env.student(t, "alice")

	deadline := time.Now().UTC().Add(-time.Hour)
	event, err := env.events.Create(ctx, organizer, CreateEventInput{
		Title: "Closed", Description: "d", Category: "TECH",
		EventDate: time.Now().UTC().Add(7 * 24 * time.Hour),
		StartTime: "09:00", EndTime: "10:00", Location: "A",
		MaxAttendees: 10, RegistrationDeadline: &deadline,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.events.Register(ctx, alice, event.ID); !errors.Is(err, ErrDeadlinePassed) {
		t.Fatalf("past deadline: got %v", err)
	}
}

// TestConcurrentRegistrationCapacity races more registrations than the event
// has seats and checks that exactly max_attendees of them win.
func TestConcurrentRegistrationCapacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.student(t, "organizer")

	const seats = 3
	const contenders = 10
	event := env.futureEvent(t, organizer, seats)

	principals := make([]*auth.Principal, contenders)
	for i := range principals {
		principals[i] = env.student(t, fmt.Sprintf("student%d", i))
	}

	var wg sync.WaitGroup
	results := make([]error, contenders)
	for i, p := range principals {
		wg.Add(1)
		go func(i int, p *auth.Principal) {
			defer wg.Done()
			results[i] = env.events.Register(ctx, p, event.ID)
		}(i, p)
	}
	wg.Wait()

	var won, full int
	for _, err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrEventFull):
			full++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != seats || full != contenders-seats {
		t.Fatalf("won=%d full=%d, want won=%d full=%d", won, full, seats, contenders-seats)
	}

	got, err := env.events.Get(ctx, event.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentAttendees != seats {
		t.Fatalf("current_attendees = %d, want %d", got.CurrentAttendees, seats)
	}
}

func TestEventUpdateAuthorization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.student(t, "organizer")
	intruder := env.student(t, "intruder")
	event := env.futureEvent(t, organizer, 10)

	title := "Renamed"
	if _, err := env.events.Update(ctx, intruder, event.ID, repository.EventUpdate{Title: &title}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("intruder update: got %v, want ErrForbidden", err)
	}
	updated, err := env.events.Update(ctx, organizer, event.ID, repository.EventUpdate{Title: &title})
	if err != nil {
		t.Fatalf("organizer update: %v", err)
	}
	if updated.Title != title {
		t.Fatalf("title = %q, want %q", updated.Title, title)
	}

	if err := env.events.Delete(ctx, intruder, event.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("intruder delete: got %v, want ErrForbidden", err)
	}
	if err := env.events.Delete(ctx, organizer, event.ID); err != nil {
		t.Fatalf("organizer delete: %v", err)
	}
	if _, err := env.events.Get(ctx, event.ID); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("deleted event still visible: %v", err)
	}
}

func TestProjectLikeToggle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.student(t, "owner")
	alice := env.student(t, "alice")

	project, err := env.projects.Create(ctx, owner, CreateProjectInput{
		Title: "Campus App", Description: "d", Category: "SOFTWARE",
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	liked, err := env.projects.ToggleLike(ctx, alice, project.ID)
	if err != nil || !liked {
		t.Fatalf("first toggle: liked=%v err=%v", liked, err)
	}
	got, _ := env.projects.Get(ctx, project.ID)
	if got.LikesCount != 1 {
		t.Fatalf("likes_count = %d, want 1", got.LikesCount)
	}

	liked, err = env.projects.ToggleLike(ctx, alice, project.ID)
	if err != nil || liked {
		t.Fatalf("second toggle: liked=%v err=%v", liked, err)
	}
	got, _ = env.projects.Get(ctx, project.ID)
	if got.LikesCount != 0 {
		t.Fatalf("likes_count = %d, want 0", got.LikesCount)
	}
}

func TestProjectComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.student(t, "owner")
	alice := env.student(t, "alice")
	bob := env.student(t, "bob")

	project, err := env.projects.Create(ctx, owner, CreateProjectInput{
		Title: "Campus App", Description: "d", Category: "SOFTWARE",
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	comment, err := env.projects.AddComment(ctx, alice, project.ID, "nice work")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	got, _ := env.projects.Get(ctx, project.ID)
	if got.CommentsCount != 1 {
		t.Fatalf("comments_count = %d, want 1", got.CommentsCount)
	}

	if err := env.projects.DeleteComment(ctx, bob, comment.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("non-author delete: got %v, want ErrForbidden", err)
	}
	if err := env.projects.DeleteComment(ctx, alice, comment.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	got, _ = env.projects.Get(ctx, project.ID)
	if got.CommentsCount != 0 {
		t.Fatalf("comments_count = %d, want 0", got.CommentsCount)
	}
}

func TestUserSelfUpdateAndListAuthorization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.student(t, "alice")
	bob := env.student(t, "bob")

	bio := "robotics club"
	updated, err := env.users.Update(ctx, alice, alice.ID, UpdateUserInput{Bio: &bio})
	if err != nil {
		t.Fatalf("self update: %v", err)
	}
	if updated.Bio == nil || *updated.Bio != bio {
		t.Fatalf("bio not updated: %+v", updated.Bio)
	}

	if _, err := env.users.Update(ctx, bob, alice.ID, UpdateUserInput{Bio: &bio}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("cross update: got %v, want ErrForbidden", err)
	}
	if _, err := env.users.List(ctx, alice, 10, 0); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("student list: got %v, want ErrForbidden", err)
	}
}
