package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/neomorfeo/dancepair/internal/adapter/sqlite"
	"github.com/neomorfeo/dancepair/internal/domain"
)

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustSaveUser(t *testing.T, store *sqlite.Store, u domain.UserProfile) {
	t.Helper()
	if err := store.Users().Save(context.Background(), u); err != nil {
		t.Fatalf("mustSaveUser failed: %v", err)
	}
}

func mustCreateWorkshop(t *testing.T, store *sqlite.Store, id string, date time.Time) domain.Workshop {
	t.Helper()
	w := domain.NewWorkshop(id, domain.WorkshopInput{
		Name:        "Workshop " + id,
		Modality:    "zouk",
		Instructors: []string{"Ana", "Bruno"},
		Date:        date,
		StartTime:   "19:00",
		Location:    "Sala Norte",
	})
	if err := store.Workshops().Create(context.Background(), w); err != nil {
		t.Fatalf("mustCreateWorkshop failed: %v", err)
	}
	return w
}

func profile(id string, role domain.Role) domain.UserProfile {
	return domain.UserProfile{ID: id, Name: "Name " + id, Surname: "Surname", Email: id + "@example.com", Role: role}
}

func TestUsers_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustSaveUser(t, store, domain.UserProfile{
		ID: "u-1", Name: "Ana", Surname: "Lopez", Email: "Ana@Example.com", Phone: "600", Role: domain.RoleFollower,
	})

	got, err := store.Users().GetByID(ctx, "u-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Email != "ana@example.com" {
		t.Errorf("Email = %q, want %q", got.Email, "ana@example.com")
	}
	if got.Role != domain.RoleFollower {
		t.Errorf("Role = %q, want %q", got.Role, domain.RoleFollower)
	}

	byEmail, err := store.Users().GetByEmail(ctx, " ANA@example.com ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if byEmail.ID != "u-1" {
		t.Errorf("ID = %q, want %q", byEmail.ID, "u-1")
	}
}

func TestUsers_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustSaveUser(t, store, profile("u-1", domain.RoleLeader))
	updated := profile("u-1", domain.RoleFollower)
	updated.Name = "Renamed"
	mustSaveUser(t, store, updated)

	got, _ := store.Users().GetByID(ctx, "u-1")
	if got.Name != "Renamed" || got.Role != domain.RoleFollower {
		t.Errorf("got %+v, want replaced profile", got)
	}
}

func TestUsers_EmailConflict(t *testing.T) {
	store := newTestStore(t)

	mustSaveUser(t, store, profile("u-1", domain.RoleLeader))
	dup := profile("u-2", domain.RoleLeader)
	dup.Email = "u-1@example.com"

	err := store.Users().Save(context.Background(), dup)
	var conflict *domain.EmailConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected EmailConflictError, got %v", err)
	}
}

func TestUsers_NotFound(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Users().GetByID(context.Background(), "nope"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := store.Users().GetByEmail(context.Background(), "nope@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestWorkshops_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	date := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	mustCreateWorkshop(t, store, "w-1", date)

	got, err := store.Workshops().GetByID(context.Background(), "w-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.Date.Equal(date) {
		t.Errorf("Date = %v, want %v", got.Date, date)
	}
	if len(got.Instructors) != 2 || got.Instructors[1] != "Bruno" {
		t.Errorf("Instructors = %v, want [Ana Bruno]", got.Instructors)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
}

func TestWorkshops_Update(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	w := mustCreateWorkshop(t, store, "w-1", time.Now())

	w.Location = "Sala Sur"
	w.Instructors = []string{"Carla"}
	if err := store.Workshops().Update(ctx, w); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := store.Workshops().GetByID(ctx, "w-1")
	if got.Location != "Sala Sur" {
		t.Errorf("Location = %q, want %q", got.Location, "Sala Sur")
	}
	if len(got.Instructors) != 1 || got.Instructors[0] != "Carla" {
		t.Errorf("Instructors = %v, want [Carla]", got.Instructors)
	}
}

func TestWorkshops_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Workshops().GetByID(ctx, "nope"); !errors.Is(err, domain.ErrWorkshopNotFound) {
		t.Errorf("GetByID: expected ErrWorkshopNotFound, got %v", err)
	}
	if err := store.Workshops().Update(ctx, domain.Workshop{ID: "nope"}); !errors.Is(err, domain.ErrWorkshopNotFound) {
		t.Errorf("Update: expected ErrWorkshopNotFound, got %v", err)
	}
	err := store.Enrollments().WithinWorkshop(ctx, "nope", func(tx domain.EnrollmentTx) error {
		return tx.DeleteWorkshop(ctx, "nope")
	})
	if !errors.Is(err, domain.ErrWorkshopNotFound) {
		t.Errorf("DeleteWorkshop: expected ErrWorkshopNotFound, got %v", err)
	}
}

func TestWorkshops_ListPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	for i := range 5 {
		// Insert out of date order.
		mustCreateWorkshop(t, store, fmt.Sprintf("w-%d", i), base.AddDate(0, 0, 4-i))
	}

	all, err := store.Workshops().List(ctx, domain.WorkshopFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("len = %d, want 5", len(all))
	}
	if all[0].ID != "w-4" {
		t.Errorf("first = %q, want soonest w-4", all[0].ID)
	}

	page, err := store.Workshops().List(ctx, domain.WorkshopFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List page failed: %v", err)
	}
	if len(page) != 2 || page[0].ID != "w-3" {
		t.Errorf("page = %v, want [w-3 w-2]", ids(page))
	}

	tail, err := store.Workshops().List(ctx, domain.WorkshopFilter{Offset: 3})
	if err != nil {
		t.Fatalf("List offset failed: %v", err)
	}
	if len(tail) != 2 {
		t.Errorf("len = %d, want 2", len(tail))
	}
}

func ids(ws []domain.Workshop) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.ID
	}
	return out
}
