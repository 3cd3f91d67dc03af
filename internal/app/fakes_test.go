package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/neomorfeo/dancepair/internal/adapter/fsm"
	"github.com/neomorfeo/dancepair/internal/app"
	"github.com/neomorfeo/dancepair/internal/domain"
)

// --- Mocks ---

type mockDirectory struct {
	mu    sync.RWMutex
	users map[string]domain.UserProfile
}

func newMockDirectory(users ...domain.UserProfile) *mockDirectory {
	d := &mockDirectory{users: make(map[string]domain.UserProfile)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *mockDirectory) GetByID(_ context.Context, id string) (domain.UserProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return domain.UserProfile{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (d *mockDirectory) GetByEmail(_ context.Context, email string) (domain.UserProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.UserProfile{}, domain.ErrUserNotFound
}

type mockWorkshops struct {
	mu        sync.RWMutex
	workshops map[string]domain.Workshop
}

// newMockWorkshops links the repository to store, whose transactions check
// and delete workshops the way the foreign key does.
func newMockWorkshops(store *mockStore, ws ...domain.Workshop) *mockWorkshops {
	m := &mockWorkshops{workshops: make(map[string]domain.Workshop)}
	for _, w := range ws {
		m.workshops[w.ID] = w
	}
	store.workshops = m
	return m
}

func (m *mockWorkshops) exists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.workshops[id]
	return ok
}

func (m *mockWorkshops) Create(_ context.Context, w domain.Workshop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workshops[w.ID] = w
	return nil
}

func (m *mockWorkshops) GetByID(_ context.Context, id string) (domain.Workshop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workshops[id]
	if !ok {
		return domain.Workshop{}, domain.ErrWorkshopNotFound
	}
	return w, nil
}

func (m *mockWorkshops) List(_ context.Context, _ domain.WorkshopFilter) ([]domain.Workshop, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := slices.Collect(maps.Values(m.workshops))
	slices.SortFunc(out, func(a, b domain.Workshop) int { return a.Date.Compare(b.Date) })
	return out, nil
}

func (m *mockWorkshops) Update(_ context.Context, w domain.Workshop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workshops[w.ID]; !ok {
		return domain.ErrWorkshopNotFound
	}
	m.workshops[w.ID] = w
	return nil
}

// mockStore is an in-memory EnrollmentStore. WithinWorkshop holds a single
// lock for the whole callback and restores a snapshot when it fails.
type mockStore struct {
	mu      sync.Mutex
	records map[string]domain.Enrollment
	seq     int64
	// writes counts successful mutations, for no-mutation assertions.
	writes int
	// failDelete makes the next transactional Delete fail.
	failDelete error
	// beforeTx runs at the start of the next WithinWorkshop call, before the
	// lock is taken.
	beforeTx  func()
	workshops *mockWorkshops
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[string]domain.Enrollment)}
}

func (s *mockStore) WithinWorkshop(_ context.Context, _ string, fn func(tx domain.EnrollmentTx) error) error {
	if hook := s.beforeTx; hook != nil {
		s.beforeTx = nil
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := maps.Clone(s.records)
	seq, writes := s.seq, s.writes
	if err := fn(mockTx{s}); err != nil {
		s.records, s.seq, s.writes = snapshot, seq, writes
		return err
	}
	return nil
}

func (s *mockStore) GetByWorkshopAndUser(_ context.Context, workshopID, userID string) (domain.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mockTx{s}.find(workshopID, userID)
}

func (s *mockStore) ListByWorkshop(_ context.Context, workshopID string) ([]domain.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mockTx{s}.list(func(e domain.Enrollment) bool { return e.WorkshopID == workshopID }), nil
}

func (s *mockStore) ListByUser(_ context.Context, userID string) ([]domain.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mockTx{s}.list(func(e domain.Enrollment) bool { return e.UserID == userID }), nil
}

// put stores e as-is, bypassing the service. Used to seed corrupt data.
func (s *mockStore) put(e domain.Enrollment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	e.Seq = s.seq
	s.records[e.ID] = e
}

func (s *mockStore) mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// mockTx operates on the store while WithinWorkshop holds its lock.
type mockTx struct{ s *mockStore }

func (t mockTx) Create(_ context.Context, e domain.Enrollment) (domain.Enrollment, error) {
	if _, err := t.find(e.WorkshopID, e.UserID); err == nil {
		return domain.Enrollment{}, errors.New("unique constraint failed: enrollments.workshop_id, enrollments.user_id")
	}
	if t.s.workshops != nil && !t.s.workshops.exists(e.WorkshopID) {
		return domain.Enrollment{}, domain.ErrWorkshopNotFound
	}
	t.s.seq++
	e.Seq = t.s.seq
	t.s.records[e.ID] = e
	t.s.writes++
	return e, nil
}

func (t mockTx) Save(_ context.Context, e domain.Enrollment) error {
	if _, ok := t.s.records[e.ID]; !ok {
		return domain.ErrEnrollmentNotFound
	}
	t.s.records[e.ID] = e
	t.s.writes++
	return nil
}

func (t mockTx) Delete(_ context.Context, id string) error {
	if err := t.s.failDelete; err != nil {
		t.s.failDelete = nil
		return err
	}
	if _, ok := t.s.records[id]; !ok {
		return domain.ErrEnrollmentNotFound
	}
	delete(t.s.records, id)
	t.s.writes++
	return nil
}

func (t mockTx) DeleteWorkshop(_ context.Context, workshopID string) error {
	m := t.s.workshops
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workshops[workshopID]; !ok {
		return domain.ErrWorkshopNotFound
	}
	delete(m.workshops, workshopID)
	for k, e := range t.s.records {
		if e.WorkshopID == workshopID {
			delete(t.s.records, k)
		}
	}
	t.s.writes++
	return nil
}

func (t mockTx) GetByID(_ context.Context, id string) (domain.Enrollment, error) {
	e, ok := t.s.records[id]
	if !ok {
		return domain.Enrollment{}, domain.ErrEnrollmentNotFound
	}
	return e, nil
}

func (t mockTx) GetByWorkshopAndUser(_ context.Context, workshopID, userID string) (domain.Enrollment, error) {
	return t.find(workshopID, userID)
}

func (t mockTx) ListByWorkshop(_ context.Context, workshopID string) ([]domain.Enrollment, error) {
	return t.list(func(e domain.Enrollment) bool { return e.WorkshopID == workshopID }), nil
}

func (t mockTx) find(workshopID, userID string) (domain.Enrollment, error) {
	for _, e := range t.s.records {
		if e.WorkshopID == workshopID && e.UserID == userID {
			return e, nil
		}
	}
	return domain.Enrollment{}, domain.ErrEnrollmentNotFound
}

func (t mockTx) list(keep func(domain.Enrollment) bool) []domain.Enrollment {
	var out []domain.Enrollment
	for _, e := range t.s.records {
		if keep(e) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b domain.Enrollment) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
	return out
}

type mockEmitter struct {
	mu    sync.Mutex
	sent  []domain.Notification
	fails map[string]error // keyed by recipient id
}

func (m *mockEmitter) Publish(_ context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fails[n.Recipient.ID]; err != nil {
		return err
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockEmitter) notifications() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}

func (m *mockEmitter) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

// --- Fixtures ---

type fixture struct {
	users     *mockDirectory
	store     *mockStore
	workshops *mockWorkshops
	emitter   *mockEmitter
	pairing   *app.PairingService
	admin     *app.WorkshopService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(users ...domain.UserProfile) *fixture {
	f := &fixture{
		users:   newMockDirectory(users...),
		store:   newMockStore(),
		emitter: &mockEmitter{},
	}
	f.workshops = newMockWorkshops(f.store, testWorkshop("w1"), testWorkshop("w2"))
	f.pairing = app.NewPairingService(f.users, f.workshops, f.store, f.emitter, fsm.New(), discardLogger())
	f.admin = app.NewWorkshopService(f.workshops, f.store, f.users, f.emitter, discardLogger())
	return f
}

func testWorkshop(id string) domain.Workshop {
	return domain.NewWorkshop(id, domain.WorkshopInput{
		Name:        "Bachata " + id,
		Modality:    "bachata",
		Instructors: []string{"Lucia", "Marco"},
		Date:        time.Now().AddDate(0, 0, 7),
		StartTime:   "19:30",
		Location:    "Sala Norte",
	})
}

func leader(id string) domain.UserProfile {
	return domain.UserProfile{ID: id, Name: "Leader", Surname: id, Email: id + "@example.com", Role: domain.RoleLeader}
}

func follower(id string) domain.UserProfile {
	return domain.UserProfile{ID: id, Name: "Follower", Surname: id, Email: id + "@example.com", Role: domain.RoleFollower}
}

func (f *fixture) enrollment(workshopID, userID string) (domain.Enrollment, bool) {
	e, err := f.store.GetByWorkshopAndUser(context.Background(), workshopID, userID)
	return e, err == nil
}

func (f *fixture) audit(workshopID string) []domain.Violation {
	records, _ := f.store.ListByWorkshop(context.Background(), workshopID)
	return domain.CheckInvariants(records)
}
