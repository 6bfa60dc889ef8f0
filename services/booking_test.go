package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"spots-clone-server/apperr"
	"spots-clone-server/models"
)

// memStore is a mutex-guarded in-memory BookingStore. Holding the lock for
// the whole check-and-write makes it exclusive per store, which is stricter
// than the per-spot row lock of the real store but equivalent for tests.
type memStore struct {
	mu       sync.Mutex
	seq      uint
	bookings map[uint]*models.Booking
	spots    map[uint]uint // spotID -> ownerID
}

func newMemStore(spots map[uint]uint) *memStore {
	return &memStore{bookings: map[uint]*models.Booking{}, spots: spots}
}

func (m *memStore) ByID(_ context.Context, id uint) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, apperr.NotFound("Booking couldn't be found.")
	}
	copied := *b
	return &copied, nil
}

func (m *memStore) ForSpot(_ context.Context, spotID uint) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if b.SpotID == spotID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memStore) ForBooker(_ context.Context, userID uint) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memStore) CreateExclusive(_ context.Context, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.spots[booking.SpotID]; !ok {
		return apperr.NotFound("Spot couldn't be found.")
	}
	if err := m.checkLocked(booking, 0); err != nil {
		return err
	}
	m.seq++
	booking.ID = m.seq
	copied := *booking
	m.bookings[booking.ID] = &copied
	return nil
}

func (m *memStore) UpdateExclusive(_ context.Context, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLocked(booking, booking.ID); err != nil {
		return err
	}
	existing, ok := m.bookings[booking.ID]
	if !ok {
		return apperr.NotFound("Booking couldn't be found.")
	}
	existing.StartDate = booking.StartDate
	existing.EndDate = booking.EndDate
	return nil
}

func (m *memStore) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return apperr.NotFound("Booking couldn't be found.")
	}
	delete(m.bookings, id)
	return nil
}

func (m *memStore) checkLocked(booking *models.Booking, excludeID uint) error {
	var existing []models.Booking
	for _, b := range m.bookings {
		if b.SpotID == booking.SpotID {
			existing = append(existing, *b)
		}
	}
	if _, conflict := FindConflict(booking.StartDate, booking.EndDate, existing, excludeID); conflict {
		return apperr.Conflict("Booking conflicts with an existing reservation.")
	}
	return nil
}

func (m *memStore) SpotOwner(_ context.Context, spotID uint) (uint, error) {
	ownerID, ok := m.spots[spotID]
	if !ok {
		return 0, apperr.NotFound("Spot couldn't be found.")
	}
	return ownerID, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

const (
	ownerID  = uint(1)
	bookerID = uint(2)
	otherID  = uint(3)
	spotID   = uint(10)
)

// newTestService pins the clock to 2025-06-01 so the scenario dates stay
// deterministic.
func newTestService(t *testing.T) (*BookingService, *memStore) {
	t.Helper()
	store := newMemStore(map[uint]uint{spotID: ownerID})
	svc := NewBookingService(store, store, nil)
	svc.now = func() time.Time { return d("2025-06-01") }
	return svc, store
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("error kind = %s, want %s (err: %v)", got, kind, err)
	}
}

func TestCreateBooking(t *testing.T) {
	svc, store := newTestService(t)

	booking, err := svc.Create(context.Background(), spotID, bookerID, d("2025-06-10"), d("2025-06-15"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if booking.ID == 0 {
		t.Error("booking should have an assigned id")
	}
	if booking.Reference == "" {
		t.Error("booking should have a reference")
	}
	if booking.StateAt(d("2025-06-01")) != models.BookingScheduled {
		t.Error("future booking should be scheduled")
	}
	if store.count() != 1 {
		t.Errorf("store holds %d bookings, want 1", store.count())
	}
}

func TestCreateValidation(t *testing.T) {
	svc, store := newTestService(t)

	// end <= start
	_, err := svc.Create(context.Background(), spotID, bookerID, d("2025-06-15"), d("2025-06-15"))
	wantKind(t, err, apperr.KindValidation)
	_, err = svc.Create(context.Background(), spotID, bookerID, d("2025-06-15"), d("2025-06-10"))
	wantKind(t, err, apperr.KindValidation)

	// start not strictly in the future
	_, err = svc.Create(context.Background(), spotID, bookerID, d("2025-06-01"), d("2025-06-05"))
	wantKind(t, err, apperr.KindValidation)
	_, err = svc.Create(context.Background(), spotID, bookerID, d("2025-05-20"), d("2025-06-05"))
	wantKind(t, err, apperr.KindValidation)

	// zero dates
	_, err = svc.Create(context.Background(), spotID, bookerID, time.Time{}, d("2025-06-05"))
	wantKind(t, err, apperr.KindValidation)

	if store.count() != 0 {
		t.Error("failed creates must not persist anything")
	}
}

func TestCreateOwnSpotForbidden(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.Create(context.Background(), spotID, ownerID, d("2025-06-10"), d("2025-06-15"))
	wantKind(t, err, apperr.KindForbidden)
	if store.count() != 0 {
		t.Error("forbidden create must not persist anything")
	}
}

func TestCreateUnknownSpot(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), 999, bookerID, d("2025-06-10"), d("2025-06-15"))
	wantKind(t, err, apperr.KindNotFound)
}

func TestCreateConflicts(t *testing.T) {
	svc, store := newTestService(t)

	if _, err := svc.Create(context.Background(), spotID, bookerID, d("2025-06-10"), d("2025-06-15")); err != nil {
		t.Fatalf("seed create: %v", err)
	}

	// touching endpoint counts as overlap
	_, err := svc.Create(context.Background(), spotID, otherID, d("2025-06-15"), d("2025-06-20"))
	wantKind(t, err, apperr.KindConflict)

	// the same conflicting create fails the same way twice
	_, err = svc.Create(context.Background(), spotID, otherID, d("2025-06-15"), d("2025-06-20"))
	wantKind(t, err, apperr.KindConflict)
	if store.count() != 1 {
		t.Errorf("store holds %d bookings, want 1", store.count())
	}

	// the next free day is bookable
	if _, err := svc.Create(context.Background(), spotID, otherID, d("2025-06-16"), d("2025-06-20")); err != nil {
		t.Fatalf("adjacent-with-gap create: %v", err)
	}
}

func TestUpdateBooking(t *testing.T) {
	svc, _ := newTestService(t)

	booking, err := svc.Create(context.Background(), spotID, bookerID, d("2025-06-10"), d("2025-06-15"))
	if err != nil {
		t.Fatalf("seed create: %v", err)
	}

	// only the booker may update
	_, err = svc.Update(context.Background(), booking.ID, otherID, d("2025-06-11"), d("2025-06-14"))
	wantKind(t, err, apperr.KindForbidden)
	_, err = svc.Update(context.Background(), booking.ID, ownerID, d("2025-06-11"), d("2025-06-14"))
	wantKind(t, err, apperr.KindForbidden)

	// unknown booking
	_, err = svc.Update(context.Background(), 999, bookerID, d("2025-06-11"), d("2025-06-14"))
	wantKind(t, err, apperr.KindNotFound)

	// shrinking inside the booking's own range is not a self-conflict
	updated, err := svc.Update(context.Background(), booking.ID, bookerID, d("2025-06-11"), d("2025-06-14"))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := updated.StartDate.Format("2006-01-02"); got != "2025-06-11" {
		t.Errorf("start date = %s, want 2025-06-11", got)
	}

	// moving onto another booking still conflicts
	if _, err := svc.Create(context.Background(), spotID, otherID, d("2025-06-20"), d("2025-06-25")); err != nil {
		t.Fatalf("second create: %v", err)
	}
	_, err = svc.Update(context.Background(), booking.ID, bookerID, d("2025-06-14"), d("2025-06-20"))
	wantKind(t, err, apperr.KindConflict)
}

func TestUpdateAlreadyStarted(t *testing.T) {
	svc, _ := newTestService(t)

	booking, err := svc.Create(context.Background(), spotID, bookerID, d("2025-06-10"), d("2025-06-15"))
	if err != nil {
		t.Fatalf("seed create: %v", err)
	}

	// advance the clock into the stay
	svc.now = func() time.Time { return d("2025-06-12") }
	_, err = svc.Update(context.Background(), booking.ID, bookerID, d("2025-06-20"), d("2025-06-25"))
	wantKind(t, err, apperr.KindForbidden)

	// and past it
	svc.now = func() time.Time { return d("2025-07-01") }
	_, err = svc.Update(context.Background(), booking.ID, bookerID, d("2025-07-10"), d("2025-07-15"))
	wantKind(t, err, apperr.KindForbidden)
}

func TestCancelBooking(t *testing.T) {
	svc, store := newTestService(t)

	booking, err := svc.Create(context.Background(), spotID, bookerID, d("2025-06-10"), d("2025-06-15"))
	if err != nil {
		t.Fatalf("seed create: %v", err)
	}

	// a third party may not cancel
	wantKind(t, svc.Cancel(context.Background(), booking.ID, otherID), apperr.KindForbidden)

	// the booker may
	if err := svc.Cancel(context.Background(), booking.ID, bookerID); err != nil {
		t.Fatalf("cancel by booker: %v", err)
	}
	if store.count() != 0 {
		t.Error("cancelled booking should be gone")
	}
	wantKind(t, svc.Cancel(context.Background(), booking.ID, bookerID), apperr.KindNotFound)

	// the spot owner may cancel too
	booking, err = svc.Create(context.Background(), spotID, bookerID, d("2025-06-10"), d("2025-06-15"))
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if err := svc.Cancel(context.Background(), booking.ID, ownerID); err != nil {
		t.Fatalf("cancel by owner: %v", err)
	}
}

func TestCancelAlreadyStarted(t *testing.T) {
	svc, store := newTestService(t)

	booking, err := svc.Create(context.Background(), spotID, bookerID, d("2025-06-10"), d("2025-06-15"))
	if err != nil {
		t.Fatalf("seed create: %v", err)
	}

	svc.now = func() time.Time { return d("2025-06-10") }
	wantKind(t, svc.Cancel(context.Background(), booking.ID, bookerID), apperr.KindForbidden)
	wantKind(t, svc.Cancel(context.Background(), booking.ID, ownerID), apperr.KindForbidden)
	if store.count() != 1 {
		t.Error("started booking must survive cancel attempts")
	}
}

// Two concurrent creates for overlapping ranges on the same empty spot:
// exactly one commits, the other gets a conflict.
func TestConcurrentCreateOneWins(t *testing.T) {
	svc, store := newTestService(t)

	ranges := [][2]string{
		{"2025-07-01", "2025-07-05"},
		{"2025-07-03", "2025-07-04"},
	}

	errs := make([]error, len(ranges))
	var wg sync.WaitGroup
	for i, r := range ranges {
		wg.Add(1)
		go func(i int, start, end string) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), spotID, bookerID, d(start), d(end))
		}(i, r[0], r[1])
	}
	wg.Wait()

	var succeeded, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperr.IsKind(err, apperr.KindConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Fatalf("got %d successes and %d conflicts, want exactly one of each", succeeded, conflicted)
	}
	if store.count() != 1 {
		t.Errorf("store holds %d bookings, want 1", store.count())
	}
}

// transientStore always fails with ErrTransient; the service must give up
// after its bounded retries and surface a Conflict.
type transientStore struct {
	*memStore
	attempts int
}

func (s *transientStore) CreateExclusive(_ context.Context, _ *models.Booking) error {
	s.attempts++
	return ErrTransient
}

func TestCommitRetriesBounded(t *testing.T) {
	store := &transientStore{memStore: newMemStore(map[uint]uint{spotID: ownerID})}
	svc := NewBookingService(store, store, nil)
	svc.now = func() time.Time { return d("2025-06-01") }

	_, err := svc.Create(context.Background(), spotID, bookerID, d("2025-06-10"), d("2025-06-15"))
	wantKind(t, err, apperr.KindConflict)
	if store.attempts != commitRetries {
		t.Errorf("store was attempted %d times, want %d", store.attempts, commitRetries)
	}
}
