package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salon-service/api"
	"salon-service/internal/cache"
	"salon-service/internal/config"
	"salon-service/internal/lock"
	"salon-service/internal/models"
	"salon-service/internal/schedule"
	"salon-service/pkg/response"
)

// fakeStore keeps everything in maps. The sqlite handle exists only so
// BeginTx can hand out real transactions; no statements run through it.
type fakeStore struct {
	db *sql.DB

	mu       sync.Mutex
	weekly   map[string]*models.WeeklyAvailability
	blocks   map[string]*models.BlockedSlot
	services map[string]*models.Service
	bookings map[string]*models.Booking
	reviews  map[string]*models.Review
	settings *models.SiteSettings

	weeklyListCalls int
	afterActiveList func()
}

func newFakeStore(db *sql.DB) *fakeStore {
	return &fakeStore{
		db:       db,
		weekly:   make(map[string]*models.WeeklyAvailability),
		blocks:   make(map[string]*models.BlockedSlot),
		services: make(map[string]*models.Service),
		bookings: make(map[string]*models.Booking),
		reviews:  make(map[string]*models.Review),
	}
}

func (f *fakeStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return f.db.BeginTx(ctx, nil)
}

func (f *fakeStore) CreateWeeklyAvailability(ctx context.Context, wa *models.WeeklyAvailability) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.weekly {
		if existing.DayOfWeek == wa.DayOfWeek && existing.StartTime == wa.StartTime && existing.EndTime == wa.EndTime {
			return "", response.ErrExists
		}
	}

	cp := *wa
	cp.ID = uuid.NewString()
	f.weekly[cp.ID] = &cp

	return cp.ID, nil
}

func (f *fakeStore) GetWeeklyAvailability(ctx context.Context, id string) (*models.WeeklyAvailability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	wa, ok := f.weekly[id]
	if !ok {
		return nil, response.ErrNotFound
	}

	cp := *wa
	return &cp, nil
}

func (f *fakeStore) ListWeeklyAvailability(ctx context.Context, weekday *time.Weekday, activeOnly bool) ([]*models.WeeklyAvailability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.weeklyListCalls++

	var result []*models.WeeklyAvailability
	for _, wa := range f.weekly {
		if weekday != nil && wa.DayOfWeek != *weekday {
			continue
		}
		if activeOnly && !wa.IsActive {
			continue
		}
		cp := *wa
		result = append(result, &cp)
	}

	return result, nil
}

func (f *fakeStore) UpdateWeeklyAvailability(ctx context.Context, wa *models.WeeklyAvailability) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.weekly[wa.ID]; !ok {
		return response.ErrNotFound
	}

	cp := *wa
	f.weekly[wa.ID] = &cp

	return nil
}

func (f *fakeStore) DeleteWeeklyAvailability(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.weekly[id]; !ok {
		return response.ErrNotFound
	}
	delete(f.weekly, id)

	return nil
}

func (f *fakeStore) CreateBlockedSlot(ctx context.Context, b *models.BlockedSlot) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *b
	cp.ID = uuid.NewString()
	f.blocks[cp.ID] = &cp

	return cp.ID, nil
}

func (f *fakeStore) ListBlockedSlots(ctx context.Context, date *time.Time) ([]*models.BlockedSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*models.BlockedSlot
	for _, b := range f.blocks {
		if date != nil && !sameDate(b.Date, *date) {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}

	return result, nil
}

func (f *fakeStore) DeleteBlockedSlot(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.blocks[id]; !ok {
		return response.ErrNotFound
	}
	delete(f.blocks, id)

	return nil
}

func (f *fakeStore) CreateService(ctx context.Context, svc *models.Service) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *svc
	cp.ID = uuid.NewString()
	f.services[cp.ID] = &cp

	return cp.ID, nil
}

func (f *fakeStore) GetService(ctx context.Context, id string) (*models.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	svc, ok := f.services[id]
	if !ok {
		return nil, response.ErrNotFound
	}

	cp := *svc
	return &cp, nil
}

func (f *fakeStore) ListServices(ctx context.Context) ([]*models.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*models.Service
	for _, svc := range f.services {
		cp := *svc
		result = append(result, &cp)
	}

	return result, nil
}

func (f *fakeStore) UpdateService(ctx context.Context, svc *models.Service) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.services[svc.ID]; !ok {
		return response.ErrNotFound
	}

	cp := *svc
	f.services[svc.ID] = &cp

	return nil
}

func (f *fakeStore) DeleteService(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.services[id]; !ok {
		return response.ErrNotFound
	}
	for _, b := range f.bookings {
		if b.ServiceID == id {
			return response.ErrConflict
		}
	}
	delete(f.services, id)

	return nil
}

func (f *fakeStore) ListActiveBookings(ctx context.Context, date time.Time) ([]*models.Booking, error) {
	return f.listActive(date), nil
}

func (f *fakeStore) ListActiveBookingsTx(ctx context.Context, tx *sql.Tx, date time.Time) ([]*models.Booking, error) {
	result := f.listActive(date)

	if f.afterActiveList != nil {
		f.afterActiveList()
	}

	return result, nil
}

func (f *fakeStore) listActive(date time.Time) []*models.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*models.Booking
	for _, b := range f.bookings {
		if !b.Status.Occupies() || !sameDate(b.Date, date) {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}

	return result
}

// InsertBookingTx mimics the overlap exclusion constraint: an insert
// that overlaps an occupying booking on the same date is rejected.
func (f *fakeStore) InsertBookingTx(ctx context.Context, tx *sql.Tx, b *models.Booking) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	iv, err := schedule.ParseInterval(b.StartTime, b.EndTime)
	if err != nil {
		return "", err
	}

	for _, existing := range f.bookings {
		if !existing.Status.Occupies() || !sameDate(existing.Date, b.Date) {
			continue
		}
		other, err := schedule.ParseInterval(existing.StartTime, existing.EndTime)
		if err != nil {
			return "", err
		}
		if iv.Overlaps(other) {
			return "", response.ErrSlotNotAvailable
		}
	}

	cp := *b
	cp.ID = uuid.NewString()
	f.bookings[cp.ID] = &cp

	return cp.ID, nil
}

func (f *fakeStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[id]
	if !ok {
		return nil, response.ErrNotFound
	}

	cp := *b
	return &cp, nil
}

func (f *fakeStore) ListBookings(ctx context.Context, date *time.Time, status *string) ([]*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*models.Booking
	for _, b := range f.bookings {
		if date != nil && !sameDate(b.Date, *date) {
			continue
		}
		if status != nil && string(b.Status) != *status {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}

	return result, nil
}

func (f *fakeStore) UpdateBooking(ctx context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.bookings[b.ID]; !ok {
		return response.ErrNotFound
	}

	cp := *b
	f.bookings[b.ID] = &cp

	return nil
}

func (f *fakeStore) CreateReview(ctx context.Context, r *models.Review) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.reviews {
		if existing.BookingID == r.BookingID {
			return "", response.ErrExists
		}
	}

	cp := *r
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	f.reviews[cp.ID] = &cp

	return cp.ID, nil
}

func (f *fakeStore) GetReview(ctx context.Context, id string) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.reviews[id]
	if !ok {
		return nil, response.ErrNotFound
	}

	cp := *r
	return &cp, nil
}

func (f *fakeStore) ListReviews(ctx context.Context) ([]*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []*models.Review
	for _, r := range f.reviews {
		cp := *r
		result = append(result, &cp)
	}

	return result, nil
}

func (f *fakeStore) GetSiteSettings(ctx context.Context) (*models.SiteSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.settings == nil {
		return nil, response.ErrNotFound
	}

	cp := *f.settings
	return &cp, nil
}

func (f *fakeStore) UpsertSiteSettings(ctx context.Context, st *models.SiteSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *st
	f.settings = &cp

	return nil
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// alwaysLocker grants every lock; used to push concurrent writers past
// the overlap re-check and onto the constraint backstop.
type alwaysLocker struct{}

func (alwaysLocker) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, nil
}

func (alwaysLocker) Unlock(ctx context.Context, key string) error {
	return nil
}

// 2026-01-05 is a Monday, 2026-01-07 a Wednesday.
var testNow = time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newFakeStore(db)

	svc := NewService(
		store,
		lock.NewRedisLockWithClient(client),
		cache.NewRedisCacheWithClient(client, "test"),
		config.BookingDefaults{
			SlotGranularityMinutes: 30,
			MinLeadTimeMinutes:     60,
			MinDaysAhead:           0,
			MaxDaysAhead:           60,
		},
		time.Minute,
	)
	svc.now = func() time.Time { return testNow }

	return svc, store
}

func seedWeekly(store *fakeStore, day time.Weekday, start, end string) {
	id := uuid.NewString()
	store.weekly[id] = &models.WeeklyAvailability{
		ID:        id,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
		IsActive:  true,
	}
}

func seedBlock(store *fakeStore, date, start, end string) {
	d, _ := time.Parse("2006-01-02", date)
	id := uuid.NewString()
	store.blocks[id] = &models.BlockedSlot{
		ID:        id,
		Date:      d,
		StartTime: start,
		EndTime:   end,
	}
}

func seedService(store *fakeStore, durationMinutes int, priceCents int64, active bool) string {
	id := uuid.NewString()
	store.services[id] = &models.Service{
		ID:              id,
		Name:            "Swedish massage",
		DurationMinutes: durationMinutes,
		PriceCents:      priceCents,
		IsActive:        active,
	}

	return id
}

func seedBooking(store *fakeStore, serviceID, date, start, end string, status models.BookingStatus) string {
	d, _ := time.Parse("2006-01-02", date)
	id := uuid.NewString()
	store.bookings[id] = &models.Booking{
		ID:        id,
		ServiceID: serviceID,
		UserID:    "user-1",
		Date:      d,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}

	return id
}

func TestAvailableSlotsBlockedWindow(t *testing.T) {
	svc, store := newTestService(t)

	seedWeekly(store, time.Wednesday, "09:00", "12:00")
	seedBlock(store, "2026-01-07", "10:00", "10:30")
	serviceID := seedService(store, 30, 5000, true)

	slots, err := svc.AvailableSlots(context.Background(), &api.AvailableSlotsRequest{
		ServiceID: serviceID,
		Date:      "2026-01-07",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"09:00", "09:30", "10:30", "11:00", "11:30"}, slots)
}

func TestAvailableSlotsActiveBookingsOccupy(t *testing.T) {
	svc, store := newTestService(t)

	seedWeekly(store, time.Wednesday, "09:00", "12:00")
	serviceID := seedService(store, 30, 5000, true)
	seedBooking(store, serviceID, "2026-01-07", "11:00", "11:30", models.BookingConfirmed)
	seedBooking(store, serviceID, "2026-01-07", "09:00", "09:30", models.BookingCancelled)

	slots, err := svc.AvailableSlots(context.Background(), &api.AvailableSlotsRequest{
		ServiceID: serviceID,
		Date:      "2026-01-07",
	})
	require.NoError(t, err)

	assert.NotContains(t, slots, "11:00")
	assert.Contains(t, slots, "09:00", "cancelled bookings must not occupy")
}

func TestAvailableSlotsClosedDay(t *testing.T) {
	svc, store := newTestService(t)

	seedWeekly(store, time.Wednesday, "09:00", "12:00")
	serviceID := seedService(store, 30, 5000, true)

	slots, err := svc.AvailableSlots(context.Background(), &api.AvailableSlotsRequest{
		ServiceID: serviceID,
		Date:      "2026-01-08",
	})
	require.NoError(t, err)

	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestAvailableSlotsOutOfHorizon(t *testing.T) {
	svc, store := newTestService(t)

	seedWeekly(store, time.Wednesday, "09:00", "12:00")
	serviceID := seedService(store, 30, 5000, true)

	_, err := svc.AvailableSlots(context.Background(), &api.AvailableSlotsRequest{
		ServiceID: serviceID,
		Date:      "2026-06-01",
	})
	require.ErrorIs(t, err, response.ErrOutOfHorizon)

	assert.Zero(t, store.weeklyListCalls, "horizon check must run before resolving availability")

	_, err = svc.AvailableSlots(context.Background(), &api.AvailableSlotsRequest{
		ServiceID: serviceID,
		Date:      "2026-01-04",
	})
	require.ErrorIs(t, err, response.ErrOutOfHorizon)
}

func TestAvailableSlotsSameDayLeadTime(t *testing.T) {
	svc, store := newTestService(t)
	svc.now = func() time.Time {
		return time.Date(2026, time.January, 5, 11, 45, 0, 0, time.UTC)
	}

	seedWeekly(store, time.Monday, "09:00", "17:00")
	serviceID := seedService(store, 30, 5000, true)

	slots, err := svc.AvailableSlots(context.Background(), &api.AvailableSlotsRequest{
		ServiceID: serviceID,
		Date:      "2026-01-05",
	})
	require.NoError(t, err)

	require.NotEmpty(t, slots)
	assert.Equal(t, "13:00", slots[0], "11:45 + 60m lead time floors the first slot at 13:00")
}

func TestAvailableSlotsInactiveService(t *testing.T) {
	svc, store := newTestService(t)

	seedWeekly(store, time.Wednesday, "09:00", "12:00")
	serviceID := seedService(store, 30, 5000, false)

	_, err := svc.AvailableSlots(context.Background(), &api.AvailableSlotsRequest{
		ServiceID: serviceID,
		Date:      "2026-01-07",
	})
	require.ErrorIs(t, err, response.ErrNotFound)
}

func TestCreateBooking(t *testing.T) {
	svc, store := newTestService(t)

	seedWeekly(store, time.Wednesday, "09:00", "12:00")
	serviceID := seedService(store, 30, 5000, true)

	booking, err := svc.CreateBooking(context.Background(), &api.BookingRequest{
		ServiceID: serviceID,
		UserID:    "user-1",
		Date:      "2026-01-07",
		StartTime: "10:00",
	})
	require.NoError(t, err)

	assert.Equal(t, string(models.BookingPending), booking.Status)
	assert.Equal(t, "10:00", booking.StartTime)
	assert.Equal(t, "10:30", booking.EndTime)
	assert.Equal(t, int64(5000), booking.PriceAtBookingCents)

	slots, err := svc.AvailableSlots(context.Background(), &api.AvailableSlotsRequest{
		ServiceID: serviceID,
		Date:      "2026-01-07",
	})
	require.NoError(t, err)
	assert.NotContains(t, slots, "10:00")
}

func TestCreateBookingValidation(t *testing.T) {
	svc, store := newTestService(t)

	seedWeekly(store, time.Wednesday, "09:00", "12:00")
	serviceID := seedService(store, 30, 5000, true)

	cases := []struct {
		name    string
		req     api.BookingRequest
		wantErr error
	}{
		{
			name: "off grid start",
			req: api.BookingRequest{
				ServiceID: serviceID, UserID: "u", Date: "2026-01-07", StartTime: "10:15",
			},
			wantErr: response.ErrBadRequest,
		},
		{
			name: "outside open window",
			req: api.BookingRequest{
				ServiceID: serviceID, UserID: "u", Date: "2026-01-07", StartTime: "08:00",
			},
			wantErr: response.ErrSlotNotAvailable,
		},
		{
			name: "starts at closing time",
			req: api.BookingRequest{
				ServiceID: serviceID, UserID: "u", Date: "2026-01-07", StartTime: "12:00",
			},
			wantErr: response.ErrSlotNotAvailable,
		},
		{
			name: "missing user",
			req: api.BookingRequest{
				ServiceID: serviceID, Date: "2026-01-07", StartTime: "10:00",
			},
			wantErr: response.ErrBadRequest,
		},
		{
			name: "unknown service",
			req: api.BookingRequest{
				ServiceID: uuid.NewString(), UserID: "u", Date: "2026-01-07", StartTime: "10:00",
			},
			wantErr: response.ErrNotFound,
		},
		{
			name: "past horizon",
			req: api.BookingRequest{
				ServiceID: serviceID, UserID: "u", Date: "2026-06-01", StartTime: "10:00",
			},
			wantErr: response.ErrOutOfHorizon,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateBooking(context.Background(), &tc.req)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCreateBookingOverlapRejected(t *testing.T) {
	svc, store := newTestService(t)

	seedWeekly(store, time.Wednesday, "09:00", "12:00")
	serviceID := seedService(store, 30, 5000, true)
	seedBooking(store, serviceID, "2026-01-07", "10:00", "10:30", models.BookingPending)

	_, err := svc.CreateBooking(context.Background(), &api.BookingRequest{
		ServiceID: serviceID,
		UserID:    "user-2",
		Date:      "2026-01-07",
		StartTime: "10:00",
	})
	require.ErrorIs(t, err, response.ErrSlotNotAvailable)
}

func TestCreateBookingConcurrentSameSlot(t *testing.T) {
	svc, store := newTestService(t)

	seedWeekly(store, time.Wednesday, "09:00", "12:00")
	serviceID := seedService(store, 30, 5000, true)

	var wg sync.WaitGroup
	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(context.Background(), &api.BookingRequest{
				ServiceID: serviceID,
				UserID:    "user-1",
				Date:      "2026-01-07",
				StartTime: "10:00",
			})
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, response.ErrSlotNotAvailable)
			conflict++
		}
	}

	assert.Equal(t, 1, ok, "exactly one writer wins the slot")
	assert.Equal(t, 1, conflict)

	active, err := store.ListActiveBookings(context.Background(), time.Date(2026, time.January, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

// Two writers pass the overlap re-check simultaneously; the storage
// constraint still admits only one.
func TestCreateBookingConstraintBackstop(t *testing.T) {
	svc, store := newTestService(t)
	svc.locker = alwaysLocker{}

	seedWeekly(store, time.Wednesday, "09:00", "12:00")
	serviceID := seedService(store, 30, 5000, true)

	var gate sync.WaitGroup
	gate.Add(2)
	store.afterActiveList = func() {
		gate.Done()
		gate.Wait()
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateBooking(context.Background(), &api.BookingRequest{
				ServiceID: serviceID,
				UserID:    "user-1",
				Date:      "2026-01-07",
				StartTime: "10:00",
			})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			require.ErrorIs(t, err, response.ErrSlotNotAvailable)
		}
	}

	assert.Equal(t, 1, ok)
}

func TestUpdateBookingTransitions(t *testing.T) {
	cases := []struct {
		name    string
		from    models.BookingStatus
		to      string
		wantErr error
	}{
		{name: "pending to confirmed", from: models.BookingPending, to: "CONFIRMED"},
		{name: "pending to cancelled", from: models.BookingPending, to: "CANCELLED"},
		{name: "confirmed to no show", from: models.BookingConfirmed, to: "NO_SHOW"},
		{name: "pending to completed", from: models.BookingPending, to: "COMPLETED", wantErr: response.ErrInvalidTransition},
		{name: "completed is terminal", from: models.BookingCompleted, to: "CANCELLED", wantErr: response.ErrInvalidTransition},
		{name: "cancelled is terminal", from: models.BookingCancelled, to: "PENDING", wantErr: response.ErrInvalidTransition},
		{name: "unknown status", from: models.BookingPending, to: "PAUSED", wantErr: response.ErrBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newTestService(t)
			serviceID := seedService(store, 30, 5000, true)
			bookingID := seedBooking(store, serviceID, "2026-01-07", "10:00", "10:30", tc.from)

			got, err := svc.UpdateBooking(context.Background(), bookingID, &api.BookingUpdateRequest{
				Status: &tc.to,
			})
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				stored, getErr := store.GetBooking(context.Background(), bookingID)
				require.NoError(t, getErr)
				assert.Equal(t, tc.from, stored.Status, "rejected transition must not mutate the booking")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.to, got.Status)
		})
	}
}

func TestUpdateBookingNotes(t *testing.T) {
	svc, store := newTestService(t)
	serviceID := seedService(store, 30, 5000, true)
	bookingID := seedBooking(store, serviceID, "2026-01-07", "10:00", "10:30", models.BookingPending)

	notes := "allergic to lavender oil"
	proNotes := "prefers firm pressure"
	got, err := svc.UpdateBooking(context.Background(), bookingID, &api.BookingUpdateRequest{
		Notes:    &notes,
		ProNotes: &proNotes,
	})
	require.NoError(t, err)

	require.NotNil(t, got.Notes)
	assert.Equal(t, notes, *got.Notes)
	require.NotNil(t, got.ProNotes)
	assert.Equal(t, proNotes, *got.ProNotes)
	assert.Equal(t, string(models.BookingPending), got.Status, "note edits must not touch the status")
}

func TestCreateReview(t *testing.T) {
	svc, store := newTestService(t)
	serviceID := seedService(store, 30, 5000, true)

	pendingID := seedBooking(store, serviceID, "2026-01-07", "10:00", "10:30", models.BookingPending)
	completedID := seedBooking(store, serviceID, "2026-01-07", "11:00", "11:30", models.BookingCompleted)

	_, err := svc.CreateReview(context.Background(), &api.ReviewRequest{BookingID: pendingID, Rating: 5})
	require.ErrorIs(t, err, response.ErrBookingIncomplete)

	_, err = svc.CreateReview(context.Background(), &api.ReviewRequest{BookingID: completedID, Rating: 0})
	require.ErrorIs(t, err, response.ErrBadRequest)

	_, err = svc.CreateReview(context.Background(), &api.ReviewRequest{BookingID: uuid.NewString(), Rating: 5})
	require.ErrorIs(t, err, response.ErrNotFound)

	review, err := svc.CreateReview(context.Background(), &api.ReviewRequest{BookingID: completedID, Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, completedID, review.BookingID)
	assert.Equal(t, 5, review.Rating)

	_, err = svc.CreateReview(context.Background(), &api.ReviewRequest{BookingID: completedID, Rating: 4})
	require.ErrorIs(t, err, response.ErrExists)
}

func TestListServicesCached(t *testing.T) {
	svc, store := newTestService(t)
	serviceID := seedService(store, 30, 5000, true)

	first, err := svc.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	// behind the cache's back
	seedService(store, 60, 9000, true)

	second, err := svc.ListServices(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, 1, "list must be served from cache")

	name := "Deep tissue"
	_, err = svc.UpdateService(context.Background(), serviceID, &api.ServiceRequest{
		Name:            name,
		DurationMinutes: 30,
		PriceCents:      5500,
		IsActive:        true,
	})
	require.NoError(t, err)

	third, err := svc.ListServices(context.Background())
	require.NoError(t, err)
	assert.Len(t, third, 2, "writes must invalidate the cached list")
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, got.SlotGranularityMinutes)
	assert.Equal(t, 60, got.MinLeadTimeMinutes)
	assert.Equal(t, 0, got.MinDaysAhead)
	assert.Equal(t, 60, got.MaxDaysAhead)

	_, err = svc.UpdateSettings(context.Background(), &api.SiteSettingsRequest{
		SlotGranularityMinutes: 15,
		MinLeadTimeMinutes:     30,
		MinDaysAhead:           5,
		MaxDaysAhead:           2,
	})
	require.ErrorIs(t, err, response.ErrBadRequest)

	updated, err := svc.UpdateSettings(context.Background(), &api.SiteSettingsRequest{
		SlotGranularityMinutes: 15,
		MinLeadTimeMinutes:     30,
		MinDaysAhead:           0,
		MaxDaysAhead:           14,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, updated.SlotGranularityMinutes)
	assert.Equal(t, 14, updated.MaxDaysAhead)
}

func TestCreateWeeklyAvailabilityValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateWeeklyAvailability(context.Background(), &api.WeeklyAvailabilityRequest{
		DayOfWeek: "noday",
		StartTime: "09:00",
		EndTime:   "12:00",
	})
	require.ErrorIs(t, err, response.ErrBadRequest)

	_, err = svc.CreateWeeklyAvailability(context.Background(), &api.WeeklyAvailabilityRequest{
		DayOfWeek: "monday",
		StartTime: "12:00",
		EndTime:   "09:00",
	})
	require.ErrorIs(t, err, schedule.ErrInvalidInterval)

	created, err := svc.CreateWeeklyAvailability(context.Background(), &api.WeeklyAvailabilityRequest{
		DayOfWeek: "monday",
		StartTime: "09:00",
		EndTime:   "12:00",
		IsActive:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "MONDAY", created.DayOfWeek)

	_, err = svc.CreateWeeklyAvailability(context.Background(), &api.WeeklyAvailabilityRequest{
		DayOfWeek: "monday",
		StartTime: "09:00",
		EndTime:   "12:00",
		IsActive:  true,
	})
	require.ErrorIs(t, err, response.ErrExists)
}
