package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"salon-service/api"
	"salon-service/internal/cache"
	"salon-service/internal/config"
	"salon-service/internal/lock"
	"salon-service/internal/metrics"
	"salon-service/internal/models"
	"salon-service/internal/schedule"
	"salon-service/pkg/response"
)

const (
	dateLayout = "2006-01-02"

	// reservation lock discipline: a bounded number of short retries,
	// then the contention is surfaced as a plain slot conflict
	lockTTL        = 10 * time.Second
	lockAttempts   = 3
	lockRetryDelay = 150 * time.Millisecond

	servicesCacheKey = "services:list"
	settingsCacheKey = "site:settings"
)

type Service struct {
	store    Store
	locker   lock.Locker
	cache    cache.Cache
	defaults config.BookingDefaults
	cacheTTL time.Duration

	// injectable clock for lead-time and horizon tests
	now func() time.Time
}

func NewService(store Store, locker lock.Locker, c cache.Cache, defaults config.BookingDefaults, cacheTTL time.Duration) *Service {
	return &Service{
		store:    store,
		locker:   locker,
		cache:    c,
		defaults: defaults,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

type Store interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// Weekly availability
	CreateWeeklyAvailability(ctx context.Context, wa *models.WeeklyAvailability) (string, error)
	GetWeeklyAvailability(ctx context.Context, id string) (*models.WeeklyAvailability, error)
	ListWeeklyAvailability(ctx context.Context, weekday *time.Weekday, activeOnly bool) ([]*models.WeeklyAvailability, error)
	UpdateWeeklyAvailability(ctx context.Context, wa *models.WeeklyAvailability) error
	DeleteWeeklyAvailability(ctx context.Context, id string) error

	// Blocked slots
	CreateBlockedSlot(ctx context.Context, b *models.BlockedSlot) (string, error)
	ListBlockedSlots(ctx context.Context, date *time.Time) ([]*models.BlockedSlot, error)
	DeleteBlockedSlot(ctx context.Context, id string) error

	// Services
	CreateService(ctx context.Context, svc *models.Service) (string, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	ListServices(ctx context.Context) ([]*models.Service, error)
	UpdateService(ctx context.Context, svc *models.Service) error
	DeleteService(ctx context.Context, id string) error

	// Bookings
	ListActiveBookings(ctx context.Context, date time.Time) ([]*models.Booking, error)
	ListActiveBookingsTx(ctx context.Context, tx *sql.Tx, date time.Time) ([]*models.Booking, error)
	InsertBookingTx(ctx context.Context, tx *sql.Tx, b *models.Booking) (string, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, date *time.Time, status *string) ([]*models.Booking, error)
	UpdateBooking(ctx context.Context, b *models.Booking) error

	// Reviews
	CreateReview(ctx context.Context, r *models.Review) (string, error)
	GetReview(ctx context.Context, id string) (*models.Review, error)
	ListReviews(ctx context.Context) ([]*models.Review, error)

	// Site settings
	GetSiteSettings(ctx context.Context) (*models.SiteSettings, error)
	UpsertSiteSettings(ctx context.Context, st *models.SiteSettings) error
}

// Weekly availability

func (s *Service) CreateWeeklyAvailability(ctx context.Context, req *api.WeeklyAvailabilityRequest) (*api.WeeklyAvailabilityResponse, error) {
	const op = "service.CreateWeeklyAvailability"

	weekday, ok := models.ParseWeekday(req.DayOfWeek)
	if !ok {
		return nil, fmt.Errorf("%s: invalid day_of_week: %w", op, response.ErrBadRequest)
	}

	if _, err := schedule.ParseInterval(req.StartTime, req.EndTime); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	wa := &models.WeeklyAvailability{
		DayOfWeek: weekday,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsActive:  req.IsActive,
	}

	id, err := s.store.CreateWeeklyAvailability(ctx, wa)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	wa.ID = id

	return weeklyAvailabilityResponse(wa), nil
}

func (s *Service) ListWeeklyAvailability(ctx context.Context, includeInactive bool) ([]*api.WeeklyAvailabilityResponse, error) {
	const op = "service.ListWeeklyAvailability"

	rows, err := s.store.ListWeeklyAvailability(ctx, nil, !includeInactive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.WeeklyAvailabilityResponse, 0, len(rows))
	for _, wa := range rows {
		result = append(result, weeklyAvailabilityResponse(wa))
	}

	return result, nil
}

func (s *Service) UpdateWeeklyAvailability(ctx context.Context, id string, req *api.WeeklyAvailabilityRequest) (*api.WeeklyAvailabilityResponse, error) {
	const op = "service.UpdateWeeklyAvailability"

	wa, err := s.store.GetWeeklyAvailability(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	weekday, ok := models.ParseWeekday(req.DayOfWeek)
	if !ok {
		return nil, fmt.Errorf("%s: invalid day_of_week: %w", op, response.ErrBadRequest)
	}

	if _, err := schedule.ParseInterval(req.StartTime, req.EndTime); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	wa.DayOfWeek = weekday
	wa.StartTime = req.StartTime
	wa.EndTime = req.EndTime
	wa.IsActive = req.IsActive

	if err := s.store.UpdateWeeklyAvailability(ctx, wa); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return weeklyAvailabilityResponse(wa), nil
}

func (s *Service) DeleteWeeklyAvailability(ctx context.Context, id string) error {
	const op = "service.DeleteWeeklyAvailability"

	if err := s.store.DeleteWeeklyAvailability(ctx, id); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func weeklyAvailabilityResponse(wa *models.WeeklyAvailability) *api.WeeklyAvailabilityResponse {
	return &api.WeeklyAvailabilityResponse{
		ID:        wa.ID,
		DayOfWeek: models.WeekdayName(wa.DayOfWeek),
		StartTime: wa.StartTime,
		EndTime:   wa.EndTime,
		IsActive:  wa.IsActive,
	}
}

// Blocked slots

func (s *Service) CreateBlockedSlot(ctx context.Context, req *api.BlockedSlotRequest) (*api.BlockedSlotResponse, error) {
	const op = "service.CreateBlockedSlot"

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrBadRequest)
	}

	if _, err := schedule.ParseInterval(req.StartTime, req.EndTime); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	block := &models.BlockedSlot{
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	}

	id, err := s.store.CreateBlockedSlot(ctx, block)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	block.ID = id

	return blockedSlotResponse(block), nil
}

func (s *Service) ListBlockedSlots(ctx context.Context, date *string) ([]*api.BlockedSlotResponse, error) {
	const op = "service.ListBlockedSlots"

	var dateFilter *time.Time
	if date != nil && *date != "" {
		d, err := time.Parse(dateLayout, *date)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrBadRequest)
		}
		dateFilter = &d
	}

	blocks, err := s.store.ListBlockedSlots(ctx, dateFilter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BlockedSlotResponse, 0, len(blocks))
	for _, b := range blocks {
		result = append(result, blockedSlotResponse(b))
	}

	return result, nil
}

func (s *Service) DeleteBlockedSlot(ctx context.Context, id string) error {
	const op = "service.DeleteBlockedSlot"

	if err := s.store.DeleteBlockedSlot(ctx, id); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func blockedSlotResponse(b *models.BlockedSlot) *api.BlockedSlotResponse {
	return &api.BlockedSlotResponse{
		ID:        b.ID,
		Date:      b.Date.Format(dateLayout),
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Reason:    b.Reason,
	}
}

// Services (catalog, cached)

func (s *Service) CreateService(ctx context.Context, req *api.ServiceRequest) (*api.ServiceResponse, error) {
	const op = "service.CreateService"

	if req.Name == "" || req.DurationMinutes <= 0 || req.PriceCents < 0 {
		return nil, fmt.Errorf("%s: %w", op, response.ErrBadRequest)
	}

	svc := &models.Service{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		IsActive:        req.IsActive,
		DisplayOrder:    req.DisplayOrder,
	}

	id, err := s.store.CreateService(ctx, svc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	svc.ID = id
	_ = s.cache.Invalidate(ctx, servicesCacheKey)

	return serviceResponse(svc), nil
}

func (s *Service) GetService(ctx context.Context, id string) (*api.ServiceResponse, error) {
	const op = "service.GetService"

	svc, err := s.store.GetService(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return serviceResponse(svc), nil
}

func (s *Service) ListServices(ctx context.Context) ([]*api.ServiceResponse, error) {
	const op = "service.ListServices"

	if raw, hit, err := s.cache.Get(ctx, servicesCacheKey); err == nil {
		metrics.IncCacheLookup(hit)
		if hit {
			var cached []*api.ServiceResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	services, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.ServiceResponse, 0, len(services))
	for _, svc := range services {
		result = append(result, serviceResponse(svc))
	}

	if raw, err := json.Marshal(result); err == nil {
		_ = s.cache.Set(ctx, servicesCacheKey, raw, s.cacheTTL)
	}

	return result, nil
}

func (s *Service) UpdateService(ctx context.Context, id string, req *api.ServiceRequest) (*api.ServiceResponse, error) {
	const op = "service.UpdateService"

	svc, err := s.store.GetService(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.Name == "" || req.DurationMinutes <= 0 || req.PriceCents < 0 {
		return nil, fmt.Errorf("%s: %w", op, response.ErrBadRequest)
	}

	svc.Name = req.Name
	svc.Description = req.Description
	svc.DurationMinutes = req.DurationMinutes
	svc.PriceCents = req.PriceCents
	svc.IsActive = req.IsActive
	svc.DisplayOrder = req.DisplayOrder

	if err := s.store.UpdateService(ctx, svc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_ = s.cache.Invalidate(ctx, servicesCacheKey)

	return serviceResponse(svc), nil
}

func (s *Service) DeleteService(ctx context.Context, id string) error {
	const op = "service.DeleteService"

	if err := s.store.DeleteService(ctx, id); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		if errors.Is(err, response.ErrConflict) {
			return fmt.Errorf("%s: %w", op, response.ErrConflict)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	_ = s.cache.Invalidate(ctx, servicesCacheKey)

	return nil
}

func serviceResponse(svc *models.Service) *api.ServiceResponse {
	return &api.ServiceResponse{
		ID:              svc.ID,
		Name:            svc.Name,
		Description:     svc.Description,
		DurationMinutes: svc.DurationMinutes,
		PriceCents:      svc.PriceCents,
		IsActive:        svc.IsActive,
		DisplayOrder:    svc.DisplayOrder,
	}
}

// Site settings

func (s *Service) GetSettings(ctx context.Context) (*api.SiteSettingsResponse, error) {
	st, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}

	return &api.SiteSettingsResponse{
		SlotGranularityMinutes: st.SlotGranularityMinutes,
		MinLeadTimeMinutes:     st.MinLeadTimeMinutes,
		MinDaysAhead:           st.MinDaysAhead,
		MaxDaysAhead:           st.MaxDaysAhead,
	}, nil
}

func (s *Service) UpdateSettings(ctx context.Context, req *api.SiteSettingsRequest) (*api.SiteSettingsResponse, error) {
	const op = "service.UpdateSettings"

	if req.SlotGranularityMinutes <= 0 ||
		req.MinLeadTimeMinutes < 0 ||
		req.MinDaysAhead < 0 ||
		req.MaxDaysAhead < req.MinDaysAhead {
		return nil, fmt.Errorf("%s: %w", op, response.ErrBadRequest)
	}

	st := &models.SiteSettings{
		SlotGranularityMinutes: req.SlotGranularityMinutes,
		MinLeadTimeMinutes:     req.MinLeadTimeMinutes,
		MinDaysAhead:           req.MinDaysAhead,
		MaxDaysAhead:           req.MaxDaysAhead,
	}

	if err := s.store.UpsertSiteSettings(ctx, st); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	_ = s.cache.Invalidate(ctx, settingsCacheKey)

	return s.GetSettings(ctx)
}

// settings returns the live site settings, falling back to the config
// defaults when no row has been written yet.
func (s *Service) settings(ctx context.Context) (*models.SiteSettings, error) {
	const op = "service.settings"

	if raw, hit, err := s.cache.Get(ctx, settingsCacheKey); err == nil && hit {
		var cached models.SiteSettings
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
	}

	st, err := s.store.GetSiteSettings(ctx)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			st = &models.SiteSettings{
				SlotGranularityMinutes: s.defaults.SlotGranularityMinutes,
				MinLeadTimeMinutes:     s.defaults.MinLeadTimeMinutes,
				MinDaysAhead:           s.defaults.MinDaysAhead,
				MaxDaysAhead:           s.defaults.MaxDaysAhead,
			}
		} else {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if raw, err := json.Marshal(st); err == nil {
		_ = s.cache.Set(ctx, settingsCacheKey, raw, s.cacheTTL)
	}

	return st, nil
}

// Slots

// AvailableSlots computes the bookable start times for a (service, date)
// pair: weekly windows minus blocks, stepped on the settings grid, with
// active bookings and the same-day lead time subtracted.
func (s *Service) AvailableSlots(ctx context.Context, req *api.AvailableSlotsRequest) ([]string, error) {
	const op = "service.AvailableSlots"

	st, err := s.settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	svc, err := s.store.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !svc.IsActive {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrBadRequest)
	}

	if err := s.checkHorizon(date, st); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	open, err := s.resolveOpen(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(open) == 0 {
		// closed day
		return []string{}, nil
	}

	busy, err := s.activeBookingIntervals(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	starts := schedule.Generate(open, busy, schedule.GenerateParams{
		GranularityMinutes: st.SlotGranularityMinutes,
		DurationMinutes:    svc.DurationMinutes,
		NotBefore:          s.leadTimeFloor(date, st),
	})

	result := make([]string, 0, len(starts))
	for _, t := range starts {
		result = append(result, schedule.FormatClock(t))
	}

	return result, nil
}

// resolveOpen loads the weekday windows and the date's blocks and runs
// them through the resolver.
func (s *Service) resolveOpen(ctx context.Context, date time.Time) ([]schedule.Interval, error) {
	const op = "service.resolveOpen"

	weekday := date.Weekday()
	weekly, err := s.store.ListWeeklyAvailability(ctx, &weekday, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	windows := make([]schedule.Interval, 0, len(weekly))
	for _, wa := range weekly {
		iv, err := schedule.ParseInterval(wa.StartTime, wa.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%s: availability %s: %w", op, wa.ID, err)
		}
		windows = append(windows, iv)
	}

	blocks, err := s.store.ListBlockedSlots(ctx, &date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	blocked := make([]schedule.Interval, 0, len(blocks))
	for _, b := range blocks {
		iv, err := schedule.ParseInterval(b.StartTime, b.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%s: block %s: %w", op, b.ID, err)
		}
		blocked = append(blocked, iv)
	}

	return schedule.ResolveOpen(windows, blocked), nil
}

func (s *Service) activeBookingIntervals(ctx context.Context, date time.Time) ([]schedule.Interval, error) {
	const op = "service.activeBookingIntervals"

	bookings, err := s.store.ListActiveBookings(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookingIntervals(bookings)
}

func bookingIntervals(bookings []*models.Booking) ([]schedule.Interval, error) {
	busy := make([]schedule.Interval, 0, len(bookings))
	for _, b := range bookings {
		if !b.Status.Occupies() {
			continue
		}
		iv, err := schedule.ParseInterval(b.StartTime, b.EndTime)
		if err != nil {
			return nil, fmt.Errorf("booking %s: %w", b.ID, err)
		}
		busy = append(busy, iv)
	}

	return busy, nil
}

// checkHorizon rejects dates outside [today+minDays, today+maxDays]
// before any availability work happens.
func (s *Service) checkHorizon(date time.Time, st *models.SiteSettings) error {
	today := truncateToDate(s.now())
	earliest := today.AddDate(0, 0, st.MinDaysAhead)
	latest := today.AddDate(0, 0, st.MaxDaysAhead)

	d := truncateToDate(date)
	if d.Before(earliest) || d.After(latest) {
		return response.ErrOutOfHorizon
	}

	return nil
}

// leadTimeFloor returns the earliest allowed slot start for same-day
// requests, -1 otherwise.
func (s *Service) leadTimeFloor(date time.Time, st *models.SiteSettings) int {
	now := s.now()
	if !truncateToDate(date).Equal(truncateToDate(now)) {
		return -1
	}

	return now.Hour()*60 + now.Minute() + st.MinLeadTimeMinutes
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Bookings

// CreateBooking is the conflict guard: it re-validates the requested
// slot against live state under a per-date lock and lets the storage
// exclusion constraint catch anything that slips through.
func (s *Service) CreateBooking(ctx context.Context, req *api.BookingRequest) (*api.BookingResponse, error) {
	const op = "service.CreateBooking"

	st, err := s.settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	svc, err := s.store.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !svc.IsActive {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	if req.UserID == "" {
		return nil, fmt.Errorf("%s: user_id is required: %w", op, response.ErrBadRequest)
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrBadRequest)
	}

	if err := s.checkHorizon(date, st); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	startMin, err := schedule.ParseClock(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid start_time: %w", op, response.ErrBadRequest)
	}
	if startMin%st.SlotGranularityMinutes != 0 {
		return nil, fmt.Errorf("%s: start_time off the slot grid: %w", op, response.ErrBadRequest)
	}

	slot, err := schedule.NewInterval(startMin, startMin+svc.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if floor := s.leadTimeFloor(date, st); floor >= 0 && startMin < floor {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
	}

	lockKey := fmt.Sprintf("bookings:%s", req.Date)
	if err := s.lockWithRetry(ctx, lockKey); err != nil {
		metrics.IncSlotConflict()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	open, err := s.resolveOpen(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !fitsOpen(slot, open) {
		metrics.IncSlotConflict()
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	existing, err := s.store.ListActiveBookingsTx(ctx, tx, date)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	busy, err := bookingIntervals(existing)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, b := range busy {
		if slot.Overlaps(b) {
			_ = tx.Rollback()
			metrics.IncSlotConflict()
			return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
		}
	}

	booking := &models.Booking{
		ServiceID:           svc.ID,
		UserID:              req.UserID,
		Date:                date,
		StartTime:           schedule.FormatClock(slot.Start),
		EndTime:             schedule.FormatClock(slot.End),
		Status:              models.BookingPending,
		PriceAtBookingCents: svc.PriceCents,
		Notes:               req.Notes,
	}

	bookingID, err := s.store.InsertBookingTx(ctx, tx, booking)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, response.ErrSlotNotAvailable) {
			metrics.IncSlotConflict()
			return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
		}
		return nil, fmt.Errorf("%s: create booking: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	metrics.IncBookingCreated(string(models.BookingPending))

	return s.GetBooking(ctx, bookingID)
}

// lockWithRetry attempts the per-date lock a bounded number of times;
// persistent contention degrades to a slot conflict so the caller just
// re-fetches availability.
func (s *Service) lockWithRetry(ctx context.Context, key string) error {
	for attempt := 0; attempt < lockAttempts; attempt++ {
		locked, err := s.locker.Lock(ctx, key, lockTTL)
		if err != nil {
			return fmt.Errorf("lock: %w", err)
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}

	return response.ErrSlotNotAvailable
}

func fitsOpen(slot schedule.Interval, open []schedule.Interval) bool {
	for _, w := range open {
		if slot.Start >= w.Start && slot.End <= w.End {
			return true
		}
	}

	return false
}

func (s *Service) GetBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookingResponse(booking), nil
}

func (s *Service) ListBookings(ctx context.Context, date *string, status *string) ([]*api.BookingResponse, error) {
	const op = "service.ListBookings"

	var dateFilter *time.Time
	if date != nil && *date != "" {
		d, err := time.Parse(dateLayout, *date)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrBadRequest)
		}
		dateFilter = &d
	}

	bookings, err := s.store.ListBookings(ctx, dateFilter, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, bookingResponse(b))
	}

	return result, nil
}

// UpdateBooking applies a status transition and/or note edits. Illegal
// transitions fail with ErrInvalidTransition; terminal states accept
// nothing.
func (s *Service) UpdateBooking(ctx context.Context, id string, req *api.BookingUpdateRequest) (*api.BookingResponse, error) {
	const op = "service.UpdateBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.Status != nil {
		next := models.BookingStatus(*req.Status)
		switch next {
		case models.BookingPending, models.BookingConfirmed, models.BookingCompleted,
			models.BookingCancelled, models.BookingNoShow:
		default:
			return nil, fmt.Errorf("%s: unknown status %q: %w", op, *req.Status, response.ErrBadRequest)
		}

		if !booking.Status.CanTransitionTo(next) {
			return nil, fmt.Errorf("%s: %s -> %s: %w", op, booking.Status, next, response.ErrInvalidTransition)
		}
		booking.Status = next
	}

	if req.Notes != nil {
		booking.Notes = req.Notes
	}
	if req.ProNotes != nil {
		booking.ProNotes = req.ProNotes
	}

	if err := s.store.UpdateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookingResponse(booking), nil
}

func bookingResponse(b *models.Booking) *api.BookingResponse {
	return &api.BookingResponse{
		ID:                  b.ID,
		ServiceID:           b.ServiceID,
		UserID:              b.UserID,
		Date:                b.Date.Format(dateLayout),
		StartTime:           b.StartTime,
		EndTime:             b.EndTime,
		Status:              string(b.Status),
		PriceAtBookingCents: b.PriceAtBookingCents,
		Notes:               b.Notes,
		ProNotes:            b.ProNotes,
	}
}

// Reviews

func (s *Service) CreateReview(ctx context.Context, req *api.ReviewRequest) (*api.ReviewResponse, error) {
	const op = "service.CreateReview"

	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%s: rating must be 1..5: %w", op, response.ErrBadRequest)
	}

	booking, err := s.store.GetBooking(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if booking.Status != models.BookingCompleted {
		return nil, fmt.Errorf("%s: %w", op, response.ErrBookingIncomplete)
	}

	review := &models.Review{
		BookingID: req.BookingID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	id, err := s.store.CreateReview(ctx, review)
	if err != nil {
		if errors.Is(err, response.ErrExists) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stored, err := s.store.GetReview(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reviewResponse(stored), nil
}

func (s *Service) ListReviews(ctx context.Context) ([]*api.ReviewResponse, error) {
	const op = "service.ListReviews"

	reviews, err := s.store.ListReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		result = append(result, reviewResponse(r))
	}

	return result, nil
}

func reviewResponse(r *models.Review) *api.ReviewResponse {
	return &api.ReviewResponse{
		ID:        r.ID,
		BookingID: r.BookingID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}
