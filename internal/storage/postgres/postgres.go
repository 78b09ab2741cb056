package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"salon-service/internal/models"
	"salon-service/internal/schedule"
	"salon-service/pkg/response"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// #### weekly availability ####

func (s *Storage) CreateWeeklyAvailability(ctx context.Context, wa *models.WeeklyAvailability) (string, error) {
	const op = "storage.postgres.CreateWeeklyAvailability"

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO weekly_availability
		(id, day_of_week, start_time, end_time, is_active)
		VALUES ($1, $2, $3, $4, $5)`,
		id,
		models.WeekdayName(wa.DayOfWeek),
		wa.StartTime,
		wa.EndTime,
		wa.IsActive,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, response.ErrExists)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetWeeklyAvailability(ctx context.Context, id string) (*models.WeeklyAvailability, error) {
	const op = "storage.postgres.GetWeeklyAvailability"

	var wa models.WeeklyAvailability
	var day string

	err := s.db.QueryRowContext(ctx,
		`SELECT day_of_week, start_time, end_time, is_active
		FROM weekly_availability WHERE id=$1`, id).
		Scan(&day, &wa.StartTime, &wa.EndTime, &wa.IsActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	wa.ID = id
	if wd, ok := models.ParseWeekday(day); ok {
		wa.DayOfWeek = wd
	}

	return &wa, nil
}

func (s *Storage) ListWeeklyAvailability(ctx context.Context, weekday *time.Weekday, activeOnly bool) ([]*models.WeeklyAvailability, error) {
	const op = "storage.postgres.ListWeeklyAvailability"

	query := `SELECT id, day_of_week, start_time, end_time, is_active
		FROM weekly_availability`
	var args []any

	switch {
	case weekday != nil && activeOnly:
		query += ` WHERE day_of_week=$1 AND is_active=TRUE`
		args = append(args, models.WeekdayName(*weekday))
	case weekday != nil:
		query += ` WHERE day_of_week=$1`
		args = append(args, models.WeekdayName(*weekday))
	case activeOnly:
		query += ` WHERE is_active=TRUE`
	}
	query += ` ORDER BY day_of_week, start_time`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var result []*models.WeeklyAvailability
	for rows.Next() {
		var wa models.WeeklyAvailability
		var day string

		if err := rows.Scan(&wa.ID, &day, &wa.StartTime, &wa.EndTime, &wa.IsActive); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if wd, ok := models.ParseWeekday(day); ok {
			wa.DayOfWeek = wd
		}

		result = append(result, &wa)
	}

	return result, nil
}

func (s *Storage) UpdateWeeklyAvailability(ctx context.Context, wa *models.WeeklyAvailability) error {
	const op = "storage.postgres.UpdateWeeklyAvailability"

	res, err := s.db.ExecContext(ctx,
		`UPDATE weekly_availability
		SET day_of_week=$1, start_time=$2, end_time=$3, is_active=$4
		WHERE id=$5`,
		models.WeekdayName(wa.DayOfWeek),
		wa.StartTime,
		wa.EndTime,
		wa.IsActive,
		wa.ID,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, response.ErrExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) DeleteWeeklyAvailability(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteWeeklyAvailability"

	res, err := s.db.ExecContext(ctx, `DELETE FROM weekly_availability WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### blocked slots ####

func (s *Storage) CreateBlockedSlot(ctx context.Context, b *models.BlockedSlot) (string, error) {
	const op = "storage.postgres.CreateBlockedSlot"

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blocked_slots (id, block_date, start_time, end_time, reason)
		VALUES ($1, $2, $3, $4, $5)`,
		id,
		b.Date,
		b.StartTime,
		b.EndTime,
		b.Reason,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) ListBlockedSlots(ctx context.Context, date *time.Time) ([]*models.BlockedSlot, error) {
	const op = "storage.postgres.ListBlockedSlots"

	query := `SELECT id, block_date, start_time, end_time, reason FROM blocked_slots`
	var args []any
	if date != nil {
		query += ` WHERE block_date=$1`
		args = append(args, *date)
	}
	query += ` ORDER BY block_date, start_time`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var result []*models.BlockedSlot
	for rows.Next() {
		var b models.BlockedSlot
		if err := rows.Scan(&b.ID, &b.Date, &b.StartTime, &b.EndTime, &b.Reason); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result = append(result, &b)
	}

	return result, nil
}

func (s *Storage) DeleteBlockedSlot(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteBlockedSlot"

	res, err := s.db.ExecContext(ctx, `DELETE FROM blocked_slots WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### services ####

func (s *Storage) CreateService(ctx context.Context, svc *models.Service) (string, error) {
	const op = "storage.postgres.CreateService"

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO services
		(id, name, description, duration_minutes, price_cents, is_active, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id,
		svc.Name,
		svc.Description,
		svc.DurationMinutes,
		svc.PriceCents,
		svc.IsActive,
		svc.DisplayOrder,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, response.ErrExists)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetService(ctx context.Context, id string) (*models.Service, error) {
	const op = "storage.postgres.GetService"

	var svc models.Service

	err := s.db.QueryRowContext(ctx,
		`SELECT name, description, duration_minutes, price_cents, is_active, display_order
		FROM services WHERE id=$1`, id).
		Scan(&svc.Name, &svc.Description, &svc.DurationMinutes, &svc.PriceCents, &svc.IsActive, &svc.DisplayOrder)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	svc.ID = id

	return &svc, nil
}

func (s *Storage) ListServices(ctx context.Context) ([]*models.Service, error) {
	const op = "storage.postgres.ListServices"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, duration_minutes, price_cents, is_active, display_order
		FROM services ORDER BY display_order, name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var result []*models.Service
	for rows.Next() {
		var svc models.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.DurationMinutes,
			&svc.PriceCents, &svc.IsActive, &svc.DisplayOrder); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result = append(result, &svc)
	}

	return result, nil
}

func (s *Storage) UpdateService(ctx context.Context, svc *models.Service) error {
	const op = "storage.postgres.UpdateService"

	res, err := s.db.ExecContext(ctx,
		`UPDATE services
		SET name=$1, description=$2, duration_minutes=$3, price_cents=$4, is_active=$5, display_order=$6
		WHERE id=$7`,
		svc.Name,
		svc.Description,
		svc.DurationMinutes,
		svc.PriceCents,
		svc.IsActive,
		svc.DisplayOrder,
		svc.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) DeleteService(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteService"

	res, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE id=$1`, id)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23503" {
			// referenced by bookings; keep history, disable instead
			return fmt.Errorf("%s: %w", op, response.ErrConflict)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### bookings ####

func scanBookingTimes(b *models.Booking, startMin, endMin int) {
	b.StartTime = schedule.FormatClock(startMin)
	b.EndTime = schedule.FormatClock(endMin)
}

func (s *Storage) ListActiveBookings(ctx context.Context, date time.Time) ([]*models.Booking, error) {
	const op = "storage.postgres.ListActiveBookings"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, service_id, user_id, booking_date, start_min, end_min, status, price_at_booking_cents, notes, pro_notes
		FROM bookings
		WHERE booking_date=$1 AND status IN ('PENDING', 'CONFIRMED')
		ORDER BY start_min`, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	return collectBookings(rows, op)
}

// ListActiveBookingsTx reads the day's active bookings inside the
// reservation transaction with FOR UPDATE so a concurrent insert on the
// same rows serializes behind it.
func (s *Storage) ListActiveBookingsTx(ctx context.Context, tx *sql.Tx, date time.Time) ([]*models.Booking, error) {
	const op = "storage.postgres.ListActiveBookingsTx"

	rows, err := tx.QueryContext(ctx,
		`SELECT id, service_id, user_id, booking_date, start_min, end_min, status, price_at_booking_cents, notes, pro_notes
		FROM bookings
		WHERE booking_date=$1 AND status IN ('PENDING', 'CONFIRMED')
		ORDER BY start_min
		FOR UPDATE`, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	return collectBookings(rows, op)
}

func collectBookings(rows *sql.Rows, op string) ([]*models.Booking, error) {
	var result []*models.Booking
	for rows.Next() {
		var b models.Booking
		var startMin, endMin int

		if err := rows.Scan(&b.ID, &b.ServiceID, &b.UserID, &b.Date, &startMin, &endMin,
			&b.Status, &b.PriceAtBookingCents, &b.Notes, &b.ProNotes); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		scanBookingTimes(&b, startMin, endMin)

		result = append(result, &b)
	}

	return result, nil
}

func (s *Storage) InsertBookingTx(ctx context.Context, tx *sql.Tx, b *models.Booking) (string, error) {
	const op = "storage.postgres.InsertBookingTx"

	startMin, err := schedule.ParseClock(b.StartTime)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	endMin, err := schedule.ParseClock(b.EndTime)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id := uuid.NewString()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings
		(id, service_id, user_id, booking_date, start_min, end_min, status, price_at_booking_cents, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id,
		b.ServiceID,
		b.UserID,
		b.Date,
		startMin,
		endMin,
		string(b.Status),
		b.PriceAtBookingCents,
		b.Notes,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		// 23P01: exclusion constraint on (booking_date, [start_min, end_min))
		if ok && (sqlErr.Code == "23P01" || sqlErr.Code == "23505") {
			return "", fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
		}
		if ok && sqlErr.Code == "23503" {
			return "", fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "storage.postgres.GetBooking"

	var b models.Booking
	var startMin, endMin int

	err := s.db.QueryRowContext(ctx,
		`SELECT service_id, user_id, booking_date, start_min, end_min, status, price_at_booking_cents, notes, pro_notes
		FROM bookings WHERE id=$1`, id).
		Scan(&b.ServiceID, &b.UserID, &b.Date, &startMin, &endMin, &b.Status,
			&b.PriceAtBookingCents, &b.Notes, &b.ProNotes)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	b.ID = id
	scanBookingTimes(&b, startMin, endMin)

	return &b, nil
}

func (s *Storage) ListBookings(ctx context.Context, date *time.Time, status *string) ([]*models.Booking, error) {
	const op = "storage.postgres.ListBookings"

	query := `SELECT id, service_id, user_id, booking_date, start_min, end_min, status, price_at_booking_cents, notes, pro_notes
		FROM bookings`
	var args []any
	var where []string

	if date != nil {
		args = append(args, *date)
		where = append(where, fmt.Sprintf("booking_date=$%d", len(args)))
	}
	if status != nil {
		args = append(args, *status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += ` ORDER BY booking_date, start_min`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	return collectBookings(rows, op)
}

func (s *Storage) UpdateBooking(ctx context.Context, b *models.Booking) error {
	const op = "storage.postgres.UpdateBooking"

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status=$1, notes=$2, pro_notes=$3 WHERE id=$4`,
		string(b.Status),
		b.Notes,
		b.ProNotes,
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### reviews ####

func (s *Storage) CreateReview(ctx context.Context, r *models.Review) (string, error) {
	const op = "storage.postgres.CreateReview"

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (id, booking_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		id,
		r.BookingID,
		r.Rating,
		r.Comment,
	)
	if err != nil {
		sqlErr, ok := err.(*pq.Error)
		if ok && sqlErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, response.ErrExists)
		}
		if ok && sqlErr.Code == "23503" {
			return "", fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetReview(ctx context.Context, id string) (*models.Review, error) {
	const op = "storage.postgres.GetReview"

	var r models.Review

	err := s.db.QueryRowContext(ctx,
		`SELECT booking_id, rating, comment, created_at FROM reviews WHERE id=$1`, id).
		Scan(&r.BookingID, &r.Rating, &r.Comment, &r.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.ID = id

	return &r, nil
}

func (s *Storage) ListReviews(ctx context.Context) ([]*models.Review, error) {
	const op = "storage.postgres.ListReviews"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, booking_id, rating, comment, created_at FROM reviews ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var result []*models.Review
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.BookingID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result = append(result, &r)
	}

	return result, nil
}

// #### site settings ####

func (s *Storage) GetSiteSettings(ctx context.Context) (*models.SiteSettings, error) {
	const op = "storage.postgres.GetSiteSettings"

	var st models.SiteSettings

	err := s.db.QueryRowContext(ctx,
		`SELECT slot_granularity_minutes, min_lead_time_minutes, min_days_ahead, max_days_ahead
		FROM site_settings WHERE id=1`).
		Scan(&st.SlotGranularityMinutes, &st.MinLeadTimeMinutes, &st.MinDaysAhead, &st.MaxDaysAhead)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &st, nil
}

func (s *Storage) UpsertSiteSettings(ctx context.Context, st *models.SiteSettings) error {
	const op = "storage.postgres.UpsertSiteSettings"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO site_settings
		(id, slot_granularity_minutes, min_lead_time_minutes, min_days_ahead, max_days_ahead)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE
		SET slot_granularity_minutes = EXCLUDED.slot_granularity_minutes,
			min_lead_time_minutes = EXCLUDED.min_lead_time_minutes,
			min_days_ahead = EXCLUDED.min_days_ahead,
			max_days_ahead = EXCLUDED.max_days_ahead`,
		st.SlotGranularityMinutes,
		st.MinLeadTimeMinutes,
		st.MinDaysAhead,
		st.MaxDaysAhead,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
