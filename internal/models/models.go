package models

import (
	"strconv"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingNoShow    BookingStatus = "NO_SHOW"
)

// CanTransitionTo reports whether a booking may move from s to next.
// COMPLETED, CANCELLED and NO_SHOW are terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingPending:
		return next == BookingConfirmed || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingCompleted || next == BookingCancelled || next == BookingNoShow
	default:
		return false
	}
}

// Occupies reports whether a booking in status s blocks its interval
// for conflict checks.
func (s BookingStatus) Occupies() bool {
	return s == BookingPending || s == BookingConfirmed
}

type WeeklyAvailability struct {
	ID        string       `db:"id"`
	DayOfWeek time.Weekday `db:"day_of_week"`
	StartTime string       `db:"start_time"` // "HH:MM"
	EndTime   string       `db:"end_time"`
	IsActive  bool         `db:"is_active"`
}

type BlockedSlot struct {
	ID        string    `db:"id"`
	Date      time.Time `db:"date"`
	StartTime string    `db:"start_time"`
	EndTime   string    `db:"end_time"`
	Reason    *string   `db:"reason"`
}

type Service struct {
	ID              string  `db:"id"`
	Name            string  `db:"name"`
	Description     *string `db:"description"`
	DurationMinutes int     `db:"duration_minutes"`
	PriceCents      int64   `db:"price_cents"`
	IsActive        bool    `db:"is_active"`
	DisplayOrder    int     `db:"display_order"`
}

type Booking struct {
	ID                  string        `db:"id"`
	ServiceID           string        `db:"service_id"`
	UserID              string        `db:"user_id"`
	Date                time.Time     `db:"date"`
	StartTime           string        `db:"start_time"`
	EndTime             string        `db:"end_time"`
	Status              BookingStatus `db:"status"`
	PriceAtBookingCents int64         `db:"price_at_booking_cents"`
	Notes               *string       `db:"notes"`
	ProNotes            *string       `db:"pro_notes"`
}

type Review struct {
	ID        string    `db:"id"`
	BookingID string    `db:"booking_id"`
	Rating    int       `db:"rating"`
	Comment   *string   `db:"comment"`
	CreatedAt time.Time `db:"created_at"`
}

type SiteSettings struct {
	SlotGranularityMinutes int `db:"slot_granularity_minutes"`
	MinLeadTimeMinutes     int `db:"min_lead_time_minutes"`
	MinDaysAhead           int `db:"min_days_ahead"`
	MaxDaysAhead           int `db:"max_days_ahead"`
}

// ParseWeekday accepts the formats weekday columns tend to hold:
// "mon", "monday", "MONDAY", "1", "0" and so on (0 = Sunday).
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n <= 6 {
			return time.Weekday(n), true
		}
		if n == 7 {
			return time.Sunday, true
		}
		return 0, false
	}

	switch s {
	case "sun", "sunday":
		return time.Sunday, true
	case "mon", "monday":
		return time.Monday, true
	case "tue", "tues", "tuesday":
		return time.Tuesday, true
	case "wed", "wednesday":
		return time.Wednesday, true
	case "thu", "thur", "thursday":
		return time.Thursday, true
	case "fri", "friday":
		return time.Friday, true
	case "sat", "saturday":
		return time.Saturday, true
	default:
		return 0, false
	}
}

// WeekdayName returns the uppercase name stored in the database.
func WeekdayName(d time.Weekday) string {
	return strings.ToUpper(d.String())
}
