package api

// Weekly availability

type WeeklyAvailabilityRequest struct {
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsActive  bool   `json:"is_active"`
}

type WeeklyAvailabilityResponse struct {
	ID        string `json:"id"`
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsActive  bool   `json:"is_active"`
}

// Blocked slots

type BlockedSlotRequest struct {
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Reason    *string `json:"reason,omitempty"`
}

type BlockedSlotResponse struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Reason    *string `json:"reason,omitempty"`
}

// Services

type ServiceRequest struct {
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	DurationMinutes int     `json:"duration_minutes"`
	PriceCents      int64   `json:"price_cents"`
	IsActive        bool    `json:"is_active"`
	DisplayOrder    int     `json:"display_order"`
}

type ServiceResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	DurationMinutes int     `json:"duration_minutes"`
	PriceCents      int64   `json:"price_cents"`
	IsActive        bool    `json:"is_active"`
	DisplayOrder    int     `json:"display_order"`
}

// Slots

type AvailableSlotsRequest struct {
	ServiceID string `json:"service_id"`
	Date      string `json:"date"`
}

// Bookings

type BookingRequest struct {
	ServiceID string  `json:"service_id"`
	UserID    string  `json:"user_id"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	Notes     *string `json:"notes,omitempty"`
}

type BookingUpdateRequest struct {
	Status   *string `json:"status,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	ProNotes *string `json:"pro_notes,omitempty"`
}

type BookingResponse struct {
	ID                  string  `json:"id"`
	ServiceID           string  `json:"service_id"`
	UserID              string  `json:"user_id"`
	Date                string  `json:"date"`
	StartTime           string  `json:"start_time"`
	EndTime             string  `json:"end_time"`
	Status              string  `json:"status"`
	PriceAtBookingCents int64   `json:"price_at_booking_cents"`
	Notes               *string `json:"notes,omitempty"`
	ProNotes            *string `json:"pro_notes,omitempty"`
}

// Reviews

type ReviewRequest struct {
	BookingID string  `json:"booking_id"`
	Rating    int     `json:"rating"`
	Comment   *string `json:"comment,omitempty"`
}

type ReviewResponse struct {
	ID        string  `json:"id"`
	BookingID string  `json:"booking_id"`
	Rating    int     `json:"rating"`
	Comment   *string `json:"comment,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// Site settings

type SiteSettingsRequest struct {
	SlotGranularityMinutes int `json:"slot_granularity_minutes"`
	MinLeadTimeMinutes     int `json:"min_lead_time_minutes"`
	MinDaysAhead           int `json:"min_days_ahead"`
	MaxDaysAhead           int `json:"max_days_ahead"`
}

type SiteSettingsResponse struct {
	SlotGranularityMinutes int `json:"slot_granularity_minutes"`
	MinLeadTimeMinutes     int `json:"min_lead_time_minutes"`
	MinDaysAhead           int `json:"min_days_ahead"`
	MaxDaysAhead           int `json:"max_days_ahead"`
}
