package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salon-service/api"
	"salon-service/pkg/response"
	"salon-service/pkg/sl"
)

type BookingGetter interface {
	GetBooking(ctx context.Context, id string) (*api.BookingResponse, error)
	ListBookings(ctx context.Context, date *string, status *string) ([]*api.BookingResponse, error)
}

type Response struct {
	response.Response
	Booking  *api.BookingResponse   `json:"booking,omitempty"`
	Bookings []*api.BookingResponse `json:"bookings,omitempty"`
}

// New serves both GET /bookings and GET /bookings/{id}.
func New(log *slog.Logger, getter BookingGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			var date, status *string
			if d := r.URL.Query().Get("date"); d != "" {
				date = &d
			}
			if s := r.URL.Query().Get("status"); s != "" {
				status = &s
			}

			bookings, err := getter.ListBookings(r.Context(), date, status)

			if errors.Is(err, response.ErrBadRequest) {
				log.Error("invalid date filter")
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date must be YYYY-MM-DD"))
				return
			}

			if err != nil {
				log.Error("Failed to list bookings", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list bookings"))
				return
			}

			log.Info("Bookings listed", slog.Int("count", len(bookings)))
			render.JSON(w, r, Response{Bookings: bookings})
			return
		}

		booking, err := getter.GetBooking(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get booking"))
			return
		}

		log.Info("Booking retrieved", slog.Any("booking", booking))
		render.JSON(w, r, Response{Booking: booking})
	}
}
