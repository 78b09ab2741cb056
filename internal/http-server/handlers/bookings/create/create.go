package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"salon-service/api"
	"salon-service/internal/schedule"
	"salon-service/pkg/response"
	"salon-service/pkg/sl"
)

type BookingCreator interface {
	CreateBooking(ctx context.Context, req *api.BookingRequest) (*api.BookingResponse, error)
}

type Request struct {
	api.BookingRequest
}

type Response struct {
	response.Response
	Booking api.BookingResponse `json:"booking,omitempty"`
}

func New(log *slog.Logger, creator BookingCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		if req.ServiceID == "" {
			log.Error("service_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "service_id is required"))
			return
		}

		if req.UserID == "" {
			log.Error("user_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "user_id is required"))
			return
		}

		booking, err := creator.CreateBooking(r.Context(), &req.BookingRequest)

		// expected under load, never an unexpected failure
		if errors.Is(err, response.ErrSlotNotAvailable) {
			log.Info("slot is no longer available")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_NOT_AVAILABLE), "slot is no longer available, please pick another slot"))
			return
		}

		if errors.Is(err, response.ErrOutOfHorizon) {
			log.Warn("date outside booking horizon")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.OUT_OF_HORIZON), "date is outside the booking horizon"))
			return
		}

		if errors.Is(err, schedule.ErrInvalidInterval) {
			log.Error("invalid slot interval")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INTERVAL), "invalid slot interval"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid request")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid date or start_time"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("service not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "service not found"))
			return
		}

		if err != nil {
			log.Error("Failed to create booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create booking"))
			return
		}

		log.Info("Booking created", slog.Any("booking", booking))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Booking: *booking,
		})
	}
}
