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

type AvailabilityCreator interface {
	CreateWeeklyAvailability(ctx context.Context, req *api.WeeklyAvailabilityRequest) (*api.WeeklyAvailabilityResponse, error)
}

type Request struct {
	api.WeeklyAvailabilityRequest
}

type Response struct {
	response.Response
	Availability api.WeeklyAvailabilityResponse `json:"availability,omitempty"`
}

func New(log *slog.Logger, creator AvailabilityCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.create.New"

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

		availability, err := creator.CreateWeeklyAvailability(r.Context(), &req.WeeklyAvailabilityRequest)

		if errors.Is(err, schedule.ErrInvalidInterval) {
			log.Error("invalid time window")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INTERVAL), "start_time must be before end_time"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid request")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid day_of_week or time window"))
			return
		}

		if errors.Is(err, response.ErrExists) {
			log.Warn("availability window already exists")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.ALREADY_EXISTS), "availability window already exists"))
			return
		}

		if err != nil {
			log.Error("Failed to create availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create availability"))
			return
		}

		log.Info("Availability created", slog.Any("availability", availability))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Availability: *availability,
		})
	}
}
