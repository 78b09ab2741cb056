package update

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salon-service/api"
	"salon-service/internal/schedule"
	"salon-service/pkg/response"
	"salon-service/pkg/sl"
)

type AvailabilityUpdater interface {
	UpdateWeeklyAvailability(ctx context.Context, id string, req *api.WeeklyAvailabilityRequest) (*api.WeeklyAvailabilityResponse, error)
}

type Request struct {
	api.WeeklyAvailabilityRequest
}

type Response struct {
	response.Response
	Availability api.WeeklyAvailabilityResponse `json:"availability,omitempty"`
}

func New(log *slog.Logger, updater AvailabilityUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.update.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id is required"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		availability, err := updater.UpdateWeeklyAvailability(r.Context(), id, &req.WeeklyAvailabilityRequest)

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

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if errors.Is(err, response.ErrExists) {
			log.Warn("availability window already exists")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.ALREADY_EXISTS), "availability window already exists"))
			return
		}

		if err != nil {
			log.Error("Failed to update availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update availability"))
			return
		}

		log.Info("Availability updated", slog.Any("availability", availability))

		render.JSON(w, r, Response{
			Availability: *availability,
		})
	}
}
