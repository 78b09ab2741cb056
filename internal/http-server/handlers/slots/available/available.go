package available

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"salon-service/api"
	"salon-service/pkg/response"
	"salon-service/pkg/sl"
)

type SlotFinder interface {
	AvailableSlots(ctx context.Context, req *api.AvailableSlotsRequest) ([]string, error)
}

type Request struct {
	api.AvailableSlotsRequest
}

type Response struct {
	response.Response
	Slots []string `json:"slots"`
}

func New(log *slog.Logger, finder SlotFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.slots.available.New"

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

		if req.Date == "" {
			log.Error("date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date is required"))
			return
		}

		slots, err := finder.AvailableSlots(r.Context(), &req.AvailableSlotsRequest)

		if errors.Is(err, response.ErrOutOfHorizon) {
			log.Warn("date outside booking horizon")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.OUT_OF_HORIZON), "date is outside the booking horizon"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid request")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date must be YYYY-MM-DD"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("service not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "service not found"))
			return
		}

		if err != nil {
			log.Error("Failed to compute available slots", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to compute available slots"))
			return
		}

		log.Info("Available slots computed", slog.Int("count", len(slots)))

		render.JSON(w, r, Response{
			Slots: slots,
		})
	}
}
