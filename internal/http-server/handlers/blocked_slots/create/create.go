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

type BlockedSlotCreator interface {
	CreateBlockedSlot(ctx context.Context, req *api.BlockedSlotRequest) (*api.BlockedSlotResponse, error)
}

type Request struct {
	api.BlockedSlotRequest
}

type Response struct {
	response.Response
	BlockedSlot api.BlockedSlotResponse `json:"blocked_slot,omitempty"`
}

func New(log *slog.Logger, creator BlockedSlotCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blocked_slots.create.New"

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

		block, err := creator.CreateBlockedSlot(r.Context(), &req.BlockedSlotRequest)

		if errors.Is(err, schedule.ErrInvalidInterval) {
			log.Error("invalid time window")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.INVALID_INTERVAL), "start_time must be before end_time"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid request")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid date or time window"))
			return
		}

		if err != nil {
			log.Error("Failed to create blocked slot", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create blocked slot"))
			return
		}

		log.Info("Blocked slot created", slog.Any("blocked_slot", block))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			BlockedSlot: *block,
		})
	}
}
