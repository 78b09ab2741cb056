package get

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

type BlockedSlotLister interface {
	ListBlockedSlots(ctx context.Context, date *string) ([]*api.BlockedSlotResponse, error)
}

type Response struct {
	response.Response
	BlockedSlots []*api.BlockedSlotResponse `json:"blocked_slots"`
}

func New(log *slog.Logger, lister BlockedSlotLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blocked_slots.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var date *string
		if d := r.URL.Query().Get("date"); d != "" {
			date = &d
		}

		blocks, err := lister.ListBlockedSlots(r.Context(), date)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid date filter")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date must be YYYY-MM-DD"))
			return
		}

		if err != nil {
			log.Error("Failed to list blocked slots", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list blocked slots"))
			return
		}

		log.Info("Blocked slots listed", slog.Int("count", len(blocks)))

		render.JSON(w, r, Response{
			BlockedSlots: blocks,
		})
	}
}
