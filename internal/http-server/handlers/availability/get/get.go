package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"salon-service/api"
	"salon-service/pkg/response"
	"salon-service/pkg/sl"
)

type AvailabilityLister interface {
	ListWeeklyAvailability(ctx context.Context, includeInactive bool) ([]*api.WeeklyAvailabilityResponse, error)
}

type Response struct {
	response.Response
	Availability []*api.WeeklyAvailabilityResponse `json:"availability"`
}

func New(log *slog.Logger, lister AvailabilityLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		includeInactive := r.URL.Query().Get("include_inactive") == "true"

		availability, err := lister.ListWeeklyAvailability(r.Context(), includeInactive)
		if err != nil {
			log.Error("Failed to list availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list availability"))
			return
		}

		log.Info("Availability listed", slog.Int("count", len(availability)))

		render.JSON(w, r, Response{
			Availability: availability,
		})
	}
}
