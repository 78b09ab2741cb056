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

type ReviewLister interface {
	ListReviews(ctx context.Context) ([]*api.ReviewResponse, error)
}

type Response struct {
	response.Response
	Reviews []*api.ReviewResponse `json:"reviews"`
}

func New(log *slog.Logger, lister ReviewLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reviews.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		reviews, err := lister.ListReviews(r.Context())
		if err != nil {
			log.Error("Failed to list reviews", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list reviews"))
			return
		}

		log.Info("Reviews listed", slog.Int("count", len(reviews)))

		render.JSON(w, r, Response{
			Reviews: reviews,
		})
	}
}
