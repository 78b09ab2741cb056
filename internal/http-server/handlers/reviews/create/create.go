package create

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

type ReviewCreator interface {
	CreateReview(ctx context.Context, req *api.ReviewRequest) (*api.ReviewResponse, error)
}

type Request struct {
	api.ReviewRequest
}

type Response struct {
	response.Response
	Review api.ReviewResponse `json:"review,omitempty"`
}

func New(log *slog.Logger, creator ReviewCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.reviews.create.New"

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

		if req.BookingID == "" {
			log.Error("booking_id is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "booking_id is required"))
			return
		}

		review, err := creator.CreateReview(r.Context(), &req.ReviewRequest)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid request")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "rating must be between 1 and 5"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("booking not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "booking not found"))
			return
		}

		if errors.Is(err, response.ErrBookingIncomplete) {
			log.Warn("booking is not completed")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.CONFLICT), "only completed bookings can be reviewed"))
			return
		}

		if errors.Is(err, response.ErrExists) {
			log.Warn("review already exists")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.ALREADY_EXISTS), "booking already has a review"))
			return
		}

		if err != nil {
			log.Error("Failed to create review", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create review"))
			return
		}

		log.Info("Review created", slog.Any("review", review))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Review: *review,
		})
	}
}
