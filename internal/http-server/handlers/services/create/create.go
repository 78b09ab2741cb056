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

type ServiceCreator interface {
	CreateService(ctx context.Context, req *api.ServiceRequest) (*api.ServiceResponse, error)
}

type Request struct {
	api.ServiceRequest
}

type Response struct {
	response.Response
	Service api.ServiceResponse `json:"service,omitempty"`
}

func New(log *slog.Logger, creator ServiceCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.services.create.New"

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

		svc, err := creator.CreateService(r.Context(), &req.ServiceRequest)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid request")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "name, positive duration and non-negative price are required"))
			return
		}

		if errors.Is(err, response.ErrExists) {
			log.Warn("service already exists")
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.ALREADY_EXISTS), "service already exists"))
			return
		}

		if err != nil {
			log.Error("Failed to create service", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create service"))
			return
		}

		log.Info("Service created", slog.Any("service", svc))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Service: *svc,
		})
	}
}
