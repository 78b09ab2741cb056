package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salon-service/api"
	"salon-service/pkg/response"
	"salon-service/pkg/sl"
)

type ServiceGetter interface {
	GetService(ctx context.Context, id string) (*api.ServiceResponse, error)
	ListServices(ctx context.Context) ([]*api.ServiceResponse, error)
}

type Response struct {
	response.Response
	Service  *api.ServiceResponse   `json:"service,omitempty"`
	Services []*api.ServiceResponse `json:"services,omitempty"`
}

// New serves both GET /services and GET /services/{id}.
func New(log *slog.Logger, getter ServiceGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.services.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if id == "" {
			services, err := getter.ListServices(r.Context())
			if err != nil {
				log.Error("Failed to list services", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list services"))
				return
			}

			log.Info("Services listed", slog.Int("count", len(services)))
			render.JSON(w, r, Response{Services: services})
			return
		}

		svc, err := getter.GetService(r.Context(), id)

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to get service", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get service"))
			return
		}

		log.Info("Service retrieved", slog.Any("service", svc))
		render.JSON(w, r, Response{Service: svc})
	}
}
