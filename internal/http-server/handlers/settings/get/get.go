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

type SettingsGetter interface {
	GetSettings(ctx context.Context) (*api.SiteSettingsResponse, error)
}

type Response struct {
	response.Response
	Settings api.SiteSettingsResponse `json:"settings,omitempty"`
}

func New(log *slog.Logger, getter SettingsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.settings.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		settings, err := getter.GetSettings(r.Context())
		if err != nil {
			log.Error("Failed to get settings", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get settings"))
			return
		}

		log.Info("Settings retrieved", slog.Any("settings", settings))

		render.JSON(w, r, Response{
			Settings: *settings,
		})
	}
}
