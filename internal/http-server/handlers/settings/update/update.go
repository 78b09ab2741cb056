package update

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

type SettingsUpdater interface {
	UpdateSettings(ctx context.Context, req *api.SiteSettingsRequest) (*api.SiteSettingsResponse, error)
}

type Request struct {
	api.SiteSettingsRequest
}

type Response struct {
	response.Response
	Settings api.SiteSettingsResponse `json:"settings,omitempty"`
}

func New(log *slog.Logger, updater SettingsUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.settings.update.New"

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

		settings, err := updater.UpdateSettings(r.Context(), &req.SiteSettingsRequest)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("invalid settings")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "granularity must be positive and horizon min must not exceed max"))
			return
		}

		if err != nil {
			log.Error("Failed to update settings", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to update settings"))
			return
		}

		log.Info("Settings updated", slog.Any("settings", settings))

		render.JSON(w, r, Response{
			Settings: *settings,
		})
	}
}
