package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/madinabek/flowershop-backend/api/responses"
	"github.com/madinabek/flowershop-backend/internal/tracking"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
	"github.com/madinabek/flowershop-backend/pkg/logger"
)

// TrackOrder renders the public status page payload for a tracking token. The
// route carries no authentication; the token is the only credential.
func TrackOrder(presenter *tracking.Presenter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if presenter == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking presenter unavailable"))
			return
		}

		token := strings.TrimSpace(chi.URLParam(r, "token"))
		view, err := presenter.Present(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}
