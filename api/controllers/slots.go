package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/madinabek/flowershop-backend/api/responses"
	"github.com/madinabek/flowershop-backend/internal/slots"
	"github.com/madinabek/flowershop-backend/pkg/enums"
	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
	"github.com/madinabek/flowershop-backend/pkg/logger"
)

// ListSlots returns the candidate delivery dates and their open time windows
// for the requested fulfilment method.
func ListSlots(planner *slots.Planner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if planner == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "slot planner unavailable"))
			return
		}

		raw := strings.TrimSpace(r.URL.Query().Get("method"))
		if raw == "" {
			raw = enums.DeliveryMethodDelivery.String()
		}
		method, err := enums.ParseDeliveryMethod(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery method").WithDetails(map[string]any{"method": raw}))
			return
		}

		// An explicit date narrows the response to that day's open windows.
		if rawDate := strings.TrimSpace(r.URL.Query().Get("date")); rawDate != "" {
			date, err := time.Parse("2006-01-02", rawDate)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD").WithDetails(map[string]any{"date": rawDate}))
				return
			}
			windows, err := planner.WindowsFor(time.Now(), date, method)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, map[string]any{"windows": windows})
			return
		}

		days, err := planner.Plan(time.Now(), method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"days": days})
	}
}
