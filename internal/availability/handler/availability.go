package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"opatam/internal/availability/service"
	httputil "opatam/pkg/http"
	"opatam/pkg/logger"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()
	slots, err := h.service.Slots(r.Context(), service.SlotsQuery{
		ProviderID: ps.ByName("provider_id"),
		ServiceID:  query.Get("service_id"),
		MemberID:   query.Get("member_id"),
		Date:       query.Get("date"),
	})
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "Slots", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) NextAvailable(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	horizon, err := httputil.QueryInt(r, "horizon", 0)
	if err != nil {
		h.writeError(w, "NextAvailable", err)
		return
	}

	query := r.URL.Query()
	next, err := h.service.NextAvailable(r.Context(), service.NextAvailableQuery{
		ProviderID:  ps.ByName("provider_id"),
		ServiceID:   query.Get("service_id"),
		MemberID:    query.Get("member_id"),
		From:        query.Get("from"),
		HorizonDays: horizon,
	})
	if err != nil {
		h.writeError(w, "NextAvailable", err)
		return
	}

	if err := httputil.WriteSuccess(w, next); err != nil {
		h.log.Error("failed to write success response", "handler", "NextAvailable", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/providers/:provider_id/slots", h.Slots)
	router.GET("/api/v1/providers/:provider_id/next-available", h.NextAvailable)
}
