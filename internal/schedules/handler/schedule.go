package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"opatam/internal/schedules/service"
	apperrors "opatam/pkg/errors"
	httputil "opatam/pkg/http"
	"opatam/pkg/logger"
	"opatam/pkg/model"
)

// maxBlockedPeriodsRange caps the from/to window of a blocked period listing.
const maxBlockedPeriodsRange = 366

type ScheduleHandler struct {
	service service.ScheduleService
	log     *logger.Logger
}

func NewScheduleHandler(service service.ScheduleService, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		log:     log,
	}
}

func (h *ScheduleHandler) GetWeeklySchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	week, err := h.service.GetWeeklySchedule(r.Context(), ps.ByName("provider_id"), ps.ByName("member_id"))
	if err != nil {
		h.writeError(w, "GetWeeklySchedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, week); err != nil {
		h.log.Error("failed to write success response", "handler", "GetWeeklySchedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) SetWeeklySchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var week model.WeeklySchedule
	if err := json.NewDecoder(r.Body).Decode(&week); err != nil {
		h.writeBadBody(w, "SetWeeklySchedule")
		return
	}

	saved, err := h.service.SetWeeklySchedule(r.Context(), ps.ByName("provider_id"), ps.ByName("member_id"), &week)
	if err != nil {
		h.writeError(w, "SetWeeklySchedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, saved); err != nil {
		h.log.Error("failed to write success response", "handler", "SetWeeklySchedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) BlockPeriod(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.BlockPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, "BlockPeriod")
		return
	}

	periods, err := h.service.BlockPeriod(r.Context(), ps.ByName("provider_id"), &req)
	if err != nil {
		h.writeError(w, "BlockPeriod", err)
		return
	}

	if err := httputil.WriteCreated(w, periods); err != nil {
		h.log.Error("failed to write created response", "handler", "BlockPeriod", "operation", "WriteCreated", "error", err)
	}
}

func (h *ScheduleHandler) UnblockPeriod(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.UnblockPeriod(r.Context(), ps.ByName("provider_id"), ps.ByName("id")); err != nil {
		h.writeError(w, "UnblockPeriod", err)
		return
	}

	httputil.WriteNoContent(w)
}

// GetBlockedPeriods lists periods for ?member_id=&from=&to=. from defaults to
// today (UTC) and to defaults to from.
func (h *ScheduleHandler) GetBlockedPeriods(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	from, ok, err := httputil.QueryDate(r, "from", time.UTC)
	if err != nil {
		h.writeError(w, "GetBlockedPeriods", err)
		return
	}
	if !ok {
		now := time.Now().UTC()
		from = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	to, ok, err := httputil.QueryDate(r, "to", time.UTC)
	if err != nil {
		h.writeError(w, "GetBlockedPeriods", err)
		return
	}
	if !ok {
		to = from
	}
	if to.Sub(from) > maxBlockedPeriodsRange*24*time.Hour {
		h.writeError(w, "GetBlockedPeriods", apperrors.InvalidInput("from/to range cannot exceed one year"))
		return
	}

	periods, err := h.service.GetBlockedPeriods(r.Context(), ps.ByName("provider_id"), r.URL.Query().Get("member_id"), from, to)
	if err != nil {
		h.writeError(w, "GetBlockedPeriods", err)
		return
	}
	if periods == nil {
		periods = []model.BlockedPeriod{}
	}

	if err := httputil.WriteSuccess(w, periods); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBlockedPeriods", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ScheduleHandler) writeBadBody(w http.ResponseWriter, handler string) {
	if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
		Code:  apperrors.CodeInvalidInput,
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *ScheduleHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/providers/:provider_id/members/:member_id/schedule", h.GetWeeklySchedule)
	router.PUT("/api/v1/providers/:provider_id/members/:member_id/schedule", h.SetWeeklySchedule)
	router.POST("/api/v1/providers/:provider_id/blocked-periods", h.BlockPeriod)
	router.GET("/api/v1/providers/:provider_id/blocked-periods", h.GetBlockedPeriods)
	router.DELETE("/api/v1/providers/:provider_id/blocked-periods/:id", h.UnblockPeriod)
}
