package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"opatam/internal/bookings/service"
	apperrors "opatam/pkg/errors"
	httputil "opatam/pkg/http"
	"opatam/pkg/logger"
	"opatam/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadBody(w, "Create")
		return
	}

	booking, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// List returns the provider's bookings overlapping [from, to), optionally for
// one member.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	from, hasFrom, err := httputil.QueryTime(r, "from")
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	to, hasTo, err := httputil.QueryTime(r, "to")
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	if !hasFrom || !hasTo {
		h.writeError(w, "List", apperrors.InvalidInput("both 'from' and 'to' query parameters are required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	q := model.BookingQuery{
		ProviderID: ps.ByName("provider_id"),
		MemberID:   r.URL.Query().Get("member_id"),
		LocationID: r.URL.Query().Get("location_id"),
		Start:      from,
		End:        to,
	}

	bookings, total, err := h.service.List(r.Context(), q, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, int(offset)); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.BookingStatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeBadBody(w, "UpdateStatus")
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), update.Status)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) writeBadBody(w http.ResponseWriter, handler string) {
	if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
		Code:  apperrors.CodeInvalidInput,
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/:id/status", h.UpdateStatus)
	router.GET("/api/v1/providers/:provider_id/bookings", h.List)
}
