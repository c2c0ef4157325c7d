package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"opatam/internal/providers/service"
	apperrors "opatam/pkg/errors"
	httputil "opatam/pkg/http"
	"opatam/pkg/logger"
	"opatam/pkg/model"
)

type ProviderHandler struct {
	service service.ProviderService
	log     *logger.Logger
}

func NewProviderHandler(service service.ProviderService, log *logger.Logger) *ProviderHandler {
	return &ProviderHandler{
		service: service,
		log:     log,
	}
}

func (h *ProviderHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p model.Provider
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeBadBody(w, "Create")
		return
	}

	if err := h.service.Create(r.Context(), &p); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, p); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ProviderHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, err := h.service.GetByID(r.Context(), ps.ByName("provider_id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, p); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProviderHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	providers, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}
	if providers == nil {
		providers = []*model.Provider{}
	}

	if err := httputil.WritePaginated(w, providers, total, limit, int(offset)); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ProviderHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var p model.Provider
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeBadBody(w, "Update")
		return
	}

	updated, err := h.service.Update(r.Context(), ps.ByName("provider_id"), &p)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, updated); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProviderHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("provider_id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ProviderHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ProviderHandler) writeBadBody(w http.ResponseWriter, handler string) {
	if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: "Invalid request body",
		Code:  apperrors.CodeInvalidInput,
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *ProviderHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/providers", h.Create)
	router.GET("/api/v1/providers", h.GetAll)
	router.GET("/api/v1/providers/:provider_id", h.GetByID)
	router.PUT("/api/v1/providers/:provider_id", h.Update)
	router.DELETE("/api/v1/providers/:provider_id", h.Delete)
}
