package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"opatam/internal/recalculation"
	apperrors "opatam/pkg/errors"
	httputil "opatam/pkg/http"
	"opatam/pkg/logger"
)

type RecalculationHandler struct {
	job  *recalculation.Job
	runs recalculation.RunStore
	log  *logger.Logger
}

func NewRecalculationHandler(job *recalculation.Job, runs recalculation.RunStore, log *logger.Logger) *RecalculationHandler {
	return &RecalculationHandler{
		job:  job,
		runs: runs,
		log:  log,
	}
}

// Run executes the batch synchronously and returns its result.
func (h *RecalculationHandler) Run(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	res, err := h.job.Run(r.Context())
	if err != nil {
		h.writeError(w, "Run", err)
		return
	}

	if err := httputil.WriteSuccess(w, res); err != nil {
		h.log.Error("failed to write success response", "handler", "Run", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RecalculationHandler) Last(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	res, err := h.runs.Last(r.Context())
	if err != nil {
		h.writeError(w, "Last", apperrors.StoreUnavailable("recalculation", err))
		return
	}
	if res == nil {
		h.writeError(w, "Last", apperrors.NotFound("recalculation run"))
		return
	}

	if err := httputil.WriteSuccess(w, res); err != nil {
		h.log.Error("failed to write success response", "handler", "Last", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RecalculationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *RecalculationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/recalculation/run", h.Run)
	router.GET("/api/v1/recalculation/last", h.Last)
}
