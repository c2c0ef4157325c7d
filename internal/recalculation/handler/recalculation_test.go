package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opatam/internal/availability"
	"opatam/internal/recalculation"
	"opatam/pkg/config"
	"opatam/pkg/logger"
	"opatam/pkg/model"
)

type emptyProviders struct{}

func (emptyProviders) GetByID(context.Context, string) (*model.Provider, error) { return nil, nil }
func (emptyProviders) ListPublished(context.Context) ([]*model.Provider, error) {
	return []*model.Provider{}, nil
}
func (emptyProviders) SetNextAvailable(context.Context, string, *string) error { return nil }

type noSlots struct{}

func (noSlots) FindNextAvailable(context.Context, availability.SearchRequest) (*availability.SearchResult, error) {
	return &availability.SearchResult{}, nil
}

func TestRunThenLast(t *testing.T) {
	cfg := &config.Config{Log: logger.NewNop(), RecalcConcurrency: 1, RecalcTimeout: time.Minute, SearchHorizonDays: 60}
	runs := recalculation.NewMemoryRunStore()
	job := recalculation.NewJob(emptyProviders{}, noSlots{}, nil, runs, nil, cfg)

	router := httprouter.New()
	NewRecalculationHandler(job, runs, cfg.Log).RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recalculation/last", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/recalculation/run", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var run struct {
		Data recalculation.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.NotEmpty(t, run.Data.RunID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recalculation/last", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var last struct {
		Data recalculation.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &last))
	assert.Equal(t, run.Data.RunID, last.Data.RunID)
}
