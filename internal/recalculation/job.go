// Package recalculation refreshes the stored next_available_date of every
// published provider.
package recalculation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"opatam/internal/availability"
	"opatam/internal/events"
	"opatam/pkg/config"
	"opatam/pkg/metrics"
	"opatam/pkg/model"
)

const (
	StatusUpdated   = "updated"
	StatusUnchanged = "unchanged"
	StatusSkipped   = "skipped"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

type ProviderStore interface {
	GetByID(ctx context.Context, id string) (*model.Provider, error)
	ListPublished(ctx context.Context) ([]*model.Provider, error)
	SetNextAvailable(ctx context.Context, id string, date *string) error
}

type Searcher interface {
	FindNextAvailable(ctx context.Context, req availability.SearchRequest) (*availability.SearchResult, error)
}

// CacheInvalidator drops cached search answers of a provider.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, providerID string) error
}

type ProviderDiff struct {
	ProviderID string  `json:"provider_id"`
	Status     string  `json:"status"`
	Previous   *string `json:"previous,omitempty"`
	Current    *string `json:"current,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type Result struct {
	RunID           string         `json:"run_id"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	Updated         int            `json:"updated"`
	Unchanged       int            `json:"unchanged"`
	Skipped         int            `json:"skipped"`
	Errors          int            `json:"errors"`
	Cancelled       int            `json:"cancelled"`
	Truncated       bool           `json:"truncated"`
	PerProviderDiff []ProviderDiff `json:"per_provider_diff"`
}

type Job struct {
	providers ProviderStore
	search    Searcher
	publisher events.Publisher
	runs      RunStore
	cache     CacheInvalidator
	cfg       *config.Config
	now       func() time.Time
}

// NewJob wires the batch. publisher, runs and cache may be nil.
func NewJob(providers ProviderStore, search Searcher, publisher events.Publisher, runs RunStore, cache CacheInvalidator, cfg *config.Config) *Job {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Job{
		providers: providers,
		search:    search,
		publisher: publisher,
		runs:      runs,
		cache:     cache,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Run recalculates every published provider within cfg.RecalcTimeout and keeps
// the result as the last run.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, j.cfg.RecalcTimeout)
	defer cancel()

	providers, err := j.providers.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	res := j.RecalculateAll(ctx, providers)
	if j.runs != nil {
		if err := j.runs.SaveLast(context.WithoutCancel(ctx), res); err != nil {
			j.cfg.Log.Warn("Failed to store recalculation result", "run_id", res.RunID, "error", err)
		}
	}
	return res, nil
}

// RecalculateAll processes providers with bounded concurrency. Failures stay
// per provider. Providers not reached before ctx ends are reported as
// cancelled and the result is marked truncated.
func (j *Job) RecalculateAll(ctx context.Context, providers []*model.Provider) *Result {
	res := &Result{
		RunID:           uuid.New().String(),
		StartedAt:       j.now().UTC(),
		PerProviderDiff: make([]ProviderDiff, len(providers)),
	}
	j.cfg.Log.Info("Recalculation started", "run_id", res.RunID, "providers", len(providers))

	limit := j.cfg.RecalcConcurrency
	if limit <= 0 {
		limit = config.DefaultRecalcConcurrency
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, p := range providers {
		if ctx.Err() != nil {
			res.PerProviderDiff[i] = ProviderDiff{ProviderID: p.ID, Status: StatusCancelled}
			continue
		}
		g.Go(func() error {
			res.PerProviderDiff[i] = j.recalculate(ctx, p, res.RunID)
			return nil
		})
	}
	_ = g.Wait()

	for _, d := range res.PerProviderDiff {
		switch d.Status {
		case StatusUpdated:
			res.Updated++
		case StatusUnchanged:
			res.Unchanged++
		case StatusSkipped:
			res.Skipped++
		case StatusError:
			res.Errors++
		case StatusCancelled:
			res.Cancelled++
			res.Truncated = true
		}
		metrics.RecalculationProviders.WithLabelValues(d.Status).Inc()
	}

	res.FinishedAt = j.now().UTC()
	metrics.RecalculationRunDuration.Observe(res.FinishedAt.Sub(res.StartedAt).Seconds())
	if res.Truncated {
		metrics.RecalculationTruncated.Inc()
	}

	j.cfg.Log.Info("Recalculation finished",
		"run_id", res.RunID,
		"updated", res.Updated,
		"unchanged", res.Unchanged,
		"skipped", res.Skipped,
		"errors", res.Errors,
		"cancelled", res.Cancelled,
		"duration", res.FinishedAt.Sub(res.StartedAt),
	)
	return res
}

// RecalculateOne refreshes a single provider, used when a booking event
// arrives.
func (j *Job) RecalculateOne(ctx context.Context, providerID string) (*ProviderDiff, error) {
	p, err := j.providers.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	diff := j.recalculate(ctx, p, uuid.New().String())
	metrics.RecalculationProviders.WithLabelValues(diff.Status).Inc()
	return &diff, nil
}

func (j *Job) recalculate(ctx context.Context, p *model.Provider, runID string) ProviderDiff {
	diff := ProviderDiff{ProviderID: p.ID, Previous: p.NextAvailableDate}
	if ctx.Err() != nil {
		diff.Status = StatusCancelled
		return diff
	}

	if reason := skipReason(p); reason != "" {
		diff.Status = StatusSkipped
		diff.Reason = reason
		return diff
	}
	member, _ := p.DefaultMember()
	service, _ := p.FirstActiveService()

	res, err := j.search.FindNextAvailable(ctx, availability.SearchRequest{
		ProviderID:  p.ID,
		MemberID:    member.ID,
		Service:     service,
		From:        availability.DayStart(j.now().In(p.Location())),
		HorizonDays: j.cfg.SearchHorizonDays,
	})
	if err != nil {
		return j.failed(diff, err)
	}
	// a search cut short never writes back
	if res.Truncated {
		diff.Status = StatusCancelled
		return diff
	}
	if res.Date == nil && res.FailedDays > 0 {
		return j.failed(diff, fmt.Errorf("%d of %d days failed to load, keeping stored date", res.FailedDays, res.DaysChecked))
	}

	diff.Current = res.DateString()
	if sameDate(diff.Previous, diff.Current) {
		diff.Status = StatusUnchanged
		return diff
	}

	if err := j.providers.SetNextAvailable(ctx, p.ID, diff.Current); err != nil {
		return j.failed(diff, err)
	}
	diff.Status = StatusUpdated

	j.invalidate(ctx, p.ID)

	err = j.publisher.Publish(ctx, events.TypeNextAvailableChanged, p.ID, events.NextAvailableChanged{
		ProviderID: p.ID,
		Previous:   diff.Previous,
		Current:    diff.Current,
		RunID:      runID,
		OccurredAt: j.now().UTC(),
	})
	if err != nil {
		j.cfg.Log.Warn("Failed to publish next available change", "provider_id", p.ID, "error", err)
	}
	return diff
}

func (j *Job) invalidate(ctx context.Context, providerID string) {
	if j.cache == nil {
		return
	}
	if err := j.cache.Invalidate(ctx, providerID); err != nil {
		j.cfg.Log.Warn("Failed to invalidate next available cache", "provider_id", providerID, "error", err)
	}
}

func (j *Job) failed(diff ProviderDiff, err error) ProviderDiff {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		diff.Status = StatusCancelled
		return diff
	}
	j.cfg.Log.Error("Recalculation failed for provider", "provider_id", diff.ProviderID, "error", err)
	diff.Status = StatusError
	diff.Error = err.Error()
	return diff
}

func skipReason(p *model.Provider) string {
	if !p.Published {
		return "provider is not published"
	}
	if _, ok := p.FirstActiveService(); !ok {
		return "no active service"
	}
	if _, ok := p.DefaultMember(); !ok {
		return "no active member"
	}
	return ""
}

func sameDate(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
