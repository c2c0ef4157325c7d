package availability

import (
	"context"
	"errors"
	"time"

	apperrors "opatam/pkg/errors"
	"opatam/pkg/metrics"
	"opatam/pkg/model"
)

const DefaultHorizonDays = 60

// SearchRequest pins a member with MemberID or, when empty, searches across
// Members filtered by the service's eligibility list.
type SearchRequest struct {
	ProviderID  string
	MemberID    string
	Members     []string
	Service     *model.Service
	From        time.Time
	HorizonDays int
}

type SearchResult struct {
	Date        *time.Time `json:"date"`
	DaysChecked int        `json:"days_checked"`
	FailedDays  int        `json:"failed_days"`
	Truncated   bool       `json:"truncated"`
}

// DateString formats Date with model.DateLayout, nil when nothing was found.
func (r *SearchResult) DateString() *string {
	if r == nil || r.Date == nil {
		return nil
	}
	s := r.Date.Format(model.DateLayout)
	return &s
}

// FindNextAvailable checks every day in [From, From+HorizonDays) in order and
// stops at the first one with a slot. A failing day counts as empty, unless
// every checked day failed: that is reported as StoreUnavailable. When ctx is
// cancelled the partial result comes back with Truncated set.
func (e *Engine) FindNextAvailable(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	spec, err := SpecFor(req.Service)
	if err != nil {
		return nil, err
	}

	horizon := req.HorizonDays
	if horizon <= 0 {
		horizon = DefaultHorizonDays
	}

	result := &SearchResult{}
	if req.MemberID == "" && len(EligibleMembers(req.Members, req.Service)) == 0 {
		return result, nil
	}

	from := DayStart(req.From)
	for i := 0; i < horizon; i++ {
		if ctx.Err() != nil {
			result.Truncated = true
			break
		}

		day := from.AddDate(0, 0, i)
		found, err := e.hasSlots(ctx, req, spec, day)
		if err != nil && ctx.Err() != nil {
			result.Truncated = true
			break
		}
		result.DaysChecked++
		if err != nil {
			result.FailedDays++
			metrics.SearchFailedDays.Inc()
			e.log.Warn("Day skipped during next-available search",
				"provider_id", req.ProviderID,
				"member_id", req.MemberID,
				"date", day.Format(model.DateLayout),
				"error", err,
			)
			continue
		}
		if found {
			result.Date = &day
			break
		}
	}

	metrics.SearchDaysChecked.Observe(float64(result.DaysChecked))
	e.log.Debug("Next-available search finished",
		"provider_id", req.ProviderID,
		"member_id", req.MemberID,
		"from", from.Format(model.DateLayout),
		"horizon_days", horizon,
		"days_checked", result.DaysChecked,
		"failed_days", result.FailedDays,
		"found", result.Date != nil,
		"truncated", result.Truncated,
	)
	if !result.Truncated && result.DaysChecked > 0 && result.FailedDays == result.DaysChecked {
		return nil, apperrors.StoreUnavailable("schedule", errors.New("every day in the search horizon failed to load"))
	}
	return result, nil
}

func (e *Engine) hasSlots(ctx context.Context, req SearchRequest, spec ServiceSpec, day time.Time) (bool, error) {
	if req.MemberID != "" {
		slots, err := e.MemberSlots(ctx, req.ProviderID, req.MemberID, spec, day)
		return len(slots) > 0, err
	}
	slots, err := e.Aggregate(ctx, req.ProviderID, req.Members, req.Service, day)
	return len(slots) > 0, err
}
