package availability

import (
	"context"
	"sort"
	"sync"
	"time"

	"opatam/pkg/metrics"
	"opatam/pkg/model"
)

// AggregatedSlot is one start time together with every member able to serve it.
// A single member means the caller can auto-assign.
type AggregatedSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	MemberIDs []string  `json:"member_ids"`
}

// EligibleMembers filters members by service.MemberIDs. A nil list allows all.
func EligibleMembers(members []string, service *model.Service) []string {
	if service == nil || service.MemberIDs == nil {
		out := make([]string, len(members))
		copy(out, members)
		return out
	}
	allowed := make(map[string]struct{}, len(service.MemberIDs))
	for _, id := range service.MemberIDs {
		allowed[id] = struct{}{}
	}
	out := make([]string, 0, len(members))
	for _, id := range members {
		if _, ok := allowed[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

type memberSlots struct {
	memberID string
	slots    []Slot
	err      error
}

// Aggregate runs MemberSlots for every eligible member in parallel and unions the
// results by start time. A failing member is dropped from the union; an error is
// returned only when every eligible member failed.
func (e *Engine) Aggregate(ctx context.Context, providerID string, members []string, service *model.Service, date time.Time) ([]AggregatedSlot, error) {
	spec, err := SpecFor(service)
	if err != nil {
		return nil, err
	}

	eligible := EligibleMembers(members, service)
	if len(eligible) == 0 {
		return nil, nil
	}

	results := make([]memberSlots, len(eligible))
	var wg sync.WaitGroup
	for i, memberID := range eligible {
		wg.Add(1)
		go func(i int, memberID string) {
			defer wg.Done()
			slots, err := e.MemberSlots(ctx, providerID, memberID, spec, date)
			results[i] = memberSlots{memberID: memberID, slots: slots, err: err}
		}(i, memberID)
	}
	wg.Wait()

	byStart := make(map[int64]*AggregatedSlot)
	var firstErr error
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.err
			}
			metrics.MemberFailures.Inc()
			e.log.Warn("Member excluded from aggregation",
				"provider_id", providerID,
				"member_id", r.memberID,
				"date", date.Format(model.DateLayout),
				"error", r.err,
			)
			continue
		}
		for _, s := range r.slots {
			key := s.Start.UnixNano()
			agg, ok := byStart[key]
			if !ok {
				agg = &AggregatedSlot{Start: s.Start, End: s.End}
				byStart[key] = agg
			}
			agg.MemberIDs = append(agg.MemberIDs, r.memberID)
		}
	}

	if failed == len(eligible) {
		return nil, storeError("availability", firstErr)
	}

	out := make([]AggregatedSlot, 0, len(byStart))
	for _, agg := range byStart {
		sort.Strings(agg.MemberIDs)
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
