package service

import (
	"context"
	"time"

	"opatam/internal/availability"
	"opatam/pkg/config"
	apperrors "opatam/pkg/errors"
	"opatam/pkg/metrics"
	"opatam/pkg/model"
	"opatam/pkg/sealer"
)

type ProviderReader interface {
	GetByID(ctx context.Context, id string) (*model.Provider, error)
}

// SlotEngine is the part of *availability.Engine the API needs.
type SlotEngine interface {
	MemberSlots(ctx context.Context, providerID, memberID string, spec availability.ServiceSpec, date time.Time) ([]availability.Slot, error)
	Aggregate(ctx context.Context, providerID string, members []string, service *model.Service, date time.Time) ([]availability.AggregatedSlot, error)
	FindNextAvailable(ctx context.Context, req availability.SearchRequest) (*availability.SearchResult, error)
}

type SlotsQuery struct {
	ProviderID string
	ServiceID  string
	MemberID   string
	Date       string
}

type NextAvailableQuery struct {
	ProviderID  string
	ServiceID   string
	MemberID    string
	From        string
	HorizonDays int
}

// SlotView is one offered slot. Token books it for MemberIDs[0].
type SlotView struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	MemberIDs []string  `json:"member_ids"`
	Token     string    `json:"token,omitempty"`
}

type DaySlots struct {
	ProviderID string     `json:"provider_id"`
	ServiceID  string     `json:"service_id"`
	MemberID   string     `json:"member_id,omitempty"`
	Date       string     `json:"date"`
	TimeZone   string     `json:"time_zone"`
	Slots      []SlotView `json:"slots"`
}

type NextAvailable struct {
	ProviderID  string  `json:"provider_id"`
	ServiceID   string  `json:"service_id"`
	MemberID    string  `json:"member_id,omitempty"`
	Date        *string `json:"date"`
	DaysChecked int     `json:"days_checked"`
	FailedDays  int     `json:"failed_days"`
	Truncated   bool    `json:"truncated"`
	Cached      bool    `json:"cached"`
}

type AvailabilityService interface {
	Slots(ctx context.Context, q SlotsQuery) (*DaySlots, error)
	NextAvailable(ctx context.Context, q NextAvailableQuery) (*NextAvailable, error)
}

type availabilityService struct {
	providers ProviderReader
	engine    SlotEngine
	tokens    *sealer.Sealer
	cache     NextAvailableCache
	cfg       *config.Config
	now       func() time.Time
}

// NewAvailabilityService builds the read API over the engine. tokens and cache
// are optional.
func NewAvailabilityService(
	providers ProviderReader,
	engine SlotEngine,
	tokens *sealer.Sealer,
	cache NextAvailableCache,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		providers: providers,
		engine:    engine,
		tokens:    tokens,
		cache:     cache,
		cfg:       cfg,
		now:       time.Now,
	}
}

type target struct {
	provider *model.Provider
	service  *model.Service
	member   *model.Member
}

// resolve picks the service (first active one when serviceID is empty) and,
// when memberID is set, the pinned member.
func (s *availabilityService) resolve(ctx context.Context, providerID, serviceID, memberID string) (*target, error) {
	if providerID == "" {
		return nil, apperrors.InvalidInput("provider_id is required")
	}

	provider, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	t := &target{provider: provider}
	if serviceID == "" {
		svc, ok := provider.FirstActiveService()
		if !ok {
			return nil, apperrors.InvalidInput("provider has no active service")
		}
		t.service = svc
	} else {
		svc, ok := provider.Service(serviceID)
		if !ok {
			return nil, apperrors.NotFoundWithID("service", serviceID)
		}
		if !svc.Active {
			return nil, apperrors.InvalidInput("service is not active: " + serviceID)
		}
		t.service = svc
	}

	if memberID != "" {
		m, ok := provider.Member(memberID)
		if !ok {
			return nil, apperrors.NotFoundWithID("member", memberID)
		}
		if !m.Active {
			return nil, apperrors.InvalidInput("member is not active: " + memberID)
		}
		if len(availability.EligibleMembers([]string{memberID}, t.service)) == 0 {
			return nil, apperrors.InvalidInput("member " + memberID + " does not offer service " + t.service.ID)
		}
		t.member = m
	}
	return t, nil
}

func (s *availabilityService) parseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return availability.DayStart(s.now().In(loc)), nil
	}
	d, err := time.ParseInLocation(model.DateLayout, value, loc)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid date, expected YYYY-MM-DD: " + value)
	}
	return d, nil
}

func (s *availabilityService) Slots(ctx context.Context, q SlotsQuery) (*DaySlots, error) {
	t, err := s.resolve(ctx, q.ProviderID, q.ServiceID, q.MemberID)
	if err != nil {
		return nil, err
	}

	loc := t.provider.Location()
	date, err := s.parseDate(q.Date, loc)
	if err != nil {
		return nil, err
	}

	resp := &DaySlots{
		ProviderID: t.provider.ID,
		ServiceID:  t.service.ID,
		MemberID:   q.MemberID,
		Date:       date.Format(model.DateLayout),
		TimeZone:   loc.String(),
		Slots:      []SlotView{},
	}

	if t.member != nil {
		spec, err := availability.SpecFor(t.service)
		if err != nil {
			return nil, err
		}
		slots, err := s.engine.MemberSlots(ctx, t.provider.ID, t.member.ID, spec, date)
		if err != nil {
			return nil, err
		}
		for _, slot := range slots {
			resp.Slots = append(resp.Slots, s.view(t, slot.Start, slot.End, []string{t.member.ID}))
		}
		return resp, nil
	}

	slots, err := s.engine.Aggregate(ctx, t.provider.ID, t.provider.ActiveMemberIDs(), t.service, date)
	if err != nil {
		return nil, err
	}
	for _, slot := range slots {
		resp.Slots = append(resp.Slots, s.view(t, slot.Start, slot.End, slot.MemberIDs))
	}
	return resp, nil
}

func (s *availabilityService) view(t *target, start, end time.Time, members []string) SlotView {
	v := SlotView{Start: start, End: end, MemberIDs: members}
	if s.tokens == nil || len(members) == 0 {
		return v
	}

	token, err := s.tokens.Seal(sealer.SlotClaim{
		ProviderID: t.provider.ID,
		MemberID:   members[0],
		ServiceID:  t.service.ID,
		Start:      start,
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to seal slot token",
			"provider_id", t.provider.ID,
			"member_id", members[0],
			"error", err,
		)
		return v
	}
	v.Token = token
	return v
}

func (s *availabilityService) NextAvailable(ctx context.Context, q NextAvailableQuery) (*NextAvailable, error) {
	t, err := s.resolve(ctx, q.ProviderID, q.ServiceID, q.MemberID)
	if err != nil {
		return nil, err
	}

	horizon := q.HorizonDays
	if horizon == 0 {
		horizon = s.cfg.SearchHorizonDays
	}
	if horizon < 1 || horizon > 366 {
		return nil, apperrors.InvalidInput("horizon must be between 1 and 366 days")
	}

	from, err := s.parseDate(q.From, t.provider.Location())
	if err != nil {
		return nil, err
	}

	q.ServiceID = t.service.ID
	key := cacheKey(q, from.Format(model.DateLayout), horizon)
	if cached := s.cached(ctx, key); cached != nil {
		return cached, nil
	}

	req := availability.SearchRequest{
		ProviderID:  t.provider.ID,
		Service:     t.service,
		From:        from,
		HorizonDays: horizon,
	}
	if t.member != nil {
		req.MemberID = t.member.ID
	} else {
		req.Members = t.provider.ActiveMemberIDs()
	}

	res, err := s.engine.FindNextAvailable(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &NextAvailable{
		ProviderID:  t.provider.ID,
		ServiceID:   t.service.ID,
		MemberID:    q.MemberID,
		Date:        res.DateString(),
		DaysChecked: res.DaysChecked,
		FailedDays:  res.FailedDays,
		Truncated:   res.Truncated,
	}

	// partial answers are never cached
	if !res.Truncated && res.FailedDays == 0 && s.cache != nil {
		if err := s.cache.Set(ctx, key, out); err != nil {
			s.cfg.Log.Warn("Failed to cache next available date", "key", key, "error", err)
		}
	}
	return out, nil
}

func (s *availabilityService) cached(ctx context.Context, key string) *NextAvailable {
	if s.cache == nil {
		return nil
	}

	v, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.NextAvailableCache.WithLabelValues("error").Inc()
		s.cfg.Log.Warn("Next available cache read failed", "key", key, "error", err)
		return nil
	case !ok:
		metrics.NextAvailableCache.WithLabelValues("miss").Inc()
		return nil
	}

	metrics.NextAvailableCache.WithLabelValues("hit").Inc()
	v.Cached = true
	return v
}
