package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	scheduleerrors "opatam/internal/schedules/errors"
	"opatam/internal/schedules/repository"
	"opatam/internal/schedules/validator"
	"opatam/pkg/config"
	apperrors "opatam/pkg/errors"
	"opatam/pkg/model"
	"opatam/pkg/sanitizer"
)

// ProviderReader resolves the members a provider-wide closure fans out to.
type ProviderReader interface {
	GetByID(ctx context.Context, id string) (*model.Provider, error)
}

// CacheInvalidator drops the cached next-available answers of a provider.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, providerID string) error
}

type ScheduleService interface {
	// GetWeeklySchedule always returns seven entries, Sunday first. Days with
	// no stored record come back closed.
	GetWeeklySchedule(ctx context.Context, providerID, memberID string) ([]model.WeeklyDaySchedule, error)
	SetWeeklySchedule(ctx context.Context, providerID, memberID string, week *model.WeeklySchedule) ([]model.WeeklyDaySchedule, error)
	BlockPeriod(ctx context.Context, providerID string, req *model.BlockPeriodRequest) ([]*model.BlockedPeriod, error)
	UnblockPeriod(ctx context.Context, providerID, id string) error
	// GetBlockedPeriods returns the periods of memberID intersecting the calendar
	// dates of from and to, both inclusive.
	GetBlockedPeriods(ctx context.Context, providerID, memberID string, from, to time.Time) ([]model.BlockedPeriod, error)
}

type scheduleService struct {
	repo      repository.ScheduleRepository
	providers ProviderReader
	validator *validator.ScheduleValidator
	cache     CacheInvalidator
	cfg       *config.Config
}

// NewScheduleService wires the schedule service. cache may be nil for
// processes that only read schedules.
func NewScheduleService(
	repo repository.ScheduleRepository,
	providers ProviderReader,
	validator *validator.ScheduleValidator,
	cache CacheInvalidator,
	cfg *config.Config,
) ScheduleService {
	return &scheduleService{
		repo:      repo,
		providers: providers,
		validator: validator,
		cache:     cache,
		cfg:       cfg,
	}
}

func (s *scheduleService) GetWeeklySchedule(ctx context.Context, providerID, memberID string) ([]model.WeeklyDaySchedule, error) {
	if providerID == "" || memberID == "" {
		return nil, apperrors.InvalidInput("provider_id and member_id are required")
	}

	stored, err := s.repo.FindWeek(ctx, providerID, memberID)
	if err != nil {
		s.cfg.Log.Error("Failed to read weekly schedule",
			"provider_id", providerID,
			"member_id", memberID,
			"error", err,
		)
		return nil, apperrors.StoreUnavailable("schedule", err)
	}

	return fillWeek(providerID, memberID, stored), nil
}

func fillWeek(providerID, memberID string, stored []model.WeeklyDaySchedule) []model.WeeklyDaySchedule {
	week := make([]model.WeeklyDaySchedule, model.DaysPerWeek)
	for d := 0; d < model.DaysPerWeek; d++ {
		week[d] = model.ClosedDay(providerID, memberID, time.Weekday(d))
	}
	for _, day := range stored {
		if day.DayOfWeek >= 0 && day.DayOfWeek < model.DaysPerWeek {
			week[day.DayOfWeek] = day
		}
	}
	return week
}

func (s *scheduleService) SetWeeklySchedule(ctx context.Context, providerID, memberID string, week *model.WeeklySchedule) ([]model.WeeklyDaySchedule, error) {
	if providerID == "" || memberID == "" {
		return nil, apperrors.InvalidInput("provider_id and member_id are required")
	}
	if week == nil {
		return nil, apperrors.InvalidInput("weekly schedule is required")
	}

	if err := s.checkMember(ctx, providerID, memberID); err != nil {
		return nil, err
	}

	for i := range week.Days {
		week.Days[i].ProviderID = providerID
		week.Days[i].MemberID = memberID
		week.Days[i].LocationID = week.LocationID
		if !week.Days[i].IsOpen && week.Days[i].Ranges == nil {
			week.Days[i].Ranges = []model.TimeRange{}
		}
	}

	if err := s.validator.ValidateWeek(week); err != nil {
		s.cfg.Log.Warn("Weekly schedule validation failed",
			"provider_id", providerID,
			"member_id", memberID,
			"error", err,
		)
		return nil, apperrors.Validation("Weekly schedule validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.ReplaceWeek(sessCtx, providerID, memberID, week.Days); err != nil {
			return apperrors.Internal("Failed to save weekly schedule", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to set weekly schedule",
			"provider_id", providerID,
			"member_id", memberID,
			"error", err,
		)
		return nil, err
	}

	s.cfg.Log.Info("Weekly schedule saved",
		"provider_id", providerID,
		"member_id", memberID,
		"open_days", countOpen(week.Days),
	)
	s.invalidate(ctx, providerID)
	return s.GetWeeklySchedule(ctx, providerID, memberID)
}

// invalidate never fails a write: cached answers also expire on their own.
func (s *scheduleService) invalidate(ctx context.Context, providerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, providerID); err != nil {
		s.cfg.Log.Warn("Failed to invalidate next available cache", "provider_id", providerID, "error", err)
	}
}

func countOpen(days []model.WeeklyDaySchedule) int {
	n := 0
	for _, d := range days {
		if d.IsOpen {
			n++
		}
	}
	return n
}

// BlockPeriod stores one period, or one per active member when AllMembers is
// set. Periods without a member are never stored.
func (s *scheduleService) BlockPeriod(ctx context.Context, providerID string, req *model.BlockPeriodRequest) ([]*model.BlockedPeriod, error) {
	if providerID == "" {
		return nil, apperrors.InvalidInput("provider_id is required")
	}
	if req == nil {
		return nil, apperrors.InvalidInput("blocked period is required")
	}

	base := req.BlockedPeriod
	base.ID = ""
	base.ProviderID = providerID
	if base.Reason != nil {
		reason := sanitizer.TrimAndNormalize(*base.Reason)
		base.Reason = &reason
	}

	if err := s.validator.ValidateBlockedPeriod(&base); err != nil {
		s.cfg.Log.Warn("Blocked period validation failed",
			"provider_id", providerID,
			"member_id", base.MemberID,
			"error", err,
		)
		return nil, apperrors.Validation("Blocked period validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	var memberIDs []string
	switch {
	case req.AllMembers && base.MemberID != "":
		return nil, apperrors.InvalidInput("member_id and all_members are mutually exclusive")
	case req.AllMembers:
		memberIDs = provider.ActiveMemberIDs()
		if len(memberIDs) == 0 {
			return nil, apperrors.InvalidInput("provider has no active members to block")
		}
	case base.MemberID == "":
		return nil, apperrors.InvalidInput("member_id is required unless all_members is set")
	default:
		if _, ok := provider.Member(base.MemberID); !ok {
			return nil, apperrors.NotFoundWithID("Member", base.MemberID)
		}
		memberIDs = []string{base.MemberID}
	}

	periods := make([]*model.BlockedPeriod, 0, len(memberIDs))
	for _, memberID := range memberIDs {
		p := base
		p.MemberID = memberID
		if m, ok := provider.Member(memberID); ok && p.LocationID == "" {
			p.LocationID = m.LocationID
		}
		periods = append(periods, &p)
	}

	if err := s.repo.CreateBlockedPeriods(ctx, periods); err != nil {
		s.cfg.Log.Error("Failed to create blocked periods",
			"provider_id", providerID,
			"members", len(periods),
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create blocked period", err)
	}

	s.cfg.Log.Info("Blocked periods created",
		"provider_id", providerID,
		"members", len(periods),
		"start_date", base.StartDate,
		"end_date", base.EndDate,
		"all_day", base.AllDay,
	)
	s.invalidate(ctx, providerID)
	return periods, nil
}

func (s *scheduleService) UnblockPeriod(ctx context.Context, providerID, id string) error {
	if providerID == "" || id == "" {
		return apperrors.InvalidInput("provider_id and blocked period id are required")
	}

	if err := s.repo.DeleteBlockedPeriod(ctx, providerID, id); err != nil {
		if errors.Is(err, scheduleerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Blocked period", id)
		}
		if errors.Is(err, scheduleerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid blocked period ID format")
		}
		s.cfg.Log.Error("Failed to delete blocked period",
			"provider_id", providerID,
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to delete blocked period", err)
	}

	s.cfg.Log.Info("Blocked period deleted", "provider_id", providerID, "id", id)
	s.invalidate(ctx, providerID)
	return nil
}

func (s *scheduleService) GetBlockedPeriods(ctx context.Context, providerID, memberID string, from, to time.Time) ([]model.BlockedPeriod, error) {
	if providerID == "" {
		return nil, apperrors.InvalidInput("provider_id is required")
	}
	if to.Before(from) {
		return nil, apperrors.InvalidInput("'to' cannot be before 'from'")
	}

	periods, err := s.repo.FindBlockedPeriods(ctx, providerID, memberID,
		from.Format(model.DateLayout), to.Format(model.DateLayout))
	if err != nil {
		s.cfg.Log.Error("Failed to read blocked periods",
			"provider_id", providerID,
			"member_id", memberID,
			"error", err,
		)
		return nil, apperrors.StoreUnavailable("schedule", err)
	}
	return periods, nil
}

func (s *scheduleService) checkMember(ctx context.Context, providerID, memberID string) error {
	provider, err := s.loadProvider(ctx, providerID)
	if err != nil {
		return err
	}
	if _, ok := provider.Member(memberID); !ok {
		return apperrors.NotFoundWithID("Member", memberID)
	}
	return nil
}

func (s *scheduleService) loadProvider(ctx context.Context, providerID string) (*model.Provider, error) {
	provider, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to load provider", err)
	}
	if provider == nil {
		return nil, apperrors.NotFoundWithID("Provider", providerID)
	}
	return provider, nil
}
