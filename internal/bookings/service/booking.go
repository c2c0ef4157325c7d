package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"opatam/internal/availability"
	bookingserrors "opatam/internal/bookings/errors"
	"opatam/internal/bookings/repository"
	"opatam/internal/bookings/validator"
	"opatam/internal/events"
	"opatam/pkg/config"
	apperrors "opatam/pkg/errors"
	"opatam/pkg/locale"
	"opatam/pkg/metrics"
	"opatam/pkg/model"
	"opatam/pkg/sanitizer"
	"opatam/pkg/sealer"
)

const (
	lockTTL = 10 * time.Second

	// maxListRange caps the datetime window of one listing.
	maxListRange = 366 * 24 * time.Hour

	originSlotToken = "slot_token"
	originManual    = "manual"
)

// transitions lists the statuses each status may move to. Cancelled, completed
// and no-show are final.
var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingPending:   {model.BookingConfirmed, model.BookingCancelled},
	model.BookingConfirmed: {model.BookingCancelled, model.BookingCompleted, model.BookingNoShow},
}

func CanTransition(from, to model.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type ProviderReader interface {
	GetByID(ctx context.Context, id string) (*model.Provider, error)
}

// SlotChecker recomputes a member's slots so a slot token is only honored
// while its slot is still offered.
type SlotChecker interface {
	MemberSlots(ctx context.Context, providerID, memberID string, spec availability.ServiceSpec, date time.Time) ([]availability.Slot, error)
}

// CacheInvalidator drops the cached next-available answers of a provider.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, providerID string) error
}

type BookingService interface {
	Create(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	List(ctx context.Context, q model.BookingQuery, limit int, offset int64) ([]model.Booking, int64, error)
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error)
	// GetBookingsInRange serves the availability engine. Read failures come
	// back as StoreUnavailable.
	GetBookingsInRange(ctx context.Context, q model.BookingQuery) ([]model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	providers ProviderReader
	slots     SlotChecker
	tokens    *sealer.Sealer
	publisher events.Publisher
	cache     CacheInvalidator
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
}

// NewBookingService wires the booking service. slots, tokens and cache may be
// nil: without tokens slot-token bookings are rejected, without slots a token's
// slot is not re-checked against the live schedule.
func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	providers ProviderReader,
	slots SlotChecker,
	tokens *sealer.Sealer,
	publisher events.Publisher,
	cache CacheInvalidator,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		providers: providers,
		slots:     slots,
		tokens:    tokens,
		publisher: publisher,
		cache:     cache,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Booking request is required")
	}

	origin := originManual
	if req.SlotToken != "" {
		if err := s.applySlotToken(req); err != nil {
			return nil, err
		}
		origin = originSlotToken
	}

	if req.ProviderID == "" || req.MemberID == "" || req.ServiceID == "" || req.Datetime == nil {
		return nil, apperrors.InvalidInput("provider_id, member_id, service_id and datetime are required unless a slot_token is given")
	}

	provider, err := s.providers.GetByID(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	member, svc, err := s.resolveMemberService(provider, req.MemberID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.BookingPending
	}
	if status != model.BookingPending && status != model.BookingConfirmed {
		return nil, apperrors.InvalidInput("a new booking must be pending or confirmed")
	}

	start := req.Datetime.UTC()
	if !start.After(s.now()) {
		return nil, apperrors.InvalidInput("datetime must be in the future")
	}

	booking := &model.Booking{
		ProviderID:  provider.ID,
		MemberID:    member.ID,
		LocationID:  member.LocationID,
		ServiceID:   svc.ID,
		Datetime:    start,
		EndDatetime: start.Add(time.Duration(svc.Duration) * time.Minute),
		BufferTime:  svc.BufferTime,
		Status:      status,
		ClientName:  sanitizer.NormalizeName(req.ClientName),
	}
	if req.ClientPhone != "" {
		booking.ClientPhone = sanitizer.NormalizePhone(req.ClientPhone, locale.PhoneRegions(provider.TimeZone, s.cfg.PhoneRegions)...)
		if booking.ClientPhone == "" {
			return nil, apperrors.Validation("Booking validation failed", map[string]any{
				"error": "client_phone is not a valid phone number",
			})
		}
	}

	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed",
			"provider_id", booking.ProviderID,
			"member_id", booking.MemberID,
			"error", err,
		)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	if origin == originSlotToken && s.slots != nil {
		if err := s.ensureSlotOffered(ctx, provider, svc, booking); err != nil {
			return nil, err
		}
	}

	lockID, err := s.acquireSlotLock(ctx, booking)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.lockRepo.Delete(context.WithoutCancel(ctx), lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		existing, err := s.repo.FindInRange(sessCtx, availability.ConflictQuery(booking), 0, 0)
		if err != nil {
			return apperrors.StoreUnavailable("booking", err)
		}
		if hit, conflict := availability.FindConflict(booking, existing); conflict {
			metrics.BookingConflicts.WithLabelValues("overlap").Inc()
			return apperrors.Conflict(fmt.Sprintf(
				"Booking time overlaps with existing booking (%s - %s)",
				hit.Datetime.Format(time.RFC3339),
				hit.EndDatetime.Format(time.RFC3339),
			))
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking",
			"provider_id", booking.ProviderID,
			"member_id", booking.MemberID,
			"datetime", booking.Datetime,
			"error", err,
		)
		return nil, err
	}

	metrics.BookingsCreated.WithLabelValues(origin).Inc()
	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"provider_id", booking.ProviderID,
		"member_id", booking.MemberID,
		"datetime", booking.Datetime,
		"origin", origin,
	)
	s.invalidate(ctx, booking.ProviderID)
	s.publish(ctx, events.TypeBookingCreated, booking, "")
	return booking, nil
}

func (s *bookingService) applySlotToken(req *model.CreateBookingRequest) error {
	if s.tokens == nil {
		return apperrors.InvalidInput("slot tokens are not accepted by this service")
	}

	claim, err := s.tokens.Open(req.SlotToken)
	if err != nil {
		if errors.Is(err, sealer.ErrExpiredToken) {
			return apperrors.InvalidInput("slot token has expired, fetch the slots again")
		}
		return apperrors.InvalidInput("invalid slot token")
	}

	if req.ServiceID != "" && claim.ServiceID != "" && req.ServiceID != claim.ServiceID {
		return apperrors.InvalidInput("service_id does not match the slot token")
	}
	if claim.ServiceID != "" {
		req.ServiceID = claim.ServiceID
	}
	req.ProviderID = claim.ProviderID
	req.MemberID = claim.MemberID
	start := claim.Start
	req.Datetime = &start
	return nil
}

func (s *bookingService) resolveMemberService(p *model.Provider, memberID, serviceID string) (*model.Member, *model.Service, error) {
	member, ok := p.Member(memberID)
	if !ok {
		return nil, nil, apperrors.NotFoundWithID("Member", memberID)
	}
	if !member.Active {
		return nil, nil, apperrors.InvalidInput("member is not active")
	}

	svc, ok := p.Service(serviceID)
	if !ok {
		return nil, nil, apperrors.NotFoundWithID("Service", serviceID)
	}
	if !svc.Active {
		return nil, nil, apperrors.InvalidInput("service is not active")
	}
	if len(availability.EligibleMembers([]string{member.ID}, svc)) == 0 {
		return nil, nil, apperrors.InvalidInput("member does not perform this service")
	}
	return member, svc, nil
}

func (s *bookingService) ensureSlotOffered(ctx context.Context, p *model.Provider, svc *model.Service, b *model.Booking) error {
	spec, err := availability.SpecFor(svc)
	if err != nil {
		return err
	}

	local := b.Datetime.In(p.Location())
	slots, err := s.slots.MemberSlots(ctx, p.ID, b.MemberID, spec, availability.DayStart(local))
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if slot.Start.Equal(b.Datetime) {
			return nil
		}
	}

	metrics.BookingConflicts.WithLabelValues("slot_gone").Inc()
	return apperrors.Conflict("The selected slot is no longer available")
}

// acquireSlotLock serializes booking creation per member and calendar day, so
// two overlapping requests with different start times cannot both pass the
// conflict check.
func (s *bookingService) acquireSlotLock(ctx context.Context, b *model.Booking) (string, error) {
	lockID := fmt.Sprintf("booking_lock_%s_%s_%s", b.ProviderID, b.MemberID, b.Datetime.Format(model.DateLayout))

	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: s.now().Add(lockTTL),
	}

	if err := s.lockRepo.Create(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			metrics.BookingConflicts.WithLabelValues("locked").Inc()
			return "", apperrors.Conflict("This member is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire booking lock", err)
	}

	return lockID, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		s.cfg.Log.Error("Failed to get booking by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) List(ctx context.Context, q model.BookingQuery, limit int, offset int64) ([]model.Booking, int64, error) {
	if q.ProviderID == "" {
		return nil, 0, apperrors.InvalidInput("provider_id is required")
	}
	if !q.End.After(q.Start) {
		return nil, 0, apperrors.InvalidInput("to must be after from")
	}
	if q.End.Sub(q.Start) > maxListRange {
		return nil, 0, apperrors.InvalidInput("from/to range cannot exceed one year")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountInRange(ctx, q)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings",
				"provider_id", q.ProviderID,
				"error", err,
			)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindInRange(ctx, q, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings",
				"provider_id", q.ProviderID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*model.Booking, error) {
	if err := s.validator.ValidateStatusUpdate(&model.BookingStatusUpdate{Status: status}); err != nil {
		return nil, apperrors.Validation("Invalid status", map[string]any{"error": err.Error()})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := existing.Status
	if previous == status {
		return existing, nil
	}
	if !CanTransition(previous, status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot move a %s booking to %s", previous, status))
	}

	if err := s.repo.UpdateStatus(ctx, id, previous, status); err != nil {
		if errors.Is(err, bookingserrors.ErrStaleStatus) {
			return nil, apperrors.Conflict("booking status changed concurrently, reload and retry")
		}
		s.cfg.Log.Error("Failed to update booking status",
			"id", id,
			"from", previous,
			"to", status,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update booking status", err)
	}

	existing.Status = status
	metrics.BookingStatusChanges.WithLabelValues(string(previous), string(status)).Inc()
	s.cfg.Log.Info("Booking status updated",
		"id", id,
		"from", previous,
		"to", status,
	)
	s.invalidate(ctx, existing.ProviderID)
	s.publish(ctx, events.TypeBookingStatusChanged, existing, previous)
	return existing, nil
}

// NewRangeReader serves booking reads to an availability engine without the
// write path, for services that only compute slots.
func NewRangeReader(repo repository.BookingRepository, cfg *config.Config) availability.BookingStore {
	return &bookingService{repo: repo, cfg: cfg}
}

func (s *bookingService) GetBookingsInRange(ctx context.Context, q model.BookingQuery) ([]model.Booking, error) {
	bookings, err := s.repo.FindInRange(ctx, q, 0, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to read bookings",
			"provider_id", q.ProviderID,
			"member_id", q.MemberID,
			"error", err,
		)
		return nil, apperrors.StoreUnavailable("booking", err)
	}
	return bookings, nil
}

func (s *bookingService) invalidate(ctx context.Context, providerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, providerID); err != nil {
		s.cfg.Log.Warn("Failed to invalidate next available cache", "provider_id", providerID, "error", err)
	}
}

// publish never fails the request: the booking is already committed and the
// nightly recalculation catches up with missed events.
func (s *bookingService) publish(ctx context.Context, eventType string, b *model.Booking, previous model.BookingStatus) {
	if err := s.publisher.Publish(ctx, eventType, b.ProviderID, events.NewBookingEvent(b, previous)); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", b.ID,
			"error", err,
		)
	}
}
