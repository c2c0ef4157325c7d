package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"opatam/internal/availability"
	bookingserrors "opatam/internal/bookings/errors"
	"opatam/internal/bookings/validator"
	"opatam/pkg/config"
	mongotx "opatam/pkg/db/mongo"
	apperrors "opatam/pkg/errors"
	"opatam/pkg/logger"
	"opatam/pkg/model"
	"opatam/pkg/sealer"
)

var testNow = time.Date(2030, time.March, 4, 8, 0, 0, 0, time.UTC)

type mockBookingRepository struct {
	createFunc       func(ctx context.Context, b *model.Booking) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Booking, error)
	findInRangeFunc  func(ctx context.Context, q model.BookingQuery, limit int, offset int64) ([]model.Booking, error)
	countInRangeFunc func(ctx context.Context, q model.BookingQuery) (int64, error)
	updateStatusFunc func(ctx context.Context, id string, from, to model.BookingStatus) error
}

func (m *mockBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, b)
	}
	b.ID = "65b000000000000000000001"
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
}

func (m *mockBookingRepository) FindInRange(ctx context.Context, q model.BookingQuery, limit int, offset int64) ([]model.Booking, error) {
	if m.findInRangeFunc != nil {
		return m.findInRangeFunc(ctx, q, limit, offset)
	}
	return nil, nil
}

func (m *mockBookingRepository) CountInRange(ctx context.Context, q model.BookingQuery) (int64, error) {
	if m.countInRangeFunc != nil {
		return m.countInRangeFunc(ctx, q)
	}
	return 0, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, from, to)
	}
	return nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLockRepository struct {
	createErr error
	created   []string
	deleted   []string
}

func (m *mockLockRepository) Create(_ context.Context, lock *model.BookingLock) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, lock.ID)
	return nil
}

func (m *mockLockRepository) Delete(_ context.Context, lockID string) error {
	m.deleted = append(m.deleted, lockID)
	return nil
}

type mockProviderReader struct {
	provider *model.Provider
}

func (m *mockProviderReader) GetByID(_ context.Context, id string) (*model.Provider, error) {
	if m.provider == nil || m.provider.ID != id {
		return nil, apperrors.NotFoundWithID("Provider", id)
	}
	return m.provider, nil
}

type mockSlotChecker struct {
	slots []availability.Slot
	err   error
}

func (m *mockSlotChecker) MemberSlots(context.Context, string, string, availability.ServiceSpec, time.Time) ([]availability.Slot, error) {
	return m.slots, m.err
}

type publishedEvent struct {
	eventType string
	key       string
}

type recordingPublisher struct {
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, key string, _ any) error {
	p.events = append(p.events, publishedEvent{eventType: eventType, key: key})
	return p.err
}

type fixture struct {
	repo      *mockBookingRepository
	locks     *mockLockRepository
	slots     *mockSlotChecker
	tokens    *sealer.Sealer
	publisher *recordingPublisher
	cache     *recordingCache
	provider  *model.Provider
}

type recordingCache struct {
	invalidated []string
	err         error
}

func (c *recordingCache) Invalidate(_ context.Context, providerID string) error {
	c.invalidated = append(c.invalidated, providerID)
	return c.err
}

func barbershop() *model.Provider {
	return &model.Provider{
		ID:       "p1",
		Name:     "Barbershop",
		TimeZone: "UTC",
		Members: []model.Member{
			{ID: "m1", Name: "Dana", Active: true, LocationID: "loc1"},
			{ID: "m2", Name: "Eli", Active: false},
			{ID: "m3", Name: "Noa", Active: true},
		},
		Services: []model.Service{
			{ID: "cut", Name: "Haircut", Duration: 30, BufferTime: 5, Active: true, MemberIDs: []string{"m1", "m2"}},
			{ID: "old", Name: "Shave", Duration: 15, Active: false},
		},
	}
}

func newFixture() *fixture {
	return &fixture{
		repo:      &mockBookingRepository{},
		locks:     &mockLockRepository{},
		publisher: &recordingPublisher{},
		cache:     &recordingCache{},
	}
}

func (f *fixture) service() BookingService {
	log := logger.NewNop()
	cfg := &config.Config{
		Log:          log,
		ReadTimeout:  5 * time.Second,
		PhoneRegions: []string{"IL"},
	}
	var slots SlotChecker
	if f.slots != nil {
		slots = f.slots
	}
	provider := f.provider
	if provider == nil {
		provider = barbershop()
	}
	svc := NewBookingService(f.repo, f.locks, &mockProviderReader{provider: provider}, slots, f.tokens, f.publisher, f.cache, validator.NewBookingValidator(log), cfg)
	svc.(*bookingService).now = func() time.Time { return testNow }
	return svc
}

func tenAM() *time.Time {
	t := time.Date(2030, time.March, 4, 10, 0, 0, 0, time.UTC)
	return &t
}

func explicitRequest() *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		ProviderID:  "p1",
		MemberID:    "m1",
		ServiceID:   "cut",
		Datetime:    tenAM(),
		ClientName:  "  Yael   Cohen ",
		ClientPhone: "054-123-4567",
	}
}

func TestCreate_Explicit(t *testing.T) {
	f := newFixture()

	booking, err := f.service().Create(context.Background(), explicitRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.ID == "" {
		t.Error("expected an ID to be assigned")
	}
	if want := tenAM().Add(30 * time.Minute); !booking.EndDatetime.Equal(want) {
		t.Errorf("EndDatetime = %v, want %v", booking.EndDatetime, want)
	}
	if booking.BufferTime != 5 {
		t.Errorf("BufferTime = %d, want 5", booking.BufferTime)
	}
	if booking.LocationID != "loc1" {
		t.Errorf("LocationID = %q, want loc1", booking.LocationID)
	}
	if booking.Status != model.BookingPending {
		t.Errorf("Status = %q, want pending", booking.Status)
	}
	if booking.ClientName != "Yael Cohen" {
		t.Errorf("ClientName = %q", booking.ClientName)
	}
	if booking.ClientPhone != "+972541234567" {
		t.Errorf("ClientPhone = %q", booking.ClientPhone)
	}

	if len(f.locks.created) != 1 || len(f.locks.deleted) != 1 || f.locks.created[0] != f.locks.deleted[0] {
		t.Errorf("lock not acquired and released once: created=%v deleted=%v", f.locks.created, f.locks.deleted)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].eventType != "booking.created" || f.publisher.events[0].key != "p1" {
		t.Errorf("unexpected events: %+v", f.publisher.events)
	}
}

func TestCreate_PhoneReadInProviderCountry(t *testing.T) {
	f := newFixture()
	f.provider = barbershop()
	f.provider.TimeZone = "Europe/Paris"

	req := explicitRequest()
	req.ClientPhone = "06 12 34 56 78"
	booking, err := f.service().Create(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.ClientPhone != "+33612345678" {
		t.Errorf("ClientPhone = %q, want +33612345678", booking.ClientPhone)
	}
}

func TestCreate_RejectsOverlap(t *testing.T) {
	tests := []struct {
		name     string
		existing model.Booking
		wantErr  bool
	}{
		{
			name:     "same start",
			existing: model.Booking{ID: "b1", MemberID: "m1", Datetime: *tenAM(), EndDatetime: tenAM().Add(30 * time.Minute), Status: model.BookingConfirmed},
			wantErr:  true,
		},
		{
			name:     "earlier booking buffer reaches into the slot",
			existing: model.Booking{ID: "b1", MemberID: "m1", Datetime: tenAM().Add(-35 * time.Minute), EndDatetime: tenAM().Add(-5 * time.Minute), BufferTime: 10, Status: model.BookingPending},
			wantErr:  true,
		},
		{
			name:     "cancelled booking does not block",
			existing: model.Booking{ID: "b1", MemberID: "m1", Datetime: *tenAM(), EndDatetime: tenAM().Add(30 * time.Minute), Status: model.BookingCancelled},
		},
		{
			name:     "another member",
			existing: model.Booking{ID: "b1", MemberID: "m3", Datetime: *tenAM(), EndDatetime: tenAM().Add(30 * time.Minute), Status: model.BookingConfirmed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			created := false
			f.repo.findInRangeFunc = func(ctx context.Context, q model.BookingQuery, limit int, offset int64) ([]model.Booking, error) {
				if q.MemberID != "m1" || q.ProviderID != "p1" {
					t.Errorf("unexpected conflict query %+v", q)
				}
				return []model.Booking{tt.existing}, nil
			}
			f.repo.createFunc = func(ctx context.Context, b *model.Booking) error {
				created = true
				return nil
			}

			_, err := f.service().Create(context.Background(), explicitRequest())
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeConflict) {
					t.Fatalf("expected conflict, got %v", err)
				}
				if created {
					t.Error("booking must not be stored on conflict")
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(f.locks.deleted) != 1 {
				t.Errorf("lock released %d times, want 1", len(f.locks.deleted))
			}
		})
	}
}

func TestCreate_LockHeld(t *testing.T) {
	f := newFixture()
	f.locks.createErr = mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "duplicate key"}}}

	_, err := f.service().Create(context.Background(), explicitRequest())
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(f.locks.deleted) != 0 {
		t.Error("a lock that was never acquired must not be released")
	}
}

func TestCreate_RequestErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *model.CreateBookingRequest)
		wantCode string
	}{
		{"missing datetime", func(r *model.CreateBookingRequest) { r.Datetime = nil }, apperrors.CodeInvalidInput},
		{"unknown provider", func(r *model.CreateBookingRequest) { r.ProviderID = "p9" }, apperrors.CodeNotFound},
		{"unknown member", func(r *model.CreateBookingRequest) { r.MemberID = "m9" }, apperrors.CodeNotFound},
		{"inactive member", func(r *model.CreateBookingRequest) { r.MemberID = "m2" }, apperrors.CodeInvalidInput},
		{"member not offering the service", func(r *model.CreateBookingRequest) { r.MemberID = "m3" }, apperrors.CodeInvalidInput},
		{"unknown service", func(r *model.CreateBookingRequest) { r.ServiceID = "color" }, apperrors.CodeNotFound},
		{"inactive service", func(r *model.CreateBookingRequest) { r.ServiceID = "old" }, apperrors.CodeInvalidInput},
		{"past datetime", func(r *model.CreateBookingRequest) {
			past := testNow.Add(-time.Hour)
			r.Datetime = &past
		}, apperrors.CodeInvalidInput},
		{"completed status", func(r *model.CreateBookingRequest) { r.Status = model.BookingCompleted }, apperrors.CodeInvalidInput},
		{"bad phone", func(r *model.CreateBookingRequest) { r.ClientPhone = "call me" }, apperrors.CodeValidation},
		{"seconds in datetime", func(r *model.CreateBookingRequest) {
			odd := tenAM().Add(30 * time.Second)
			r.Datetime = &odd
		}, apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			req := explicitRequest()
			tt.mutate(req)

			_, err := f.service().Create(context.Background(), req)
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
			if len(f.locks.created) != 0 {
				t.Error("invalid requests must not take a lock")
			}
		})
	}
}

func TestCreate_SlotToken(t *testing.T) {
	tokens, err := sealer.NewRandom(time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	token, err := tokens.Seal(sealer.SlotClaim{ProviderID: "p1", MemberID: "m1", ServiceID: "cut", Start: *tenAM()})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("slot still offered", func(t *testing.T) {
		f := newFixture()
		f.tokens = tokens
		f.slots = &mockSlotChecker{slots: []availability.Slot{{Start: *tenAM(), End: tenAM().Add(30 * time.Minute)}}}

		booking, err := f.service().Create(context.Background(), &model.CreateBookingRequest{SlotToken: token, ClientName: "Yael"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if booking.MemberID != "m1" || booking.ServiceID != "cut" || !booking.Datetime.Equal(*tenAM()) {
			t.Errorf("booking does not match the token: %+v", booking)
		}
	})

	t.Run("slot gone", func(t *testing.T) {
		f := newFixture()
		f.tokens = tokens
		f.slots = &mockSlotChecker{}

		_, err := f.service().Create(context.Background(), &model.CreateBookingRequest{SlotToken: token})
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("service mismatch", func(t *testing.T) {
		f := newFixture()
		f.tokens = tokens

		_, err := f.service().Create(context.Background(), &model.CreateBookingRequest{SlotToken: token, ServiceID: "old"})
		if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})

	t.Run("tampered token", func(t *testing.T) {
		f := newFixture()
		f.tokens = tokens

		_, err := f.service().Create(context.Background(), &model.CreateBookingRequest{SlotToken: "not-a-token"})
		if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})

	t.Run("tokens disabled", func(t *testing.T) {
		f := newFixture()

		_, err := f.service().Create(context.Background(), &model.CreateBookingRequest{SlotToken: token})
		if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
			t.Fatalf("expected invalid input, got %v", err)
		}
	})
}

func TestCreate_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker down")

	if _, err := f.service().Create(context.Background(), explicitRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWritesInvalidateNextAvailableCache(t *testing.T) {
	f := newFixture()
	f.cache.err = errors.New("redis down")
	if _, err := f.service().Create(context.Background(), explicitRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.cache.invalidated) != 1 || f.cache.invalidated[0] != "p1" {
		t.Fatalf("create: invalidated = %v, want [p1]", f.cache.invalidated)
	}

	f = newFixture()
	f.repo.findByIDFunc = stored(model.BookingPending)
	if _, err := f.service().UpdateStatus(context.Background(), "b1", model.BookingCancelled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.cache.invalidated) != 1 || f.cache.invalidated[0] != "p1" {
		t.Fatalf("status change: invalidated = %v, want [p1]", f.cache.invalidated)
	}

	f = newFixture()
	f.repo.findByIDFunc = stored(model.BookingCancelled)
	if _, err := f.service().UpdateStatus(context.Background(), "b1", model.BookingConfirmed); err == nil {
		t.Fatal("expected a rejected transition")
	}
	if len(f.cache.invalidated) != 0 {
		t.Fatalf("rejected transition invalidated %v", f.cache.invalidated)
	}
}

func stored(status model.BookingStatus) func(ctx context.Context, id string) (*model.Booking, error) {
	return func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{
			ID:          id,
			ProviderID:  "p1",
			MemberID:    "m1",
			ServiceID:   "cut",
			Datetime:    *tenAM(),
			EndDatetime: tenAM().Add(30 * time.Minute),
			Status:      status,
		}, nil
	}
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name       string
		from       model.BookingStatus
		to         model.BookingStatus
		wantCode   string
		wantUpdate bool
	}{
		{"pending to confirmed", model.BookingPending, model.BookingConfirmed, "", true},
		{"pending to cancelled", model.BookingPending, model.BookingCancelled, "", true},
		{"confirmed to completed", model.BookingConfirmed, model.BookingCompleted, "", true},
		{"confirmed to noshow", model.BookingConfirmed, model.BookingNoShow, "", true},
		{"same status is a no-op", model.BookingConfirmed, model.BookingConfirmed, "", false},
		{"pending to completed", model.BookingPending, model.BookingCompleted, apperrors.CodeConflict, false},
		{"cancelled is final", model.BookingCancelled, model.BookingConfirmed, apperrors.CodeConflict, false},
		{"unknown status", model.BookingPending, "archived", apperrors.CodeValidation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			updated := false
			f.repo.findByIDFunc = stored(tt.from)
			f.repo.updateStatusFunc = func(ctx context.Context, id string, from, to model.BookingStatus) error {
				updated = true
				if from != tt.from || to != tt.to {
					t.Errorf("UpdateStatus(%s, %s), want (%s, %s)", from, to, tt.from, tt.to)
				}
				return nil
			}

			booking, err := f.service().UpdateStatus(context.Background(), "b1", tt.to)
			if tt.wantCode != "" {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if booking.Status != tt.to {
				t.Errorf("Status = %s, want %s", booking.Status, tt.to)
			}
			if updated != tt.wantUpdate {
				t.Errorf("repository updated = %v, want %v", updated, tt.wantUpdate)
			}
			if wantEvents := map[bool]int{true: 1, false: 0}[tt.wantUpdate]; len(f.publisher.events) != wantEvents {
				t.Errorf("published %d events, want %d", len(f.publisher.events), wantEvents)
			}
		})
	}
}

func TestUpdateStatus_ConcurrentChange(t *testing.T) {
	f := newFixture()
	f.repo.findByIDFunc = stored(model.BookingPending)
	f.repo.updateStatusFunc = func(ctx context.Context, id string, from, to model.BookingStatus) error {
		return fmt.Errorf("%w: %s", bookingserrors.ErrStaleStatus, id)
	}

	_, err := f.service().UpdateStatus(context.Background(), "b1", model.BookingConfirmed)
	if !apperrors.HasCode(err, apperrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	_, err := newFixture().service().GetByID(context.Background(), "b404")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestList(t *testing.T) {
	from := time.Date(2030, time.March, 1, 0, 0, 0, 0, time.UTC)

	t.Run("invalid ranges", func(t *testing.T) {
		svc := newFixture().service()
		for _, q := range []model.BookingQuery{
			{Start: from, End: from.AddDate(0, 0, 1)},
			{ProviderID: "p1", Start: from, End: from},
			{ProviderID: "p1", Start: from, End: from.AddDate(2, 0, 0)},
		} {
			if _, _, err := svc.List(context.Background(), q, 10, 0); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
				t.Errorf("query %+v: expected invalid input, got %v", q, err)
			}
		}
	})

	t.Run("returns page and total", func(t *testing.T) {
		f := newFixture()
		f.repo.countInRangeFunc = func(ctx context.Context, q model.BookingQuery) (int64, error) { return 42, nil }
		f.repo.findInRangeFunc = func(ctx context.Context, q model.BookingQuery, limit int, offset int64) ([]model.Booking, error) {
			if limit != 10 || offset != 20 {
				t.Errorf("limit/offset = %d/%d", limit, offset)
			}
			return []model.Booking{{ID: "b1"}}, nil
		}

		bookings, total, err := f.service().List(context.Background(), model.BookingQuery{ProviderID: "p1", Start: from, End: from.AddDate(0, 1, 0)}, 10, 20)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 42 || len(bookings) != 1 {
			t.Errorf("got %d bookings, total %d", len(bookings), total)
		}
	})

	t.Run("count failure", func(t *testing.T) {
		f := newFixture()
		f.repo.countInRangeFunc = func(ctx context.Context, q model.BookingQuery) (int64, error) {
			return 0, errors.New("connection reset")
		}

		_, _, err := f.service().List(context.Background(), model.BookingQuery{ProviderID: "p1", Start: from, End: from.AddDate(0, 1, 0)}, 10, 0)
		if !apperrors.HasCode(err, apperrors.CodeInternal) {
			t.Fatalf("expected internal error, got %v", err)
		}
	})
}

func TestGetBookingsInRange_StoreFailure(t *testing.T) {
	f := newFixture()
	f.repo.findInRangeFunc = func(ctx context.Context, q model.BookingQuery, limit int, offset int64) ([]model.Booking, error) {
		return nil, errors.New("server selection timeout")
	}

	_, err := f.service().GetBookingsInRange(context.Background(), model.BookingQuery{ProviderID: "p1"})
	if !apperrors.HasCode(err, apperrors.CodeStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
}

func TestCanTransition(t *testing.T) {
	for _, final := range []model.BookingStatus{model.BookingCancelled, model.BookingCompleted, model.BookingNoShow} {
		for _, to := range []model.BookingStatus{model.BookingPending, model.BookingConfirmed, model.BookingCancelled} {
			if CanTransition(final, to) {
				t.Errorf("%s must be final, but may move to %s", final, to)
			}
		}
	}
}
