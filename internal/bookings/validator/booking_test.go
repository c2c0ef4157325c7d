package validator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"opatam/pkg/logger"
	"opatam/pkg/model"
)

func appointment() *model.Booking {
	start := time.Date(2030, time.March, 4, 10, 0, 0, 0, time.UTC)
	return &model.Booking{
		ProviderID:  "p1",
		MemberID:    "m1",
		ServiceID:   "cut",
		Datetime:    start,
		EndDatetime: start.Add(30 * time.Minute),
		BufferTime:  5,
		Status:      model.BookingPending,
		ClientPhone: "+972541234567",
	}
}

func TestValidate(t *testing.T) {
	v := NewBookingValidator(logger.NewNop())

	tests := []struct {
		name      string
		mutate    func(b *model.Booking)
		wantField string
	}{
		{
			name:   "valid booking",
			mutate: func(b *model.Booking) {},
		},
		{
			name:      "missing member",
			mutate:    func(b *model.Booking) { b.MemberID = "" },
			wantField: "MemberID",
		},
		{
			name:      "end before start",
			mutate:    func(b *model.Booking) { b.EndDatetime = b.Datetime.Add(-time.Minute) },
			wantField: "EndDatetime",
		},
		{
			name:      "seconds on start",
			mutate:    func(b *model.Booking) { b.Datetime = b.Datetime.Add(15 * time.Second) },
			wantField: "Datetime",
		},
		{
			name:      "unknown status",
			mutate:    func(b *model.Booking) { b.Status = "archived" },
			wantField: "Status",
		},
		{
			name:      "phone not in E.164",
			mutate:    func(b *model.Booking) { b.ClientPhone = "054-123-4567" },
			wantField: "ClientPhone",
		},
		{
			name:      "negative buffer",
			mutate:    func(b *model.Booking) { b.BufferTime = -1 },
			wantField: "BufferTime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := appointment()
			tt.mutate(b)

			err := v.Validate(b)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			found := false
			for _, e := range verrs {
				if strings.EqualFold(e.Field, tt.wantField) {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %s in %v", tt.wantField, verrs)
			}
		})
	}
}

func TestValidateStatusUpdate(t *testing.T) {
	v := NewBookingValidator(logger.NewNop())

	if err := v.ValidateStatusUpdate(&model.BookingStatusUpdate{Status: model.BookingNoShow}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.ValidateStatusUpdate(&model.BookingStatusUpdate{}); err == nil {
		t.Error("expected an error for an empty status")
	}
}
