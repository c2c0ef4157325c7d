package recalculation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opatam/internal/availability"
	"opatam/internal/events"
	"opatam/pkg/kafka"
	"opatam/pkg/logger"
	"opatam/pkg/model"
)

func bookingMessage(eventType string, payload any) kafka.Message {
	return kafka.NewMessage().
		WithKey("p1").
		WithValue(payload).
		WithEventType(eventType).
		Build()
}

func TestBookingEventHandler(t *testing.T) {
	tests := []struct {
		name      string
		msg       kafka.Message
		searchErr error
		wantErr   kafka.ErrorType
		wantWrite bool
	}{
		{
			name:      "booking created recalculates",
			msg:       bookingMessage(events.TypeBookingCreated, events.BookingEvent{BookingID: "b1", ProviderID: "p1"}),
			wantWrite: true,
		},
		{
			name:      "status change recalculates",
			msg:       bookingMessage(events.TypeBookingStatusChanged, events.BookingEvent{BookingID: "b1", ProviderID: "p1"}),
			wantWrite: true,
		},
		{
			name: "other events are ignored",
			msg:  bookingMessage(events.TypeNextAvailableChanged, events.NextAvailableChanged{ProviderID: "p1"}),
		},
		{
			name:    "bad payload is permanent",
			msg:     kafka.Message{Value: []byte("{"), Headers: map[string]string{kafka.HeaderEventType: events.TypeBookingCreated}},
			wantErr: kafka.ErrorTypePermanent,
		},
		{
			name:    "missing provider id is permanent",
			msg:     bookingMessage(events.TypeBookingCreated, events.BookingEvent{BookingID: "b1"}),
			wantErr: kafka.ErrorTypePermanent,
		},
		{
			name:    "unknown provider is permanent",
			msg:     bookingMessage(events.TypeBookingCreated, events.BookingEvent{BookingID: "b1", ProviderID: "gone"}),
			wantErr: kafka.ErrorTypePermanent,
		},
		{
			name:      "search failure is transient",
			msg:       bookingMessage(events.TypeBookingCreated, events.BookingEvent{BookingID: "b1", ProviderID: "p1"}),
			searchErr: errors.New("connection refused"),
			wantErr:   kafka.ErrorTypeTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeProviders(provider("p1", nil))
			search := &fakeSearcher{
				results: map[string]*availability.SearchResult{"p1": found("2030-03-05")},
				errs:    map[string]error{},
			}
			if tt.searchErr != nil {
				search.errs["p1"] = tt.searchErr
			}
			handler := BookingEventHandler(newTestJob(store, search, nil, nil, nil), logger.NewNop())

			err := handler(context.Background(), tt.msg)
			if tt.wantErr == kafka.ErrorTypeUnknown {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, kafka.ClassifyError(err))
			}

			_, written := store.written["p1"]
			assert.Equal(t, tt.wantWrite, written)
		})
	}
}

func TestBookingEventHandler_UsesEventProvider(t *testing.T) {
	other := provider("p2", nil)
	store := newFakeProviders(provider("p1", nil), other)
	search := &fakeSearcher{results: map[string]*availability.SearchResult{"p2": found("2030-03-09")}}
	handler := BookingEventHandler(newTestJob(store, search, nil, nil, nil), logger.NewNop())

	err := handler(context.Background(), bookingMessage(events.TypeBookingCreated, events.BookingEvent{
		BookingID:  "b7",
		ProviderID: "p2",
		Status:     model.BookingConfirmed,
	}))
	require.NoError(t, err)
	require.Len(t, search.requests, 1)
	assert.Equal(t, "p2", search.requests[0].ProviderID)
	assert.Equal(t, "2030-03-09", *store.written["p2"])
}

func TestBookingEventHandler_InvalidatesCacheWhenDateUnchanged(t *testing.T) {
	store := newFakeProviders(provider("p1", datePtr("2030-03-05")))
	search := &fakeSearcher{results: map[string]*availability.SearchResult{"p1": found("2030-03-05")}}
	cache := &recordingCache{}
	handler := BookingEventHandler(newTestJob(store, search, nil, nil, cache), logger.NewNop())

	err := handler(context.Background(), bookingMessage(events.TypeBookingCreated, events.BookingEvent{BookingID: "b1", ProviderID: "p1"}))
	require.NoError(t, err)
	assert.Empty(t, store.written)
	assert.Equal(t, []string{"p1"}, cache.invalidated)
}
