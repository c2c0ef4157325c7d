package availability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "opatam/pkg/errors"
	"opatam/pkg/model"
)

func haircut() *model.Service {
	return &model.Service{ID: "s1", Name: "Haircut", Duration: 30, BufferTime: 5, Active: true}
}

func twoMemberStore() *fakeScheduleStore {
	return &fakeScheduleStore{
		weeks: map[string][]model.WeeklyDaySchedule{
			"m1": splitMonday(),
			"m2": splitMonday(),
		},
	}
}

func TestEligibleMembers(t *testing.T) {
	members := []string{"m1", "m2", "m3"}

	assert.Equal(t, members, EligibleMembers(members, &model.Service{}))
	assert.Equal(t, []string{"m1", "m3"}, EligibleMembers(members, &model.Service{MemberIDs: []string{"m3", "m1"}}))
	assert.Empty(t, EligibleMembers(members, &model.Service{MemberIDs: []string{}}))
}

func TestAggregate_UnionsByStart(t *testing.T) {
	engine := newTestEngine(twoMemberStore(), &fakeBookingStore{}, monday)

	slots, err := engine.Aggregate(context.Background(), "p1", []string{"m2", "m1"}, haircut(), monday)
	require.NoError(t, err)
	require.Len(t, slots, 12)

	assert.Equal(t, at(monday, 9, 0), slots[0].Start)
	assert.Equal(t, at(monday, 9, 30), slots[0].End)
	for _, s := range slots {
		assert.Equal(t, []string{"m1", "m2"}, s.MemberIDs)
	}
}

func TestAggregate_BookedMemberDropsOut(t *testing.T) {
	bookings := &fakeBookingStore{bookings: []model.Booking{
		confirmed("m2", at(monday, 9, 0), at(monday, 9, 30)),
	}}
	engine := newTestEngine(twoMemberStore(), bookings, monday)

	slots, err := engine.Aggregate(context.Background(), "p1", []string{"m1", "m2"}, haircut(), monday)
	require.NoError(t, err)

	require.NotEmpty(t, slots)
	assert.Equal(t, at(monday, 9, 0), slots[0].Start)
	assert.Equal(t, []string{"m1"}, slots[0].MemberIDs)
	assert.Equal(t, at(monday, 9, 35), slots[1].Start)
	assert.Equal(t, []string{"m1"}, slots[1].MemberIDs)
	assert.Equal(t, at(monday, 9, 45), slots[2].Start)
	assert.Equal(t, []string{"m2"}, slots[2].MemberIDs)

	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Start.Before(slots[i].Start))
	}
}

func TestAggregate_RespectsServiceMembers(t *testing.T) {
	engine := newTestEngine(twoMemberStore(), &fakeBookingStore{}, monday)
	svc := haircut()
	svc.MemberIDs = []string{"m2"}

	slots, err := engine.Aggregate(context.Background(), "p1", []string{"m1", "m2"}, svc, monday)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.Equal(t, []string{"m2"}, s.MemberIDs)
	}

	svc.MemberIDs = []string{"m9"}
	slots, err = engine.Aggregate(context.Background(), "p1", []string{"m1", "m2"}, svc, monday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAggregate_FailingMemberIsExcluded(t *testing.T) {
	store := twoMemberStore()
	store.weekErr = map[string]error{"m2": errors.New("connection reset")}
	engine := newTestEngine(store, &fakeBookingStore{}, monday)

	slots, err := engine.Aggregate(context.Background(), "p1", []string{"m1", "m2"}, haircut(), monday)
	require.NoError(t, err)
	require.Len(t, slots, 12)
	for _, s := range slots {
		assert.Equal(t, []string{"m1"}, s.MemberIDs)
	}
}

func TestAggregate_AllMembersFailing(t *testing.T) {
	engine := newTestEngine(twoMemberStore(), &fakeBookingStore{err: errors.New("bookings down")}, monday)

	slots, err := engine.Aggregate(context.Background(), "p1", []string{"m1", "m2"}, haircut(), monday)
	assert.Nil(t, slots)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStoreUnavailable))
}

func TestAggregate_InvalidService(t *testing.T) {
	engine := newTestEngine(twoMemberStore(), &fakeBookingStore{}, monday)

	_, err := engine.Aggregate(context.Background(), "p1", []string{"m1"}, &model.Service{Duration: 0}, monday)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
