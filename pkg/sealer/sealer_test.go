package sealer

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "lfQVRuulcL2iOhOJ2r8BYTweoSKwVAJnIF9U+AL+M60="

func TestSealOpen(t *testing.T) {
	s, err := New(testKey, 30*time.Minute)
	require.NoError(t, err)

	start := time.Date(2024, 1, 15, 10, 45, 0, 0, time.FixedZone("CET", 3600))
	token, err := s.Seal(SlotClaim{ProviderID: "p1", MemberID: "m1", ServiceID: "s1", Start: start})
	require.NoError(t, err)
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")

	claim, err := s.Open(token)
	require.NoError(t, err)
	assert.Equal(t, "p1", claim.ProviderID)
	assert.Equal(t, "m1", claim.MemberID)
	assert.Equal(t, "s1", claim.ServiceID)
	assert.True(t, claim.Start.Equal(start))
}

func TestOpen_Expired(t *testing.T) {
	s, err := New(testKey, time.Minute)
	require.NoError(t, err)

	issued := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }
	token, err := s.Seal(SlotClaim{ProviderID: "p1", MemberID: "m1", Start: issued.Add(time.Hour)})
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = s.Open(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestOpen_Tampered(t *testing.T) {
	s, err := New(testKey, time.Minute)
	require.NoError(t, err)

	token, err := s.Seal(SlotClaim{ProviderID: "p1", MemberID: "m1", Start: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	_, err = s.Open(base64.RawURLEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrInvalidToken)

	for _, bad := range []string{"", "not base64!", strings.Repeat("A", 8)} {
		_, err = s.Open(bad)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", bad)
	}
}

func TestOpen_OtherKey(t *testing.T) {
	a, err := New(testKey, time.Minute)
	require.NoError(t, err)
	b, err := NewRandom(time.Minute)
	require.NoError(t, err)

	token, err := a.Seal(SlotClaim{ProviderID: "p1", MemberID: "m1", Start: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	_, err = b.Open(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNew_BadKey(t *testing.T) {
	_, err := New("c2hvcnQ=", time.Minute)
	assert.Error(t, err)

	_, err = New("%%%", time.Minute)
	assert.Error(t, err)
}

func TestFromKey(t *testing.T) {
	keyed, err := FromKey(testKey, time.Minute)
	require.NoError(t, err)
	fixed, err := New(testKey, time.Minute)
	require.NoError(t, err)

	token, err := keyed.Seal(SlotClaim{ProviderID: "p1", MemberID: "m1", Start: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	_, err = fixed.Open(token)
	assert.NoError(t, err)

	random, err := FromKey("", time.Minute)
	require.NoError(t, err)
	_, err = random.Open(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
