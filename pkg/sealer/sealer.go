package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid slot token")
	ErrExpiredToken = errors.New("slot token expired")
)

// SlotClaim is what a slot token carries. Start is the slot start instant;
// the booking service recomputes the end from the service duration.
type SlotClaim struct {
	ProviderID string    `json:"p"`
	MemberID   string    `json:"m"`
	ServiceID  string    `json:"s"`
	Start      time.Time `json:"t"`
	ExpiresAt  time.Time `json:"e"`
}

// Sealer issues and opens AES-GCM slot tokens. Tokens are URL safe.
type Sealer struct {
	aead cipher.AEAD
	ttl  time.Duration
	now  func() time.Time
}

// New builds a Sealer from a base64 AES key (16, 24 or 32 bytes).
func New(encodedKey string, ttl time.Duration) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode slot token key: %w", err)
	}
	return NewWithKey(key, ttl)
}

// NewRandom builds a Sealer with a fresh key. Its tokens are only readable by
// the same process.
func NewRandom(ttl time.Duration) (*Sealer, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return NewWithKey(key, ttl)
}

// FromKey is New, falling back to NewRandom for an empty key.
func FromKey(encodedKey string, ttl time.Duration) (*Sealer, error) {
	if encodedKey == "" {
		return NewRandom(ttl)
	}
	return New(encodedKey, ttl)
}

func NewWithKey(key []byte, ttl time.Duration) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Sealer{aead: aesgcm, ttl: ttl, now: time.Now}, nil
}

// Seal stamps the claim's expiry and returns the opaque token.
func (s *Sealer) Seal(claim SlotClaim) (string, error) {
	claim.ExpiresAt = s.now().Add(s.ttl).UTC().Truncate(time.Second)
	claim.Start = claim.Start.UTC()

	plaintext, err := json.Marshal(claim)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

func (s *Sealer) Open(token string) (*SlotClaim, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	nonceSize := s.aead.NonceSize()
	if len(data) <= nonceSize {
		return nil, ErrInvalidToken
	}
	nonce := data[:nonceSize]
	ciphertext := data[nonceSize:]

	pt, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var claim SlotClaim
	if err := json.Unmarshal(pt, &claim); err != nil {
		return nil, ErrInvalidToken
	}
	if claim.ProviderID == "" || claim.MemberID == "" || claim.Start.IsZero() {
		return nil, ErrInvalidToken
	}
	if !s.now().Before(claim.ExpiresAt) {
		return nil, ErrExpiredToken
	}

	return &claim, nil
}
