package model

import "time"

// BookingLock is an advisory lock on one (provider, member, start) slot, held while
// a booking is checked for conflicts and inserted. Expires via a TTL index.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
