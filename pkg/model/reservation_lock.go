package model

import "time"

// ReservationLock is an advisory lock held while a reservation write is
// validated against the occupancy ledger. Its ID encodes the slot
// coordinates (location, date, hour) so concurrent submissions for the same
// slot collide on the unique _id index.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
