// Package queue defines the booking events exchanged over the message
// broker plus the publisher and the audit-log consumer.
package queue

// BookingConfirmedEvent is published once per successfully booked slot.
// It carries enough for downstream consumers to log or notify without
// querying the primary database.
type BookingConfirmedEvent struct {
	BookingID uint64 `json:"booking_id"`
	UserID    uint64 `json:"user_id"`
	Date      string `json:"date"`
	TimeSlot  string `json:"time_slot"`
	BookedAt  string `json:"booked_at"`
}

// BookingCancelledEvent is published when a user cancels a booking,
// freeing its slot.
type BookingCancelledEvent struct {
	BookingID   uint64 `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	Date        string `json:"date"`
	TimeSlot    string `json:"time_slot"`
	CancelledAt string `json:"cancelled_at"`
}
