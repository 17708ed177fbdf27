package model

import "time"

// Booking status values.  A booking is never deleted; cancellation
// flips the status so the row remains for audit and history.
const (
	StatusActive    = "ACTIVE"
	StatusCancelled = "CANCELLED"
)

// DateLayout is the stored calendar-date format.  Dates arrive from
// clients as plain ISO-8601 date text with no time component.
const DateLayout = "2006-01-02"

// TimeSlots is the fixed enumeration of bookable one-hour windows for
// the laundry room.  The same list drives handler-side validation and
// the coordinator's slot-membership check, and is exposed to clients
// so they never have to hardcode it.
var TimeSlots = []string{
	"08:00 - 09:00",
	"09:00 - 10:00",
	"10:00 - 11:00",
	"11:00 - 12:00",
	"12:00 - 13:00",
	"13:00 - 14:00",
	"14:00 - 15:00",
	"15:00 - 16:00",
	"16:00 - 17:00",
	"17:00 - 18:00",
}

// slotSet allows constant-time membership checks against TimeSlots.
var slotSet = func() map[string]bool {
	m := make(map[string]bool, len(TimeSlots))
	for _, s := range TimeSlots {
		m[s] = true
	}
	return m
}()

// IsValidSlot reports whether label is one of the ten fixed slots.
func IsValidSlot(label string) bool { return slotSet[label] }

// IsValidDate reports whether s is a calendar date in DateLayout form.
// Real-world calendar plausibility beyond the stored format is not
// this service's concern.
func IsValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}

// Booking records one reserved slot on one date.  It mirrors the
// `bookings` table.
//
// Fields:
//  ID        – primary key identifier, assigned on insert.
//  UserID    – owning user.
//  Date      – calendar date in DateLayout form.
//  TimeSlot  – one of TimeSlots.
//  Status    – StatusActive or StatusCancelled.
//  CreatedAt – creation timestamp (UTC).
//  UpdatedAt – last update timestamp (UTC); changes on cancellation.
type Booking struct {
	ID        uint64    `json:"id"`         // bookings.id
	UserID    uint64    `json:"user_id"`    // bookings.user_id
	Date      string    `json:"date"`       // bookings.date
	TimeSlot  string    `json:"time_slot"`  // bookings.time_slot
	Status    string    `json:"status"`     // bookings.status
	CreatedAt time.Time `json:"created_at"` // bookings.created_at
	UpdatedAt time.Time `json:"updated_at"` // bookings.updated_at
}
