// Package service contains the booking coordinator: the stateless
// layer that applies a batch slot request against the reservation
// ledger and reports a precise aggregate outcome.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/iliyamo/laundry-room-reservation/internal/model"
	"github.com/iliyamo/laundry-room-reservation/internal/repository"
)

// MaxActivePerDay caps how many active bookings one user may hold on a
// single calendar date.
const MaxActivePerDay = 2

// ReservationLedger is the storage contract the coordinator depends
// on.  repository.BookingRepo is the production implementation; tests
// substitute in-memory fakes.
type ReservationLedger interface {
	CountActive(ctx context.Context, userID uint64, date string) (int, error)
	InsertActive(ctx context.Context, userID uint64, date, slot string) (model.Booking, error)
	Cancel(ctx context.Context, bookingID, userID uint64) (model.Booking, error)
	ListActiveByDate(ctx context.Context, date string) ([]model.Booking, error)
	ListActiveByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
}

// InvalidRequestError reports a malformed batch: wrong size, unknown
// or duplicate slot labels, or a date not in stored form.  It is
// raised before any storage access.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string { return "invalid booking request: " + e.Reason }

// CapacityExceededError rejects a whole batch that would push the user
// past MaxActivePerDay.  Existing carries the user's current active
// count so callers can explain the limit.
type CapacityExceededError struct {
	Existing  int
	Requested int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("daily booking limit reached: %d active, %d requested, max %d",
		e.Existing, e.Requested, MaxActivePerDay)
}

// Outcome classifies how a batch fared as a whole.
type Outcome string

const (
	AllSucceeded   Outcome = "ALL_SUCCEEDED"
	PartialSuccess Outcome = "PARTIAL_SUCCESS"
	AllFailed      Outcome = "ALL_FAILED"
)

// Per-slot failure reasons.
const (
	ReasonSlotTaken    = "slot already booked"
	ReasonStorageError = "could not book slot"
)

// SlotFailure itemizes one requested slot that was not booked.
type SlotFailure struct {
	TimeSlot string `json:"time_slot"`
	Reason   string `json:"reason"`
}

// BatchResult aggregates the per-slot outcomes of one batch request.
// Succeeded and Failures are always both populated so mixed outcomes
// never hide either side.
type BatchResult struct {
	Outcome   Outcome         `json:"outcome"`
	Requested int             `json:"requested"`
	Succeeded int             `json:"succeeded"`
	Bookings  []model.Booking `json:"bookings"`
	Failures  []SlotFailure   `json:"failures,omitempty"`
}

// BookingService coordinates batch bookings against the ledger.  It
// keeps no state between calls; every invariant it cares about lives
// in the ledger's durable storage.
type BookingService struct {
	ledger ReservationLedger
}

func NewBookingService(ledger ReservationLedger) *BookingService {
	if ledger == nil {
		panic("nil ledger passed to NewBookingService")
	}
	return &BookingService{ledger: ledger}
}

// validateBatch rejects malformed batches before any storage access.
func validateBatch(date string, slots []string) *InvalidRequestError {
	if !model.IsValidDate(date) {
		return &InvalidRequestError{Reason: "date must be in YYYY-MM-DD form"}
	}
	if len(slots) == 0 {
		return &InvalidRequestError{Reason: "at least one slot is required"}
	}
	if len(slots) > MaxActivePerDay {
		return &InvalidRequestError{Reason: fmt.Sprintf("at most %d slots per request", MaxActivePerDay)}
	}
	seen := make(map[string]bool, len(slots))
	for _, s := range slots {
		if !model.IsValidSlot(s) {
			return &InvalidRequestError{Reason: fmt.Sprintf("unknown time slot %q", s)}
		}
		if seen[s] {
			return &InvalidRequestError{Reason: fmt.Sprintf("duplicate time slot %q", s)}
		}
		seen[s] = true
	}
	return nil
}

// Book applies a batch of 1-2 requested slots for one user and date.
//
// The capacity check is advisory: it runs once up front and rejects
// the whole batch before any insert when the user would exceed
// MaxActivePerDay.  Two concurrent batches from the same user can both
// pass it and jointly exceed the cap; that race is a documented
// property of this design and is not closed here.  Slot uniqueness, by
// contrast, is enforced unconditionally by the ledger's atomic insert.
//
// Inserts run independently in request order.  One slot's conflict
// never rolls back another slot's success, and a storage failure on
// one slot is itemized the same way rather than aborting the batch.
// The returned error is non-nil only for whole-batch rejections
// (InvalidRequestError, CapacityExceededError) or a failed capacity
// read; per-slot failures live inside the BatchResult.
func (s *BookingService) Book(ctx context.Context, userID uint64, date string, slots []string) (BatchResult, error) {
	if verr := validateBatch(date, slots); verr != nil {
		return BatchResult{}, verr
	}

	existing, err := s.ledger.CountActive(ctx, userID, date)
	if err != nil {
		return BatchResult{}, err
	}
	if existing+len(slots) > MaxActivePerDay {
		return BatchResult{}, &CapacityExceededError{Existing: existing, Requested: len(slots)}
	}

	res := BatchResult{
		Requested: len(slots),
		Bookings:  make([]model.Booking, 0, len(slots)),
	}
	for _, slot := range slots {
		b, err := s.ledger.InsertActive(ctx, userID, date, slot)
		if err != nil {
			reason := ReasonStorageError
			if errors.Is(err, repository.ErrSlotTaken) {
				reason = ReasonSlotTaken
			} else {
				log.Printf("booking: insert %s %q for user %d failed: %v", date, slot, userID, err)
			}
			res.Failures = append(res.Failures, SlotFailure{TimeSlot: slot, Reason: reason})
			continue
		}
		res.Bookings = append(res.Bookings, b)
		res.Succeeded++
	}

	switch {
	case res.Succeeded == 0:
		res.Outcome = AllFailed
	case res.Succeeded == res.Requested:
		res.Outcome = AllSucceeded
	default:
		res.Outcome = PartialSuccess
	}
	return res, nil
}

// Cancel soft-cancels one booking owned by userID.  The freed slot is
// immediately bookable again by anyone.  Errors pass through from the
// ledger (repository.ErrBookingNotFound for missing/foreign/cancelled
// targets).
func (s *BookingService) Cancel(ctx context.Context, bookingID, userID uint64) (model.Booking, error) {
	return s.ledger.Cancel(ctx, bookingID, userID)
}

// ListForDate returns every active booking on one date, for the
// room-wide availability view.
func (s *BookingService) ListForDate(ctx context.Context, date string) ([]model.Booking, error) {
	if !model.IsValidDate(date) {
		return nil, &InvalidRequestError{Reason: "date must be in YYYY-MM-DD form"}
	}
	return s.ledger.ListActiveByDate(ctx, date)
}

// ListForUser returns the caller's active bookings across all dates.
func (s *BookingService) ListForUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.ledger.ListActiveByUser(ctx, userID)
}
