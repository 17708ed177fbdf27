// Package repository implements the durable storage layer over MySQL.
// Sentinel values defined here let higher layers such as the booking
// service and handlers distinguish between failure scenarios without
// inspecting driver error strings themselves.
package repository

import "errors"

// ErrSlotTaken is returned by BookingRepo.InsertActive when an active
// booking already holds the requested (date, time slot) pair.  It is
// the expected, non-fatal outcome of losing a booking race; handlers
// translate it into an HTTP 409 response.
var ErrSlotTaken = errors.New("slot already booked")

// ErrBookingNotFound is returned by BookingRepo.Cancel when no active
// booking with the given id belongs to the given user.  A cancelled or
// foreign booking is deliberately indistinguishable from a missing one
// so ownership information never leaks to the caller.
var ErrBookingNotFound = errors.New("booking not found")

// ErrUsernameOrEmailExists is returned by UserRepo.Create when the
// username or email is already registered.
var ErrUsernameOrEmailExists = errors.New("username or email already exists")
