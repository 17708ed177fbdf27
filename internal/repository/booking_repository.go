package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/laundry-room-reservation/internal/model"
)

// BookingRepo is the reservation ledger: the durable record of which
// user holds which (date, time slot) pair.  It enforces slot
// uniqueness at insert time through the uniq_active_slot key, which
// covers a generated column that is NULL for cancelled rows, so
// uniqueness applies among active bookings only.  All timestamps are
// stored in UTC.
type BookingRepo struct{ DB *sql.DB }

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingColumns = "id, user_id, date, time_slot, status, created_at, updated_at"

// scanBooking reads one bookings row.  The DATE column arrives as a
// time.Time (parseTime=true) and is stored back into the model as
// plain date text.
func scanBooking(row interface{ Scan(...any) error }) (model.Booking, error) {
	var (
		b    model.Booking
		date time.Time
	)
	err := row.Scan(&b.ID, &b.UserID, &date, &b.TimeSlot, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	b.Date = date.Format(model.DateLayout)
	return b, nil
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (code 1062), meaning a unique key rejected the insert.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// CountActive returns the number of active bookings owned by userID on
// the given date.  It backs the coordinator's advisory capacity check.
func (r *BookingRepo) CountActive(ctx context.Context, userID uint64, date string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE user_id=? AND date=? AND status=?",
		userID, date, model.StatusActive).Scan(&n)
	return n, err
}

// InsertActive attempts to create one active booking.  The check and
// the insert are a single atomic operation: the uniq_active_slot key
// is evaluated by the database at insert time, so of two concurrent
// inserts for the same (date, slot) exactly one wins and the other
// receives ErrSlotTaken.  On success the stored row is read back so
// the caller sees database-assigned id and timestamps.
func (r *BookingRepo) InsertActive(ctx context.Context, userID uint64, date, slot string) (model.Booking, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO bookings (user_id, date, time_slot) VALUES (?,?,?)",
		userID, date, slot)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Booking{}, ErrSlotTaken
		}
		return model.Booking{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Booking{}, err
	}
	return scanBooking(r.DB.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=?", id))
}

// Cancel transitions a booking owned by userID from active to
// cancelled.  Ownership and liveness are checked in the same UPDATE;
// zero affected rows means the booking does not exist, is already
// cancelled or belongs to someone else, all reported uniformly as
// ErrBookingNotFound.  The row is never deleted.
func (r *BookingRepo) Cancel(ctx context.Context, bookingID, userID uint64) (model.Booking, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET status=? WHERE id=? AND user_id=? AND status=?",
		model.StatusCancelled, bookingID, userID, model.StatusActive)
	if err != nil {
		return model.Booking{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Booking{}, err
	}
	if n == 0 {
		return model.Booking{}, ErrBookingNotFound
	}
	return scanBooking(r.DB.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id=?", bookingID))
}

// ListActiveByDate returns every user's active bookings on the given
// date, ordered by time slot.  It backs the room-wide availability
// view.
func (r *BookingRepo) ListActiveByDate(ctx context.Context, date string) ([]model.Booking, error) {
	return r.listActive(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE date=? AND status=? ORDER BY time_slot",
		date, model.StatusActive)
}

// ListActiveByUser returns all of one user's active bookings across
// dates, ordered by date then slot.
func (r *BookingRepo) ListActiveByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return r.listActive(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE user_id=? AND status=? ORDER BY date, time_slot",
		userID, model.StatusActive)
}

func (r *BookingRepo) listActive(ctx context.Context, query string, args ...any) ([]model.Booking, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
