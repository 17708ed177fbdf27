package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/laundry-room-reservation/internal/model"
	"github.com/iliyamo/laundry-room-reservation/internal/queue"
	"github.com/iliyamo/laundry-room-reservation/internal/repository"
	"github.com/iliyamo/laundry-room-reservation/internal/service"
)

// BookingHandler exposes the booking surface: the room-wide
// availability view, the caller's own bookings, batch booking and
// cancellation.  All methods assume JWT authentication has already
// populated user_id in the context.
type BookingHandler struct {
	Svc *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc}
}

type createBookingsReq struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// ListSlots handles GET /v1/slots.  It returns the fixed ten-slot
// enumeration so clients never hardcode the labels.
func (h *BookingHandler) ListSlots(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"slots": model.TimeSlots})
}

// ListBookings handles GET /v1/bookings.  With ?date=YYYY-MM-DD it
// returns every user's active bookings on that date (the availability
// view); without it, the caller's own active bookings across dates.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var bookings []model.Booking
	if date := c.QueryParam("date"); date != "" {
		bookings, err = h.Svc.ListForDate(ctx, date)
	} else {
		bookings, err = h.Svc.ListForUser(ctx, userID)
	}
	if err != nil {
		var ire *service.InvalidRequestError
		if errors.As(err, &ire) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": ire.Reason})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// CreateBookings handles POST /v1/bookings.  The body carries a date
// and 1-2 slot labels; the aggregate outcome maps to HTTP as the
// clients expect: 201 when every slot was booked, 207 when some were,
// 409 when none were, 400 for malformed or over-capacity batches.
func (h *BookingHandler) CreateBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Book(ctx, userID, req.Date, req.Slots)
	if err != nil {
		var ire *service.InvalidRequestError
		if errors.As(err, &ire) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": ire.Reason})
		}
		var cerr *service.CapacityExceededError
		if errors.As(err, &cerr) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": fmt.Sprintf("you can only book %d slots per day; you already have %d booked",
					service.MaxActivePerDay, cerr.Existing),
				"existing": cerr.Existing,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}

	for _, b := range res.Bookings {
		go func(b model.Booking) {
			_ = queue.PublishBookingConfirmed(context.Background(), queue.BookingConfirmedEvent{
				BookingID: b.ID,
				UserID:    b.UserID,
				Date:      b.Date,
				TimeSlot:  b.TimeSlot,
				BookedAt:  b.CreatedAt.UTC().Format(time.RFC3339),
			})
		}(b)
	}

	switch res.Outcome {
	case service.AllFailed:
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    "no slots were booked",
			"failures": res.Failures,
		})
	case service.PartialSuccess:
		return c.JSON(http.StatusMultiStatus, echo.Map{
			"message":   fmt.Sprintf("%d of %d slots booked", res.Succeeded, res.Requested),
			"bookings":  res.Bookings,
			"failures":  res.Failures,
			"succeeded": res.Succeeded,
		})
	default:
		return c.JSON(http.StatusCreated, echo.Map{
			"message":  "all slots booked",
			"bookings": res.Bookings,
		})
	}
}

// CancelBooking handles DELETE /v1/bookings/:id.  Only the owner of an
// active booking can cancel it; everything else is 404 so foreign
// booking ids reveal nothing.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Svc.Cancel(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}

	go func(b model.Booking) {
		_ = queue.PublishBookingCancelled(context.Background(), queue.BookingCancelledEvent{
			BookingID:   b.ID,
			UserID:      b.UserID,
			Date:        b.Date,
			TimeSlot:    b.TimeSlot,
			CancelledAt: b.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}(b)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "booking cancelled",
		"booking": b,
	})
}
