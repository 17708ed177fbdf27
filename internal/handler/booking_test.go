package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/laundry-room-reservation/internal/model"
	"github.com/iliyamo/laundry-room-reservation/internal/repository"
	"github.com/iliyamo/laundry-room-reservation/internal/service"
)

// memLedger backs the handler tests with an in-memory ledger keeping
// the storage invariants: unique (date, slot) among active rows and
// owner-scoped soft cancel.
type memLedger struct {
	mu     sync.Mutex
	nextID uint64
	rows   []model.Booking
}

func (m *memLedger) CountActive(_ context.Context, userID uint64, date string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.rows {
		if b.UserID == userID && b.Date == date && b.Status == model.StatusActive {
			n++
		}
	}
	return n, nil
}

func (m *memLedger) InsertActive(_ context.Context, userID uint64, date, slot string) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.Date == date && b.TimeSlot == slot && b.Status == model.StatusActive {
			return model.Booking{}, repository.ErrSlotTaken
		}
	}
	m.nextID++
	b := model.Booking{ID: m.nextID, UserID: userID, Date: date, TimeSlot: slot, Status: model.StatusActive}
	m.rows = append(m.rows, b)
	return b, nil
}

func (m *memLedger) Cancel(_ context.Context, bookingID, userID uint64) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.rows {
		if b.ID == bookingID && b.UserID == userID && b.Status == model.StatusActive {
			m.rows[i].Status = model.StatusCancelled
			return m.rows[i], nil
		}
	}
	return model.Booking{}, repository.ErrBookingNotFound
}

func (m *memLedger) ListActiveByDate(_ context.Context, date string) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Booking{}
	for _, b := range m.rows {
		if b.Date == date && b.Status == model.StatusActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memLedger) ListActiveByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Booking{}
	for _, b := range m.rows {
		if b.UserID == userID && b.Status == model.StatusActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func newTestHandler() (*BookingHandler, *memLedger) {
	ledger := &memLedger{}
	return NewBookingHandler(service.NewBookingService(ledger)), ledger
}

// postBookings runs CreateBookings as user userID with a JSON body and
// returns the recorder plus the decoded response object.
func postBookings(t *testing.T, h *BookingHandler, userID uint64, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(userID)) // as the JWT middleware stores it

	if err := h.CreateBookings(c); err != nil {
		t.Fatalf("CreateBookings: %v", err)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, resp
}

func TestCreateBookings_AllBooked(t *testing.T) {
	h, _ := newTestHandler()
	rec, resp := postBookings(t, h, 1, `{"date":"2024-03-01","slots":["09:00 - 10:00","10:00 - 11:00"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	bookings, ok := resp["bookings"].([]any)
	if !ok || len(bookings) != 2 {
		t.Errorf("bookings = %v, want 2 entries", resp["bookings"])
	}
}

func TestCreateBookings_PartialIs207(t *testing.T) {
	h, ledger := newTestHandler()
	if _, err := ledger.InsertActive(context.Background(), 2, "2024-03-01", "09:00 - 10:00"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec, resp := postBookings(t, h, 1, `{"date":"2024-03-01","slots":["09:00 - 10:00","10:00 - 11:00"]}`)
	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207; body %s", rec.Code, rec.Body.String())
	}
	failures, ok := resp["failures"].([]any)
	if !ok || len(failures) != 1 {
		t.Fatalf("failures = %v, want 1 entry", resp["failures"])
	}
	f := failures[0].(map[string]any)
	if f["time_slot"] != "09:00 - 10:00" || f["reason"] != service.ReasonSlotTaken {
		t.Errorf("failure = %v, want taken 09:00 - 10:00", f)
	}
}

func TestCreateBookings_NoneBookedIs409(t *testing.T) {
	h, ledger := newTestHandler()
	if _, err := ledger.InsertActive(context.Background(), 2, "2024-03-01", "09:00 - 10:00"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec, resp := postBookings(t, h, 1, `{"date":"2024-03-01","slots":["09:00 - 10:00"]}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", rec.Code, rec.Body.String())
	}
	if resp["error"] != "no slots were booked" {
		t.Errorf("error = %v", resp["error"])
	}
}

func TestCreateBookings_InvalidIs400(t *testing.T) {
	h, _ := newTestHandler()
	for name, body := range map[string]string{
		"no slots":      `{"date":"2024-03-01","slots":[]}`,
		"bad slot":      `{"date":"2024-03-01","slots":["25:00 - 26:00"]}`,
		"bad date":      `{"date":"March 1","slots":["09:00 - 10:00"]}`,
		"not even json": `date=2024-03-01`,
	} {
		t.Run(name, func(t *testing.T) {
			rec, _ := postBookings(t, h, 1, body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateBookings_CapacityIs400WithCount(t *testing.T) {
	h, ledger := newTestHandler()
	for _, s := range []string{"08:00 - 09:00", "09:00 - 10:00"} {
		if _, err := ledger.InsertActive(context.Background(), 1, "2024-03-01", s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rec, resp := postBookings(t, h, 1, `{"date":"2024-03-01","slots":["10:00 - 11:00"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
	if got, ok := resp["existing"].(float64); !ok || got != 2 {
		t.Errorf("existing = %v, want 2", resp["existing"])
	}
}

func TestListBookings_DateViewVsOwnView(t *testing.T) {
	h, ledger := newTestHandler()
	ctx := context.Background()
	if _, err := ledger.InsertActive(ctx, 1, "2024-03-01", "09:00 - 10:00"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := ledger.InsertActive(ctx, 2, "2024-03-01", "10:00 - 11:00"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := ledger.InsertActive(ctx, 1, "2024-03-02", "09:00 - 10:00"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	e := echo.New()
	list := func(target string) []any {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("user_id", float64(1))
		if err := h.ListBookings(c); err != nil {
			t.Fatalf("ListBookings: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
		}
		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp["bookings"].([]any)
	}

	// The date view spans users; the personal view spans dates.
	if got := list("/v1/bookings?date=2024-03-01"); len(got) != 2 {
		t.Errorf("date view: %d bookings, want 2", len(got))
	}
	if got := list("/v1/bookings"); len(got) != 2 {
		t.Errorf("own view: %d bookings, want 2", len(got))
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/bookings?date=bogus", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(1))
	if err := h.ListBookings(c); err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus date: status = %d, want 400", rec.Code)
	}
}

func cancelBooking(t *testing.T, h *BookingHandler, userID uint64, id string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/bookings/"+id, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	c.Set("user_id", float64(userID))
	if err := h.CancelBooking(c); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	return rec
}

func TestCancelBooking(t *testing.T) {
	h, ledger := newTestHandler()
	b, err := ledger.InsertActive(context.Background(), 1, "2024-03-01", "09:00 - 10:00")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if rec := cancelBooking(t, h, 2, "1"); rec.Code != http.StatusNotFound {
		t.Errorf("foreign cancel: status = %d, want 404", rec.Code)
	}
	if rec := cancelBooking(t, h, 1, "999"); rec.Code != http.StatusNotFound {
		t.Errorf("missing id: status = %d, want 404", rec.Code)
	}
	if rec := cancelBooking(t, h, 1, "abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id: status = %d, want 400", rec.Code)
	}

	rec := cancelBooking(t, h, 1, "1")
	if rec.Code != http.StatusOK {
		t.Fatalf("owner cancel: status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	booking := resp["booking"].(map[string]any)
	if booking["status"] != model.StatusCancelled {
		t.Errorf("status = %v, want %s", booking["status"], model.StatusCancelled)
	}

	// A cancelled booking cancels like a missing one.
	if rec := cancelBooking(t, h, 1, "1"); rec.Code != http.StatusNotFound {
		t.Errorf("repeat cancel: status = %d, want 404", rec.Code)
	}

	// And its slot is free again for someone else.
	if _, err := ledger.InsertActive(context.Background(), 2, b.Date, b.TimeSlot); err != nil {
		t.Errorf("rebooking freed slot: %v", err)
	}
}

func TestListSlots(t *testing.T) {
	h, _ := newTestHandler()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/slots", nil)
	rec := httptest.NewRecorder()
	if err := h.ListSlots(e.NewContext(req, rec)); err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp["slots"]) != len(model.TimeSlots) {
		t.Errorf("slots = %d, want %d", len(resp["slots"]), len(model.TimeSlots))
	}
}
