package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/laundry-room-reservation/internal/utils"
)

const testSecret = "unit-test-secret"

func runJWT(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	nextCalled := false
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		nextCalled = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	return rec, c, nextCalled
}

func TestJWTAuth_ValidToken(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 42, "alice", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	rec, c, nextCalled := runJWT(t, "Bearer "+at.Token)
	if !nextCalled || rec.Code != http.StatusOK {
		t.Fatalf("valid token rejected: next=%v status=%d body=%s", nextCalled, rec.Code, rec.Body.String())
	}
	// Numeric JSON claims round-trip as float64.
	if got, ok := c.Get("user_id").(float64); !ok || got != 42 {
		t.Errorf("user_id = %v, want 42", c.Get("user_id"))
	}
	if got := c.Get("username"); got != "alice" {
		t.Errorf("username = %v, want alice", got)
	}
}

func TestJWTAuth_Rejections(t *testing.T) {
	expired, err := utils.NewAccessToken(testSecret, 42, "alice", -1)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	otherSecret, err := utils.NewAccessToken("some-other-secret", 42, "alice", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": 42}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired", "Bearer " + expired.Token},
		{"wrong secret", "Bearer " + otherSecret.Token},
		{"alg none", "Bearer " + unsigned},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, c, nextCalled := runJWT(t, tc.header)
			if nextCalled {
				t.Fatal("next handler ran for a bad token")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if c.Get("user_id") != nil {
				t.Error("user_id must not be set for a rejected request")
			}
		})
	}
}
