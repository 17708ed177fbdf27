// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/laundry-room-reservation/internal/config"
	"github.com/iliyamo/laundry-room-reservation/internal/handler"
	"github.com/iliyamo/laundry-room-reservation/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication: the
// health check and the fixed slot enumeration.
func RegisterRoutes(e *echo.Echo, b *handler.BookingHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/slots", b.ListSlots)
}

// RegisterAuth registers the authentication endpoints.  Register,
// login, refresh and logout live under /v1/auth and need no session;
// /v1/me sits behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterBookings registers the booking surface behind JWT
// authentication.  The availability listing additionally runs through
// the Redis response cache when one is configured.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, cacheCfg config.CacheConfig, rdb *redis.Client) {
	g := e.Group("/v1/bookings")
	g.Use(middleware.JWTAuth(jwtSecret))
	// Only the date view is cached: it is identical for every caller,
	// while the listing without ?date= is personal to the user.
	cache := middleware.NewRedisCache(cacheCfg, rdb)
	dateViewCache := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.QueryParam("date") == "" {
				return next(c)
			}
			return cache(next)(c)
		}
	}
	g.GET("", b.ListBookings, dateViewCache)
	g.POST("", b.CreateBookings)
	g.DELETE("/:id", b.CancelBooking)
}
