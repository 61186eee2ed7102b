// Package http provides middleware shared by the HTTP surface: request
// id propagation and structured request logging.
package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries the request id between services and back to
// the caller.
const RequestIDHeader = "X-Request-ID"

// RequestID ensures every request has an id: an inbound header is
// honored, otherwise a fresh UUID is generated. The id is echoed on the
// response and stored on the echo context.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			c.Request().Header.Set(RequestIDHeader, requestID)
			c.Response().Header().Set(RequestIDHeader, requestID)
			c.Set(RequestIDHeader, requestID)

			return next(c)
		}
	}
}

// RequestLogger logs each request on completion with method, route,
// status, client ip, request id and latency. Handler errors are logged
// and passed through to the error handler untouched.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			event := log.Info()
			if err != nil {
				event = log.Error().Err(err)
			}

			requestID, _ := c.Get(RequestIDHeader).(string)
			event.
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Str("client_ip", c.RealIP()).
				Str("request_id", requestID).
				Dur("latency", time.Since(start)).
				Msg("Handled request")

			return nil
		}
	}
}
