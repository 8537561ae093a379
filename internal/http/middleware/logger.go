package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"wardrobe/internal/logging"
)

// Logger writes one "http_request" entry per request with request_id, method,
// path, status and latency (milliseconds).
func Logger(log *logging.Logger) fiber.Handler {
	log = log.With("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		fields := map[string]any{
			"request_id": RequestIDFrom(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		}
		if status >= fiber.StatusInternalServerError {
			log.Error("http_request", fields)
		} else {
			log.Info("http_request", fields)
		}
		return err
	}
}

// LoggerWithWriter is Logger writing to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logging.New(w, loc))
}
