package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"wardrobe/internal/bgremoval"
	"wardrobe/internal/errs"
	"wardrobe/internal/http/middleware"
	"wardrobe/internal/logging"
)

// errorPayload is the body of every error response.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// writeError writes a standardized JSON error response. message must be safe to
// show to the user.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

type errorMapping struct {
	target error
	status int
	code   string
}

// First match wins.
var errorMappings = []errorMapping{
	{errs.ErrUnauthenticated, fiber.StatusUnauthorized, "UNAUTHENTICATED"},
	{errs.ErrInvalidInput, fiber.StatusBadRequest, "INVALID_INPUT"},
	{errs.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{errs.ErrResourceUnreadable, fiber.StatusUnprocessableEntity, "RESOURCE_UNREADABLE"},
	{errs.ErrTimeout, fiber.StatusGatewayTimeout, "TIMEOUT"},
	{errs.ErrCollaboratorFailed, fiber.StatusBadGateway, "BACKGROUND_REMOVAL_FAILED"},
	{errs.ErrUploadFailed, fiber.StatusBadGateway, "UPLOAD_FAILED"},
	{errs.ErrRemoteWriteFailed, fiber.StatusBadGateway, "REMOTE_WRITE_FAILED"},
}

// writeServiceError translates a core error into a response. Messages name the
// failure category; causes from storage or the database are only logged.
func writeServiceError(c *fiber.Ctx, log *logging.Logger, err error) error {
	var bgErr *bgremoval.Error
	isBg := errors.As(err, &bgErr)

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.target.Error()
		switch {
		case m.target == errs.ErrInvalidInput:
			msg = err.Error()
		case isBg:
			msg = bgErr.Error()
		}
		if m.status >= fiber.StatusInternalServerError {
			log.Error("request_failed", map[string]any{
				"request_id": middleware.RequestIDFrom(c),
				"code":       m.code,
				"error":      err,
			})
		}
		payload := errorPayload{
			RequestID: middleware.RequestIDFrom(c),
			Error:     errorEnvelope{Code: m.code, Message: msg},
		}
		if isBg {
			payload.Error.Reason = string(bgErr.Reason)
		}
		return c.Status(m.status).JSON(payload)
	}

	log.Error("request_failed", map[string]any{
		"request_id": middleware.RequestIDFrom(c),
		"code":       "INTERNAL_ERROR",
		"error":      err,
	})
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
