package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func invalidBody(c *fiber.Ctx) error {
	return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
}

// respondError maps service errors to status codes. Anything unrecognised is
// logged and reported as a 500 without details.
func respondError(c *fiber.Ctx, action string, err error) error {
	var exchangeErr *services.ExchangeError

	switch {
	case errors.Is(err, services.ErrCodeNotFound):
		return errorJSON(c, fiber.StatusBadRequest, "Code not found")
	case errors.Is(err, services.ErrCodeExpired):
		return errorJSON(c, fiber.StatusBadRequest, "Code expired")
	case errors.Is(err, services.ErrCodeInvalid):
		return errorJSON(c, fiber.StatusBadRequest, "Invalid code")
	case errors.Is(err, services.ErrInvalidEmail):
		return errorJSON(c, fiber.StatusBadRequest, "Invalid email")
	case errors.As(err, &exchangeErr):
		slog.Warn("oauth exchange failed", "action", action, "request_id", requestID(c), "code", exchangeErr.Code)
		// Transport errors can carry the provider access token in their URL.
		if exchangeErr.Code == "" {
			return errorJSON(c, fiber.StatusBadRequest, services.ErrExchangeFailed.Error())
		}
		return errorJSON(c, fiber.StatusBadRequest, exchangeErr.Code)
	case errors.Is(err, services.ErrCodeRequired),
		errors.Is(err, services.ErrCodeMissing),
		errors.Is(err, services.ErrPasswordMissing),
		errors.Is(err, services.ErrEmailNotVerified),
		errors.Is(err, services.ErrStateMismatch),
		errors.Is(err, services.ErrInvalidPlan),
		errors.Is(err, services.ErrInvalidBirthday),
		errors.Is(err, services.ErrActionRequired):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return errorJSON(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		return errorJSON(c, fiber.StatusNotFound, "User not found")
	}

	slog.Error("request failed", "action", action, "request_id", requestID(c), "error", err)
	return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
