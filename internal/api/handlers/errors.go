package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/polydebate/frontend/internal/api/middleware"
	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/polydebate/frontend/internal/services"
)

// ErrorBody mirrors the backend's error envelope, plus a retry hint for outages
type ErrorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Retry    bool   `json:"retry,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func errorJSON(c *fiber.Ctx, status int, body ErrorBody) error {
	return c.Status(status).JSON(fiber.Map{"error": body})
}

// classify maps an error to a status and body. Backend messages are passed
// through verbatim; transport failures become a retryable 502.
func classify(err error) (int, ErrorBody) {
	var (
		apiErr *polydebate.APIError
		valErr *polydebate.ValidationError
	)
	switch {
	case errors.As(err, &valErr):
		return fiber.StatusBadRequest, ErrorBody{Code: "validation_error", Message: valErr.Message}
	case errors.Is(err, polydebate.ErrNoToken):
		return fiber.StatusUnauthorized, ErrorBody{Code: "unauthenticated", Message: "Please sign in to continue", Redirect: middleware.LoginPath}
	case errors.Is(err, services.ErrWrongStep):
		return fiber.StatusConflict, ErrorBody{Code: "wrong_step", Message: "Request a verification code first"}
	case polydebate.IsUnreachable(err):
		return fiber.StatusBadGateway, ErrorBody{Code: "backend_unreachable", Message: err.Error(), Retry: true}
	case errors.As(err, &apiErr):
		code := apiErr.Code
		if code == "" {
			code = "backend_error"
		}
		return apiErr.Status, ErrorBody{Code: code, Message: apiErr.Message}
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, ErrorBody{Code: "timeout", Message: "The request timed out", Retry: true}
	}
	return fiber.StatusInternalServerError, ErrorBody{Code: "internal_error", Message: "Something went wrong"}
}

// respondError writes err as JSON, logging anything that is not the caller's fault
func respondError(c *fiber.Ctx, scope string, err error) error {
	status, body := classify(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("%s: %v", scope, err)
	}
	return errorJSON(c, status, body)
}
