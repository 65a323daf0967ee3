package errprocess

import (
	"errors"
	"fmt"

	"smart_cycle_market/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AppError error carrying the http status it should be answered with
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New create an AppError
func New(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Wrap create an AppError keeping cause for errors.Is / logging
func Wrap(code int, msg string, cause error) *AppError {
	return &AppError{Code: code, Message: msg, Err: cause}
}

// BadRequest 400
func BadRequest(msg string) *AppError { return New(fiber.StatusBadRequest, msg) }

// Unauthorized 401
func Unauthorized(msg string) *AppError { return New(fiber.StatusUnauthorized, msg) }

// Forbidden 403
func Forbidden(msg string) *AppError { return New(fiber.StatusForbidden, msg) }

// NotFound 404
func NotFound(msg string) *AppError { return New(fiber.StatusNotFound, msg) }

// Conflict 409
func Conflict(msg string) *AppError { return New(fiber.StatusConflict, msg) }

// Unprocessable 422
func Unprocessable(msg string) *AppError { return New(fiber.StatusUnprocessableEntity, msg) }

// Internal 500, cause is logged but never shown
func Internal(cause error) *AppError {
	return Wrap(fiber.StatusInternalServerError, "Something went wrong!", cause)
}

// HTTPStatus status code for err, 500 when unknown
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}

// PublicMessage message safe to return to the client
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Message
	}
	return "Something went wrong!"
}

// ErrorHandler fiber error handler answering {"message": ...}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := HTTPStatus(err)
	if code >= fiber.StatusInternalServerError {
		logger.Log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(code).JSON(fiber.Map{"message": PublicMessage(err)})
}
