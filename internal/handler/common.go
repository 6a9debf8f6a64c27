package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/peergrade-api/internal/service"
	"github.com/noah-isme/peergrade-api/internal/utils"
)

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || value == 0 {
		return 0, errors.New("invalid id parameter")
	}
	return uint(value), nil
}

// handleError maps workflow errors onto HTTP statuses. Unknown errors are
// surfaced as 500 without leaking their message.
func handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrLocked):
		return utils.SendError(c, fiber.StatusLocked, err.Error())
	case errors.Is(err, service.ErrAssignmentInProgress),
		errors.Is(err, service.ErrNotCompleted):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidScore),
		errors.Is(err, service.ErrMissingComment),
		errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrInvalidResponse):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
