package presenters

import (
	"errors"

	"github.com/Hakheem/TibaPoint-sub001/domain"
	"github.com/gofiber/fiber/v2"
)

func SuccessResponse(c *fiber.Ctx, data any, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status":  true,
		"message": message,
		"data":    data,
	})
}

func ErrorResponse(c *fiber.Ctx, status int, message string, err error) error {
	resp := fiber.Map{
		"status":  false,
		"message": message,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	return c.Status(status).JSON(resp)
}

// ErrorStatus maps engine errors onto stable HTTP codes: conflicts for lost
// races and duplicate confirmations, 404 for missing records, 400 otherwise.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrSlotUnavailable),
		errors.Is(err, domain.ErrDuplicateReference),
		errors.Is(err, domain.ErrAlreadyCancelled):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrSlotNotFound),
		errors.Is(err, domain.ErrAppointmentNotFound),
		errors.Is(err, domain.ErrPackageNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNotificationNotFound),
		errors.Is(err, domain.ErrNoActivePackage):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrNotParticipant),
		errors.Is(err, domain.ErrUserNotAllowed):
		return fiber.StatusForbidden
	default:
		return fiber.StatusBadRequest
	}
}
