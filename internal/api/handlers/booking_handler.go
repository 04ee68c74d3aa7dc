package handlers

import (
	"strconv"

	"github.com/Hakheem/TibaPoint-sub001/domain"
	"github.com/Hakheem/TibaPoint-sub001/internal/api/presenters"
	"github.com/Hakheem/TibaPoint-sub001/pkg/booking"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	BookingHandler interface {
		CreateSlots(c *fiber.Ctx) error
		GetMySlots(c *fiber.Ctx) error
		GetDoctorSlots(c *fiber.Ctx) error

		Book(c *fiber.Ctx) error
		Reschedule(c *fiber.Ctx) error
		Cancel(c *fiber.Ctx) error
		Confirm(c *fiber.Ctx) error
		StartSession(c *fiber.Ctx) error
		Complete(c *fiber.Ctx) error
		MarkNoShow(c *fiber.Ctx) error

		GetPatientAppointments(c *fiber.Ctx) error
		GetDoctorAppointments(c *fiber.Ctx) error
	}

	bookingHandler struct {
		bookingService booking.BookingService
		validator      *validator.Validate
	}
)

func NewBookingHandler(bookingService booking.BookingService, validator *validator.Validate) BookingHandler {
	return &bookingHandler{
		bookingService: bookingService,
		validator:      validator,
	}
}

func (h *bookingHandler) CreateSlots(c *fiber.Ctx) error {
	doctorID := c.Locals("user_id").(string)

	req := new(domain.CreateSlotsRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateSlots, err)
	}

	slots, err := h.bookingService.CreateSlots(c.Context(), doctorID, *req)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedCreateSlots, err)
	}

	return presenters.SuccessResponse(c, slots, fiber.StatusCreated, domain.MessageSuccessCreateSlots)
}

func (h *bookingHandler) GetMySlots(c *fiber.Ctx) error {
	doctorID := c.Locals("user_id").(string)

	slots, err := h.bookingService.GetDoctorSlots(c.Context(), doctorID, false)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedGetSlots, err)
	}

	return presenters.SuccessResponse(c, slots, fiber.StatusOK, domain.MessageSuccessGetSlots)
}

// GetDoctorSlots lists a doctor's open slots for patients browsing availability.
func (h *bookingHandler) GetDoctorSlots(c *fiber.Ctx) error {
	doctorID := c.Params("doctor_id")

	slots, err := h.bookingService.GetDoctorSlots(c.Context(), doctorID, true)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedGetSlots, err)
	}

	return presenters.SuccessResponse(c, slots, fiber.StatusOK, domain.MessageSuccessGetSlots)
}

func (h *bookingHandler) Book(c *fiber.Ctx) error {
	patientID := c.Locals("user_id").(string)

	req := new(domain.BookAppointmentRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBookAppointment, err)
	}

	resp, err := h.bookingService.Book(c.Context(), patientID, *req)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedBookAppointment, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusCreated, domain.MessageSuccessBookAppointment)
}

func (h *bookingHandler) Reschedule(c *fiber.Ctx) error {
	patientID := c.Locals("user_id").(string)
	appointmentID := c.Params("id")

	req := new(domain.RescheduleRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedReschedule, err)
	}

	resp, err := h.bookingService.Reschedule(c.Context(), appointmentID, patientID, *req)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedReschedule, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessReschedule)
}

func (h *bookingHandler) Cancel(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	appointmentID := c.Params("id")

	req := new(domain.CancelAppointmentRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCancelAppointment, err)
	}

	resp, err := h.bookingService.Cancel(c.Context(), appointmentID, userID, *req)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedCancelAppointment, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessCancelAppointment)
}

func (h *bookingHandler) Confirm(c *fiber.Ctx) error {
	doctorID := c.Locals("user_id").(string)
	appointmentID := c.Params("id")

	resp, err := h.bookingService.Confirm(c.Context(), appointmentID, doctorID)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedConfirm, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessConfirm)
}

func (h *bookingHandler) StartSession(c *fiber.Ctx) error {
	doctorID := c.Locals("user_id").(string)
	appointmentID := c.Params("id")

	resp, err := h.bookingService.StartSession(c.Context(), appointmentID, doctorID)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedStartSession, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessStartSession)
}

func (h *bookingHandler) Complete(c *fiber.Ctx) error {
	doctorID := c.Locals("user_id").(string)
	appointmentID := c.Params("id")

	req := new(domain.CompleteAppointmentRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedComplete, err)
	}

	resp, err := h.bookingService.Complete(c.Context(), appointmentID, doctorID, *req)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedComplete, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessComplete)
}

func (h *bookingHandler) MarkNoShow(c *fiber.Ctx) error {
	doctorID := c.Locals("user_id").(string)
	appointmentID := c.Params("id")

	resp, err := h.bookingService.MarkNoShow(c.Context(), appointmentID, doctorID)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedMarkNoShow, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusOK, domain.MessageSuccessMarkNoShow)
}

func (h *bookingHandler) GetPatientAppointments(c *fiber.Ctx) error {
	patientID := c.Locals("user_id").(string)
	page, limit := pagination(c)

	appointments, count, err := h.bookingService.GetPatientAppointments(c.Context(), patientID, page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedGetAppointments, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"appointments": appointments,
		"pagination": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total":       count,
			"total_pages": (count + int64(limit) - 1) / int64(limit),
		},
	}, fiber.StatusOK, domain.MessageSuccessGetAppointments)
}

func (h *bookingHandler) GetDoctorAppointments(c *fiber.Ctx) error {
	doctorID := c.Locals("user_id").(string)
	page, limit := pagination(c)

	appointments, count, err := h.bookingService.GetDoctorAppointments(c.Context(), doctorID, page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedGetAppointments, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"appointments": appointments,
		"pagination": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total":       count,
			"total_pages": (count + int64(limit) - 1) / int64(limit),
		},
	}, fiber.StatusOK, domain.MessageSuccessGetAppointments)
}

func pagination(c *fiber.Ctx) (int, int) {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	return page, limit
}
