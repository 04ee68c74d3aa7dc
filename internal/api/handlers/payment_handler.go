package handlers

import (
	"errors"

	"github.com/Hakheem/TibaPoint-sub001/domain"
	"github.com/Hakheem/TibaPoint-sub001/internal/api/presenters"
	"github.com/Hakheem/TibaPoint-sub001/pkg/payment"
	"github.com/Hakheem/TibaPoint-sub001/pkg/plan"
	"github.com/gofiber/fiber/v2"
)

type (
	PaymentHandler interface {
		MidtransWebhookHandler(c *fiber.Ctx) error
	}

	paymentHandler struct {
		paymentService payment.PaymentService
		planService    plan.PlanService
	}
)

func NewPaymentHandler(paymentService payment.PaymentService, planService plan.PlanService) PaymentHandler {
	return &paymentHandler{
		paymentService: paymentService,
		planService:    planService,
	}
}

// MidtransWebhookHandler consumes gateway notifications. The payload is never
// trusted: the order is re-checked against the gateway before any credits move.
// Midtrans retries on non-2xx, so an already processed reference answers 200.
func (h *paymentHandler) MidtransWebhookHandler(c *fiber.Ctx) error {
	var payload struct {
		OrderID string `json:"order_id"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if payload.OrderID == "" {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, errors.New("order_id is required"))
	}

	confirmed, amount, err := h.paymentService.CheckStatus(c.Context(), payload.OrderID)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadGateway, domain.MessageFailedPaymentConfirm, err)
	}
	if !confirmed {
		return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessPaymentConfirm)
	}

	if err := h.planService.OnPaymentConfirmed(c.Context(), payload.OrderID, amount); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessPaymentConfirm)
		}
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedPaymentConfirm, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessPaymentConfirm)
}
