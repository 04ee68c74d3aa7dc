package handlers

import (
	"strconv"

	"github.com/Hakheem/TibaPoint-sub001/domain"
	"github.com/Hakheem/TibaPoint-sub001/internal/api/presenters"
	"github.com/Hakheem/TibaPoint-sub001/pkg/ledger"
	"github.com/gofiber/fiber/v2"
)

type (
	CreditHandler interface {
		GetBalance(c *fiber.Ctx) error
		GetHistory(c *fiber.Ctx) error
		CheckCredits(c *fiber.Ctx) error
	}

	creditHandler struct {
		ledgerService ledger.LedgerService
	}
)

func NewCreditHandler(ledgerService ledger.LedgerService) CreditHandler {
	return &creditHandler{
		ledgerService: ledgerService,
	}
}

func (h *creditHandler) GetBalance(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	balance, err := h.ledgerService.GetBalance(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedGetBalance, err)
	}

	return presenters.SuccessResponse(c, balance, fiber.StatusOK, domain.MessageSuccessGetBalance)
}

func (h *creditHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	transactions, count, err := h.ledgerService.GetHistory(c.Context(), userID, page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedGetCreditHistory, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"transactions": transactions,
		"pagination": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total":       count,
			"total_pages": (count + int64(limit) - 1) / int64(limit),
		},
	}, fiber.StatusOK, domain.MessageSuccessGetCreditHistory)
}

func (h *creditHandler) CheckCredits(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	availability, err := h.ledgerService.CheckCreditsAvailable(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedCheckCredits, err)
	}

	return presenters.SuccessResponse(c, availability, fiber.StatusOK, domain.MessageSuccessCheckCredits)
}
