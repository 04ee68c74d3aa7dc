package handlers

import (
	"github.com/Hakheem/TibaPoint-sub001/domain"
	"github.com/Hakheem/TibaPoint-sub001/internal/api/presenters"
	"github.com/Hakheem/TibaPoint-sub001/pkg/plan"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	PlanHandler interface {
		GetPlans(c *fiber.Ctx) error
		GetActivePackage(c *fiber.Ctx) error
		GetMyPackages(c *fiber.Ctx) error
		Purchase(c *fiber.Ctx) error
		Upgrade(c *fiber.Ctx) error
	}

	planHandler struct {
		planService plan.PlanService
		validator   *validator.Validate
	}
)

func NewPlanHandler(planService plan.PlanService, validator *validator.Validate) PlanHandler {
	return &planHandler{
		planService: planService,
		validator:   validator,
	}
}

func (h *planHandler) GetPlans(c *fiber.Ctx) error {
	catalog := h.planService.GetPlans(c.Context())
	return presenters.SuccessResponse(c, catalog, fiber.StatusOK, domain.MessageSuccessGetPlans)
}

func (h *planHandler) GetActivePackage(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	pkg, err := h.planService.GetActive(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedGetActivePlan, err)
	}

	return presenters.SuccessResponse(c, pkg, fiber.StatusOK, domain.MessageSuccessGetActivePlan)
}

func (h *planHandler) GetMyPackages(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	packages, err := h.planService.GetUserPackages(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedGetActivePlan, err)
	}

	return presenters.SuccessResponse(c, packages, fiber.StatusOK, domain.MessageSuccessGetActivePlan)
}

func (h *planHandler) Purchase(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := new(domain.PurchasePlanRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedPurchasePlan, err)
	}

	resp, err := h.planService.Purchase(c.Context(), userID, *req)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedPurchasePlan, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusCreated, domain.MessageSuccessPurchasePlan)
}

func (h *planHandler) Upgrade(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := new(domain.UpgradePlanRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpgradePlan, err)
	}

	resp, err := h.planService.Upgrade(c.Context(), userID, *req)
	if err != nil {
		return presenters.ErrorResponse(c, presenters.ErrorStatus(err), domain.MessageFailedUpgradePlan, err)
	}

	return presenters.SuccessResponse(c, resp, fiber.StatusCreated, domain.MessageSuccessUpgradePlan)
}
