package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	MessageSuccessGetPlans       = "consultation plans retrieved successfully"
	MessageSuccessPurchasePlan   = "plan purchase initiated successfully"
	MessageSuccessUpgradePlan    = "plan upgrade initiated successfully"
	MessageSuccessGetActivePlan  = "active package retrieved successfully"
	MessageSuccessPaymentConfirm = "payment confirmed successfully"

	MessageFailedGetPlans       = "failed to retrieve consultation plans"
	MessageFailedPurchasePlan   = "failed to purchase plan"
	MessageFailedUpgradePlan    = "failed to upgrade plan"
	MessageFailedGetActivePlan  = "failed to retrieve active package"
	MessageFailedPaymentConfirm = "failed to confirm payment"

	ErrUnknownPlan        = errors.New("unknown plan")
	ErrNoActivePackage    = errors.New("no active package")
	ErrPackageNotFound    = errors.New("package not found")
	ErrUpgradeNotAllowed  = errors.New("upgrade not allowed")
	ErrNotHigherTier      = errors.New("target plan is not a higher tier")
	ErrPackagePartlyUsed  = errors.New("package already has consultations used")
	ErrDuplicateReference = errors.New("payment reference already processed")
	ErrPaymentNotFound    = errors.New("payment record not found")
	ErrPaymentFailed      = errors.New("payment processing failed")
	ErrAmountMismatch     = errors.New("paid amount does not cover the order")
)

const (
	PackageValidity          = 365 * 24 * time.Hour
	RecurringPackageValidity = 30 * 24 * time.Hour

	// Duplicate webhook deliveries inside this window are dropped on the
	// redis fast path before the unique constraint is ever hit.
	PaymentDedupWindow = 5 * time.Minute
)

// PackageTier is the ordinal ranking used for upgrade eligibility.
type PackageTier int

const (
	TierUnknown PackageTier = iota
	TierStarter
	TierFamily
	TierWellness
)

const (
	PlanStarter  = "STARTER"
	PlanFamily   = "FAMILY"
	PlanWellness = "WELLNESS"
)

func TierOf(packageType string) PackageTier {
	switch packageType {
	case PlanStarter:
		return TierStarter
	case PlanFamily:
		return TierFamily
	case PlanWellness:
		return TierWellness
	default:
		return TierUnknown
	}
}

type (
	// Plan is one purchasable bundle. The catalog is built once at startup
	// and passed by reference; it is never mutated afterwards.
	Plan struct {
		ID            string  `yaml:"id" json:"id"`
		Type          string  `yaml:"type" json:"type"`
		Consultations int     `yaml:"consultations" json:"consultations"`
		PriceKsh      float64 `yaml:"price_ksh" json:"price_ksh"`
		IsShareable   bool    `yaml:"is_shareable" json:"is_shareable"`
		Recurring     bool    `yaml:"recurring" json:"recurring"`
	}

	PlanCatalog struct {
		Version string `yaml:"version" json:"version"`
		Plans   []Plan `yaml:"plans" json:"plans"`
	}
)

func (p Plan) Credits() int {
	return p.Consultations * CreditsPerConsultation
}

func (p Plan) PricePerConsultation() float64 {
	if p.Consultations == 0 {
		return 0
	}
	return p.PriceKsh / float64(p.Consultations)
}

func (p Plan) Tier() PackageTier {
	return TierOf(p.Type)
}

func (p Plan) Validity() time.Duration {
	if p.Recurring {
		return RecurringPackageValidity
	}
	return PackageValidity
}

func (c *PlanCatalog) ByID(id string) (Plan, error) {
	for _, p := range c.Plans {
		if p.ID == id {
			return p, nil
		}
	}
	return Plan{}, ErrUnknownPlan
}

func (c *PlanCatalog) Validate() error {
	if len(c.Plans) == 0 {
		return errors.New("plan catalog is empty")
	}
	seen := make(map[string]bool, len(c.Plans))
	for _, p := range c.Plans {
		if seen[p.ID] {
			return fmt.Errorf("duplicate plan id %q", p.ID)
		}
		seen[p.ID] = true
		if p.Tier() == TierUnknown {
			return fmt.Errorf("plan %q has unknown type %q", p.ID, p.Type)
		}
		if p.Consultations <= 0 {
			return fmt.Errorf("plan %q must include at least one consultation", p.ID)
		}
		if p.PriceKsh <= 0 {
			return fmt.Errorf("plan %q must have a positive price", p.ID)
		}
	}
	return nil
}

// DefaultPlanCatalog is used when config.yaml carries no plans section.
func DefaultPlanCatalog() *PlanCatalog {
	return &PlanCatalog{
		Version: "2024-01",
		Plans: []Plan{
			{ID: "starter", Type: PlanStarter, Consultations: 2, PriceKsh: 3000},
			{ID: "family", Type: PlanFamily, Consultations: 5, PriceKsh: 6500, IsShareable: true},
			{ID: "wellness", Type: PlanWellness, Consultations: 10, PriceKsh: 11000, IsShareable: true},
		},
	}
}

type (
	PurchasePlanRequest struct {
		PlanID string `json:"plan_id" validate:"required"`
		Email  string `json:"email" validate:"required,email"`
	}

	UpgradePlanRequest struct {
		TargetPlanID string `json:"target_plan_id" validate:"required"`
		Email        string `json:"email" validate:"required,email"`
	}

	CheckoutResponse struct {
		ReferenceID string  `json:"reference_id"`
		AmountKsh   float64 `json:"amount_ksh"`
		InvoiceURL  string  `json:"invoice_url"`
	}

	PackageResponse struct {
		ID                   string  `json:"id"`
		PackageType          string  `json:"package_type"`
		TotalCredits         int     `json:"total_credits"`
		CreditsUsed          int     `json:"credits_used"`
		CreditsRemaining     int     `json:"credits_remaining"`
		PriceKsh             float64 `json:"price_ksh"`
		PricePerConsultation float64 `json:"price_per_consultation"`
		IsShareable          bool    `json:"is_shareable"`
		Status               string  `json:"status"`
		PurchasedAt          string  `json:"purchased_at"`
		ValidUntil           string  `json:"valid_until"`
	}
)
