package domain

import (
	"testing"
	"time"
)

func TestDefaultPlanCatalogIsValid(t *testing.T) {
	catalog := DefaultPlanCatalog()
	if err := catalog.Validate(); err != nil {
		t.Fatalf("default catalog must validate: %v", err)
	}
	if len(catalog.Plans) != 3 {
		t.Errorf("expected 3 plans, got %d", len(catalog.Plans))
	}
}

func TestPlanCredits(t *testing.T) {
	catalog := DefaultPlanCatalog()
	tests := []struct {
		planID string
		want   int
	}{
		{"starter", 4},
		{"family", 10},
		{"wellness", 20},
	}
	for _, tt := range tests {
		p, err := catalog.ByID(tt.planID)
		if err != nil {
			t.Fatalf("ByID(%q) returned error: %v", tt.planID, err)
		}
		if got := p.Credits(); got != tt.want {
			t.Errorf("%s credits = %d, want %d", tt.planID, got, tt.want)
		}
	}
}

func TestPlanPricePerConsultation(t *testing.T) {
	catalog := DefaultPlanCatalog()
	p, _ := catalog.ByID("family")
	if got := p.PricePerConsultation(); got != 1300 {
		t.Errorf("family price per consultation = %v, want 1300", got)
	}
	zero := Plan{Consultations: 0, PriceKsh: 1000}
	if got := zero.PricePerConsultation(); got != 0 {
		t.Errorf("zero consultations must price at 0, got %v", got)
	}
}

func TestTierOrdering(t *testing.T) {
	if !(TierOf(PlanStarter) < TierOf(PlanFamily) && TierOf(PlanFamily) < TierOf(PlanWellness)) {
		t.Errorf("tier ordering broken: starter=%d family=%d wellness=%d",
			TierOf(PlanStarter), TierOf(PlanFamily), TierOf(PlanWellness))
	}
	if TierOf("PLATINUM") != TierUnknown {
		t.Errorf("unknown plan types must map to TierUnknown")
	}
}

func TestPlanValidity(t *testing.T) {
	oneOff := Plan{Recurring: false}
	if oneOff.Validity() != 365*24*time.Hour {
		t.Errorf("one-off plan validity = %v, want 1 year", oneOff.Validity())
	}
	recurring := Plan{Recurring: true}
	if recurring.Validity() != 30*24*time.Hour {
		t.Errorf("recurring plan validity = %v, want 30 days", recurring.Validity())
	}
}

func TestCatalogValidateRejectsBadPlans(t *testing.T) {
	tests := []struct {
		name    string
		catalog PlanCatalog
	}{
		{"empty", PlanCatalog{}},
		{"duplicate id", PlanCatalog{Plans: []Plan{
			{ID: "a", Type: PlanStarter, Consultations: 1, PriceKsh: 100},
			{ID: "a", Type: PlanFamily, Consultations: 1, PriceKsh: 100},
		}}},
		{"unknown type", PlanCatalog{Plans: []Plan{
			{ID: "a", Type: "GOLD", Consultations: 1, PriceKsh: 100},
		}}},
		{"no consultations", PlanCatalog{Plans: []Plan{
			{ID: "a", Type: PlanStarter, Consultations: 0, PriceKsh: 100},
		}}},
		{"free plan", PlanCatalog{Plans: []Plan{
			{ID: "a", Type: PlanStarter, Consultations: 1, PriceKsh: 0},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.catalog.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
