package booking

import (
	"math"
	"testing"

	"github.com/Hakheem/TibaPoint-sub001/entities"
	"github.com/google/uuid"
)

func TestSplitEarningsPackageFunded(t *testing.T) {
	pkgID := uuid.New()
	appointment := &entities.Appointment{
		FundingPackageID: &pkgID,
		PackagePrice:     1300,
	}

	doctor, platform := SplitEarnings(appointment)

	if math.Abs(doctor-1144) > 1e-9 {
		t.Errorf("doctor earnings = %v, want 1144", doctor)
	}
	if math.Abs(platform-156) > 1e-9 {
		t.Errorf("platform earnings = %v, want 156", platform)
	}
	if math.Abs((doctor+platform)-appointment.PackagePrice) > 1e-9 {
		t.Errorf("split %v + %v does not add up to the package price %v", doctor, platform, appointment.PackagePrice)
	}
}

func TestSplitEarningsWelcomeBonusFunded(t *testing.T) {
	appointment := &entities.Appointment{
		FundingPackageID: nil,
		PackagePrice:     0,
	}

	doctor, platform := SplitEarnings(appointment)
	if doctor != 0 || platform != 0 {
		t.Errorf("welcome bonus consultation must pay nothing, got doctor=%v platform=%v", doctor, platform)
	}
}
