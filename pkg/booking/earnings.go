package booking

import (
	"github.com/Hakheem/TibaPoint-sub001/domain"
	"github.com/Hakheem/TibaPoint-sub001/entities"
)

// SplitEarnings computes the revenue split recorded at completion. This is
// informational accounting for later payout requests; it never moves credits.
// A welcome-bonus consultation is absorbed by the platform, so both shares
// are zero.
func SplitEarnings(appointment *entities.Appointment) (doctorEarnings, platformEarnings float64) {
	if appointment.FundingPackageID == nil {
		return 0, 0
	}
	platformEarnings = appointment.PackagePrice * domain.PlatformSharePercent
	doctorEarnings = appointment.PackagePrice * domain.DoctorSharePercent
	return doctorEarnings, platformEarnings
}
