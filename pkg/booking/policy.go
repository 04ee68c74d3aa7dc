package booking

import (
	"time"

	"github.com/Hakheem/TibaPoint-sub001/domain"
)

// RefundPercent returns the refund tier for a cancellation happening
// timeUntilStart before the appointment.
func RefundPercent(timeUntilStart time.Duration) int {
	switch {
	case timeUntilStart >= domain.FullRefundThreshold:
		return 100
	case timeUntilStart >= domain.HalfRefundThreshold:
		return 50
	default:
		return 0
	}
}

// RefundCredits applies the tier to the charged credits, rounding down.
func RefundCredits(creditsCharged int, timeUntilStart time.Duration) int {
	return creditsCharged * RefundPercent(timeUntilStart) / 100
}
