package booking

import (
	"github.com/Hakheem/TibaPoint-sub001/entities"
)

// allowedTransitions is the complete appointment state machine. COMPLETED,
// CANCELLED and NO_SHOW are terminal.
var allowedTransitions = map[entities.AppointmentStatus][]entities.AppointmentStatus{
	entities.StatusScheduled:  {entities.StatusConfirmed, entities.StatusCancelled},
	entities.StatusConfirmed:  {entities.StatusInProgress, entities.StatusCancelled, entities.StatusNoShow},
	entities.StatusInProgress: {entities.StatusCompleted, entities.StatusNoShow},
}

func CanTransition(from, to entities.AppointmentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
