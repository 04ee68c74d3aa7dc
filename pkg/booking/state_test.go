package booking

import (
	"testing"

	"github.com/Hakheem/TibaPoint-sub001/entities"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from, to entities.AppointmentStatus
	}{
		{entities.StatusScheduled, entities.StatusConfirmed},
		{entities.StatusScheduled, entities.StatusCancelled},
		{entities.StatusConfirmed, entities.StatusInProgress},
		{entities.StatusConfirmed, entities.StatusCancelled},
		{entities.StatusConfirmed, entities.StatusNoShow},
		{entities.StatusInProgress, entities.StatusCompleted},
		{entities.StatusInProgress, entities.StatusNoShow},
	}
	for _, tt := range allowed {
		if !CanTransition(tt.from, tt.to) {
			t.Errorf("transition %s -> %s should be allowed", tt.from, tt.to)
		}
	}

	denied := []struct {
		from, to entities.AppointmentStatus
	}{
		{entities.StatusScheduled, entities.StatusInProgress},
		{entities.StatusScheduled, entities.StatusCompleted},
		{entities.StatusScheduled, entities.StatusNoShow},
		{entities.StatusInProgress, entities.StatusCancelled},
		{entities.StatusCompleted, entities.StatusCancelled},
		{entities.StatusCancelled, entities.StatusScheduled},
		{entities.StatusNoShow, entities.StatusConfirmed},
		{entities.StatusCompleted, entities.StatusInProgress},
	}
	for _, tt := range denied {
		if CanTransition(tt.from, tt.to) {
			t.Errorf("transition %s -> %s should be rejected", tt.from, tt.to)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	terminal := []entities.AppointmentStatus{
		entities.StatusCompleted,
		entities.StatusCancelled,
		entities.StatusNoShow,
	}
	all := []entities.AppointmentStatus{
		entities.StatusScheduled,
		entities.StatusConfirmed,
		entities.StatusInProgress,
		entities.StatusCompleted,
		entities.StatusCancelled,
		entities.StatusNoShow,
	}
	for _, from := range terminal {
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal state %s must not transition to %s", from, to)
			}
		}
	}
}
