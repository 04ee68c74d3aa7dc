package booking

import (
	"testing"
	"time"
)

func TestRefundPercent(t *testing.T) {
	tests := []struct {
		name           string
		timeUntilStart time.Duration
		want           int
	}{
		{"well before", 30 * time.Hour, 100},
		{"exactly 24h", 24 * time.Hour, 100},
		{"between 12h and 24h", 18 * time.Hour, 50},
		{"exactly 12h", 12 * time.Hour, 50},
		{"inside 12h", 5 * time.Hour, 0},
		{"one minute before", time.Minute, 0},
		{"already started", -time.Hour, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RefundPercent(tt.timeUntilStart); got != tt.want {
				t.Errorf("RefundPercent(%v) = %d, want %d", tt.timeUntilStart, got, tt.want)
			}
		})
	}
}

func TestRefundCredits(t *testing.T) {
	if got := RefundCredits(2, 30*time.Hour); got != 2 {
		t.Errorf("full refund of 2 credits = %d, want 2", got)
	}
	if got := RefundCredits(2, 18*time.Hour); got != 1 {
		t.Errorf("half refund of 2 credits = %d, want 1", got)
	}
	if got := RefundCredits(2, 5*time.Hour); got != 0 {
		t.Errorf("late refund of 2 credits = %d, want 0", got)
	}
}
