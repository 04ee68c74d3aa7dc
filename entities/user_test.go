package entities

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"PATIENT", RolePatient},
		{"DOCTOR", RoleDoctor},
		{"ADMIN", RoleAdmin},
		{"", RoleUnassigned},
		{"patient", RoleUnassigned},
		{"SUPERUSER", RoleUnassigned},
	}
	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
