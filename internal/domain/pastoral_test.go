package domain

import "testing"

func TestAppointmentCanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		target string
		want   bool
	}{
		{"pending to confirmed", AppointmentStatusPending, AppointmentStatusConfirmed, true},
		{"pending to cancelled", AppointmentStatusPending, AppointmentStatusCancelled, true},
		{"pending cannot complete", AppointmentStatusPending, AppointmentStatusCompleted, false},
		{"confirmed to completed", AppointmentStatusConfirmed, AppointmentStatusCompleted, true},
		{"confirmed to cancelled", AppointmentStatusConfirmed, AppointmentStatusCancelled, true},
		{"confirmed cannot go back to pending", AppointmentStatusConfirmed, AppointmentStatusPending, false},
		{"completed is terminal", AppointmentStatusCompleted, AppointmentStatusCancelled, false},
		{"cancelled is terminal", AppointmentStatusCancelled, AppointmentStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appt := PastoralAppointment{Status: tt.from}
			if got := appt.CanTransitionTo(tt.target); got != tt.want {
				t.Fatalf("CanTransitionTo(%q) from %q = %v, want %v", tt.target, tt.from, got, tt.want)
			}
		})
	}
}
