package domain

import (
	"testing"
	"time"
)

func TestLoanIsOverdue(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		status  string
		dueDate time.Time
		want    bool
	}{
		{"active within period", LoanStatusActive, now.Add(24 * time.Hour), false},
		{"active past due", LoanStatusActive, now.Add(-time.Minute), true},
		{"already swept overdue", LoanStatusOverdue, now.Add(-24 * time.Hour), true},
		{"swept overdue regardless of due date", LoanStatusOverdue, now.Add(24 * time.Hour), true},
		{"returned never overdue", LoanStatusReturned, now.Add(-24 * time.Hour), false},
		{"legacy reserved bucket never overdue", LoanStatusReserved, now.Add(-24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := Loan{Status: tt.status, DueDate: tt.dueDate}
			if got := loan.IsOverdue(now); got != tt.want {
				t.Fatalf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReservationIsExpired(t *testing.T) {
	now := time.Now().UTC()

	res := Reservation{ExpiresAt: now.Add(time.Hour)}
	if res.IsExpired(now) {
		t.Fatal("expected reservation within its window")
	}
	res.ExpiresAt = now.Add(-time.Second)
	if !res.IsExpired(now) {
		t.Fatal("expected reservation past its window to be expired")
	}
	// The boundary instant itself is still inside the window.
	res.ExpiresAt = now
	if res.IsExpired(now) {
		t.Fatal("expected the exact expiry instant to still be valid")
	}
}
