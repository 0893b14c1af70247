/**
 * @description
 * Circulation models: reservations (temporary holds on a copy) and loans
 * (a copy checked out to a member). These are the core state machines of
 * the library subsystem.
 *
 * State machines:
 *   Reservation: active -> converted | cancelled | expired (terminal)
 *   Loan:        active -> overdue (time-based, applied by the sweep)
 *                active|overdue -> returned (terminal)
 *                any non-returned loan may be cancelled (hard delete)
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reservation statuses.
const (
	ReservationStatusActive    = "active"
	ReservationStatusExpired   = "expired"
	ReservationStatusConverted = "converted"
	ReservationStatusCancelled = "cancelled"
)

// Loan statuses. 'reserved' is a legacy display bucket carried over from
// the legacy data set; the conversion flow never produces it.
const (
	LoanStatusActive   = "active"
	LoanStatusOverdue  = "overdue"
	LoanStatusReturned = "returned"
	LoanStatusReserved = "reserved"
)

// Reservation is a hold that keeps one copy of a book out of the
// available pool until it expires, is cancelled, or is converted into a
// loan by an administrator.
type Reservation struct {
	ID              uuid.UUID `json:"id"`
	TenantID        uuid.UUID `json:"tenant_id"`
	BookID          uuid.UUID `json:"book_id"`
	MemberID        uuid.UUID `json:"member_id"`
	ReservationDate time.Time `json:"reservation_date"`
	ExpiresAt       time.Time `json:"expires_at"`
	Status          string    `json:"status"`

	// Display fields joined from books/members for listings.
	BookTitle  string `json:"book_title,omitempty"`
	MemberName string `json:"member_name,omitempty"`
}

// IsExpired reports whether the hold window has passed at the given instant.
func (r *Reservation) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Loan records a copy checked out to a member.
type Loan struct {
	ID         uuid.UUID  `json:"id"`
	TenantID   uuid.UUID  `json:"tenant_id"`
	BookID     uuid.UUID  `json:"book_id"`
	MemberID   uuid.UUID  `json:"member_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Status     string     `json:"status"`

	BookTitle  string `json:"book_title,omitempty"`
	MemberName string `json:"member_name,omitempty"`
}

// IsOverdue reports whether the loan should be treated as overdue at the
// given instant. The stored status lags until the sweep runs, so list
// endpoints derive this instead of trusting the column alone.
func (l *Loan) IsOverdue(now time.Time) bool {
	if l.Status == LoanStatusOverdue {
		return true
	}
	return l.Status == LoanStatusActive && now.After(l.DueDate)
}

// ReservationListing groups reservations for administrative review.
type ReservationListing struct {
	Active []Reservation `json:"active"`
	Other  []Reservation `json:"other"`
}

// CreateReservationRequest is the DTO for placing a hold.
type CreateReservationRequest struct {
	BookID   uuid.UUID `json:"book_id"`
	MemberID uuid.UUID `json:"member_id"`
}

// ConvertReservationRequest is the DTO for converting a hold into a loan.
type ConvertReservationRequest struct {
	DueDate time.Time `json:"due_date"`
}

// CreateLoanRequest is the DTO for a direct loan that bypasses the
// reservation flow. A zero DueDate means "use the configured loan period".
type CreateLoanRequest struct {
	BookID   uuid.UUID `json:"book_id"`
	MemberID uuid.UUID `json:"member_id"`
	DueDate  time.Time `json:"due_date"`
}
