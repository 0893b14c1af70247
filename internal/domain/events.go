/**
 * @description
 * Payloads published to the message broker so the notification pipeline
 * can fan out emails and in-app messages. Routing keys follow the
 * "<area>.<entity>.<action>" convention on a durable topic exchange.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Exchange is the topic exchange all service events are published to.
const Exchange = "church.events"

// Routing keys.
const (
	RoutingReservationCreated   = "library.reservation.created"
	RoutingReservationExpired   = "library.reservation.expired"
	RoutingLoanCreated          = "library.loan.created"
	RoutingLoanOverdue          = "library.loan.overdue"
	RoutingLoanReturned         = "library.loan.returned"
	RoutingAppointmentRequested = "pastoral.appointment.requested"
	RoutingAppointmentUpdated   = "pastoral.appointment.updated"
	RoutingUserProvisioned      = "accounts.user.provisioned"
)

// CirculationEvent describes a reservation or loan transition.
type CirculationEvent struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	BookID     uuid.UUID `json:"book_id"`
	MemberID   uuid.UUID `json:"member_id"`
	SubjectID  uuid.UUID `json:"subject_id"` // reservation or loan id
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AppointmentEvent describes a pastoral appointment transition.
type AppointmentEvent struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	MemberID      uuid.UUID `json:"member_id"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// UserProvisionedEvent is published after the provisioning flow commits.
type UserProvisionedEvent struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	OccurredAt time.Time `json:"occurred_at"`
}
