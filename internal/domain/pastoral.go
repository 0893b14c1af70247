/**
 * @description
 * Pastoral scheduling models: availability slots published by the church
 * and appointment requests made by members against those slots.
 *
 * Appointment state machine:
 *   pending -> confirmed | cancelled
 *   confirmed -> completed | cancelled
 *   completed, cancelled are terminal.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	AppointmentStatusPending   = "pending"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCancelled = "cancelled"
	AppointmentStatusCompleted = "completed"
)

// PastoralSchedule is one bookable availability slot.
type PastoralSchedule struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	PastorName string    `json:"pastor_name"`
	SlotDate   time.Time `json:"slot_date"`
	StartTime  string    `json:"start_time"` // "HH:MM"
	EndTime    string    `json:"end_time"`
	Available  bool      `json:"available"`
	CreatedAt  time.Time `json:"created_at"`
}

// PastoralScheduleInput is the DTO for publishing a slot.
type PastoralScheduleInput struct {
	PastorName string    `json:"pastor_name"`
	SlotDate   time.Time `json:"slot_date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
}

// PastoralAppointment is a member's request for a published slot.
type PastoralAppointment struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
	MemberID   uuid.UUID `json:"member_id"`
	Subject    string    `json:"subject"`
	Notes      string    `json:"notes,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	MemberName string `json:"member_name,omitempty"`
	PastorName string `json:"pastor_name,omitempty"`
}

// CanTransitionTo reports whether the appointment may move to the target
// status from its current one.
func (a *PastoralAppointment) CanTransitionTo(target string) bool {
	switch a.Status {
	case AppointmentStatusPending:
		return target == AppointmentStatusConfirmed || target == AppointmentStatusCancelled
	case AppointmentStatusConfirmed:
		return target == AppointmentStatusCompleted || target == AppointmentStatusCancelled
	default:
		return false
	}
}

// RequestAppointmentInput is the DTO for requesting a slot.
type RequestAppointmentInput struct {
	ScheduleID uuid.UUID `json:"schedule_id"`
	MemberID   uuid.UUID `json:"member_id"`
	Subject    string    `json:"subject"`
	Notes      string    `json:"notes"`
}
