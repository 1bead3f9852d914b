// Package demo provides a simulated scheduling backend for booking and
// rescheduling, which the live Accuro integration does not support yet. It
// lets voice flows be exercised end to end without touching the EMR.
package demo

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aureliahealth/accuro-voice-adapter/internal/emr"
)

// Simulator answers booking and reschedule requests from canned data.
// It keeps no state; every confirmation is fresh.
type Simulator struct{}

// NewSimulator creates a new Simulator.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// Confirmation is the outcome of a simulated booking.
type Confirmation struct {
	ConfirmationCode string
	AppointmentTime  time.Time
}

// Book pretends to book the requested start time and returns a confirmation
// code the assistant can read back to the caller.
func (s *Simulator) Book(patientID string, start time.Time) Confirmation {
	return Confirmation{
		ConfirmationCode: confirmationCode(),
		AppointmentTime:  start,
	}
}

// Reschedule pretends to move an appointment to the new start time.
func (s *Simulator) Reschedule(appointmentID string, newStart time.Time) Confirmation {
	return Confirmation{
		ConfirmationCode: confirmationCode(),
		AppointmentTime:  newStart,
	}
}

// Availability returns three half-hour slots on the requested day, starting
// at 9am clinic time. Purely display data for the voice flow.
func (s *Simulator) Availability(date time.Time) []emr.AvailabilitySlot {
	day := time.Date(date.Year(), date.Month(), date.Day(), 9, 0, 0, 0, date.Location())
	slots := make([]emr.AvailabilitySlot, 0, 3)
	for i := 0; i < 3; i++ {
		start := day.Add(time.Duration(i) * time.Hour)
		slots = append(slots, emr.AvailabilitySlot{
			Start: start,
			End:   start.Add(30 * time.Minute),
		})
	}
	return slots
}

// confirmationCode returns a short, speakable uppercase code.
func confirmationCode() string {
	id := strings.ToUpper(uuid.NewString())
	return "SIM-" + id[:8]
}
