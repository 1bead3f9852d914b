package emr

import (
	"context"
	"time"
)

// Client defines the interface that EMR integrations implement. The voice
// webhook layer and the scheduling resolver only ever talk to this interface,
// never to a concrete vendor client.
type Client interface {
	// GetPatient retrieves basic demographics for a patient by ID
	GetPatient(ctx context.Context, patientID string) (*Patient, error)

	// GetAppointment retrieves an appointment by ID
	GetAppointment(ctx context.Context, appointmentID string) (*Appointment, error)

	// FindAppointment returns the first appointment for a patient on the
	// given calendar day, or nil when none exists
	FindAppointment(ctx context.Context, patientID string, date string) (*Appointment, error)

	// CancelAppointment marks an appointment as cancelled in the EMR
	CancelAppointment(ctx context.Context, appointmentID string) error
}

// Patient is a read-only projection of an upstream patient record. Fields
// the upstream omits degrade to empty strings rather than errors.
type Patient struct {
	ID          string // EMR-specific patient identifier
	GivenName   string // First given name
	FamilyName  string // Family name
	DateOfBirth string // YYYY-MM-DD, empty when not on file
	HealthCard  string // Provincial health card number, empty when not on file
}

// Appointment is a point-in-time snapshot of an upstream appointment. It may
// be stale by the time a mutation is applied; the upstream exposes no
// optimistic-concurrency token.
type Appointment struct {
	ID        string    // EMR-specific appointment identifier
	PatientID string    // Patient identifier (weak reference)
	Start     time.Time // Zero when the upstream omits it
	End       time.Time // Zero when the upstream omits it
	Status    string    // Upstream status string, e.g. "booked", "cancelled"
}

// AvailabilitySlot is a free slot offered to the caller. Purely transient
// display data with no identity.
type AvailabilitySlot struct {
	Start time.Time
	End   time.Time
}
