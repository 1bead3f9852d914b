// Package scheduling orchestrates appointment lookups and cancellations on
// top of an EMR client. It owns the find-then-mutate sequence the upstream
// API does not enforce.
package scheduling

import (
	"context"
	"fmt"

	"github.com/aureliahealth/accuro-voice-adapter/internal/emr"
	"github.com/aureliahealth/accuro-voice-adapter/pkg/logging"
)

// Resolver resolves appointments by patient and date and applies
// cancellations with idempotency and not-found semantics.
type Resolver struct {
	client emr.Client
	logger *logging.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(client emr.Client, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		client: client,
		logger: logger.With("component", "scheduling"),
	}
}

// ResolveAndCancel finds the patient's appointment on the given calendar day
// and cancels it, returning the appointment ID.
//
// Returns emr.ErrNotFound when no appointment exists and
// emr.ErrAlreadyCancelled when the appointment is already in cancelled
// status. The status check reads a snapshot; an appointment cancelled by
// another actor between find and patch still patches "successfully" since
// the upstream offers no conflict detection.
func (r *Resolver) ResolveAndCancel(ctx context.Context, patientID, date string) (string, error) {
	appt, err := r.client.FindAppointment(ctx, patientID, date)
	if err != nil {
		return "", err
	}
	if appt == nil {
		return "", fmt.Errorf("no appointment for patient %s on %s: %w", patientID, date, emr.ErrNotFound)
	}
	if appt.Status == "cancelled" {
		return "", fmt.Errorf("appointment %s: %w", appt.ID, emr.ErrAlreadyCancelled)
	}

	if err := r.client.CancelAppointment(ctx, appt.ID); err != nil {
		return "", err
	}

	r.logger.Info("appointment cancelled",
		"appointment_id", appt.ID,
		"patient_id", patientID,
		"date", date,
	)
	return appt.ID, nil
}

// LookupPatient returns basic demographics for a patient.
func (r *Resolver) LookupPatient(ctx context.Context, patientID string) (*emr.Patient, error) {
	return r.client.GetPatient(ctx, patientID)
}

// FindAppointment returns the patient's appointment on the given day, or
// emr.ErrNotFound when none exists.
func (r *Resolver) FindAppointment(ctx context.Context, patientID, date string) (*emr.Appointment, error) {
	appt, err := r.client.FindAppointment(ctx, patientID, date)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, fmt.Errorf("no appointment for patient %s on %s: %w", patientID, date, emr.ErrNotFound)
	}
	return appt, nil
}
