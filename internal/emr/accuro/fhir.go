package accuro

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/aureliahealth/accuro-voice-adapter/internal/emr"
)

// Wire models for the Accuro resource API (FHIR-shaped JSON). Only the
// fields the voice flow reads are declared; everything else is ignored.

type fhirBundle struct {
	Entry []struct {
		Resource json.RawMessage `json:"resource"`
	} `json:"entry"`
}

type fhirPatient struct {
	ID         string           `json:"id"`
	Name       []fhirHumanName  `json:"name"`
	BirthDate  string           `json:"birthDate"`
	Identifier []fhirIdentifier `json:"identifier"`
}

type fhirHumanName struct {
	Family string   `json:"family"`
	Given  []string `json:"given"`
}

type fhirIdentifier struct {
	Value string `json:"value"`
}

type fhirAppointment struct {
	ID      string         `json:"id"`
	Status  string         `json:"status"`
	Start   string         `json:"start"`
	End     string         `json:"end"`
	Subject *fhirReference `json:"subject"`
}

type fhirReference struct {
	Reference string `json:"reference"` // e.g. "Patient/123"
}

// parsePatient flattens the first entries of the name/identifier arrays into
// the adapter's Patient shape. Missing arrays or elements degrade to empty
// strings, never an error. When the payload carries no id, the requested one
// is echoed back.
func parsePatient(payload fhirPatient, requestedID string) *emr.Patient {
	patient := &emr.Patient{
		ID:          payload.ID,
		DateOfBirth: payload.BirthDate,
	}
	if patient.ID == "" {
		patient.ID = requestedID
	}

	if len(payload.Name) > 0 {
		name := payload.Name[0]
		patient.FamilyName = name.Family
		if len(name.Given) > 0 {
			patient.GivenName = name.Given[0]
		}
	}
	if len(payload.Identifier) > 0 {
		patient.HealthCard = payload.Identifier[0].Value
	}

	return patient
}

// parseAppointment converts a wire appointment into the adapter shape.
// Unparseable timestamps are left at their zero value. fallbackPatientID is
// used when the resource carries no subject reference (search bundles omit
// it since the query was already scoped to the patient).
func parseAppointment(payload fhirAppointment, fallbackPatientID string) *emr.Appointment {
	appt := &emr.Appointment{
		ID:        payload.ID,
		PatientID: fallbackPatientID,
		Status:    payload.Status,
	}

	if payload.Subject != nil && payload.Subject.Reference != "" {
		appt.PatientID = extractIDFromReference(payload.Subject.Reference)
	}

	if start, err := time.Parse(time.RFC3339, payload.Start); err == nil {
		appt.Start = start
	}
	if end, err := time.Parse(time.RFC3339, payload.End); err == nil {
		appt.End = end
	}

	return appt
}

// extractIDFromReference turns a reference like "Patient/123" into "123".
func extractIDFromReference(reference string) string {
	if idx := strings.LastIndex(reference, "/"); idx >= 0 {
		return reference[idx+1:]
	}
	return reference
}
