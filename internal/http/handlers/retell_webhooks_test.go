package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aureliahealth/accuro-voice-adapter/internal/demo"
	"github.com/aureliahealth/accuro-voice-adapter/internal/emr"
	"github.com/aureliahealth/accuro-voice-adapter/internal/scheduling"
	"github.com/aureliahealth/accuro-voice-adapter/pkg/logging"
)

// stubEMR serves canned results to the resolver.
type stubEMR struct {
	patient     *emr.Patient
	patientErr  error
	appointment *emr.Appointment
	findErr     error
	cancelErr   error

	cancelCalls int
}

func (s *stubEMR) GetPatient(_ context.Context, _ string) (*emr.Patient, error) {
	return s.patient, s.patientErr
}

func (s *stubEMR) GetAppointment(_ context.Context, _ string) (*emr.Appointment, error) {
	return s.appointment, s.findErr
}

func (s *stubEMR) FindAppointment(_ context.Context, _, _ string) (*emr.Appointment, error) {
	return s.appointment, s.findErr
}

func (s *stubEMR) CancelAppointment(_ context.Context, _ string) error {
	s.cancelCalls++
	return s.cancelErr
}

func newHandler(stub *stubEMR, simulator *demo.Simulator) *RetellWebhookHandler {
	return NewRetellWebhookHandler(RetellWebhookConfig{
		Resolver:  scheduling.NewResolver(stub, logging.New("error")),
		Simulator: simulator,
		Logger:    logging.New("error"),
	})
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHandleCancel(t *testing.T) {
	stub := &stubEMR{
		appointment: &emr.Appointment{ID: "appt-123", Status: "booked"},
	}
	h := newHandler(stub, nil)

	w := postJSON(t, h.HandleCancel, "/webhook/cancel", `{"patient_id":"99","date":"2025-08-15"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp CancelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cancelled", resp.Message)
	assert.Equal(t, "appt-123", resp.AppointmentID)
	assert.Equal(t, 1, stub.cancelCalls)
}

func TestHandleCancelNotFound(t *testing.T) {
	h := newHandler(&stubEMR{appointment: nil}, nil)

	w := postJSON(t, h.HandleCancel, "/webhook/cancel", `{"patient_id":"99","date":"2025-08-15"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleCancelAlreadyCancelled(t *testing.T) {
	stub := &stubEMR{
		appointment: &emr.Appointment{ID: "appt-123", Status: "cancelled"},
	}
	h := newHandler(stub, nil)

	w := postJSON(t, h.HandleCancel, "/webhook/cancel", `{"patient_id":"99","date":"2025-08-15"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, stub.cancelCalls)
}

func TestHandleCancelValidation(t *testing.T) {
	h := newHandler(&stubEMR{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing patient", `{"date":"2025-08-15"}`},
		{"missing date", `{"patient_id":"99"}`},
		{"bad date format", `{"patient_id":"99","date":"15/08/2025"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h.HandleCancel, "/webhook/cancel", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}
}

func TestHandleCancelInvalidJSON(t *testing.T) {
	h := newHandler(&stubEMR{}, nil)

	w := postJSON(t, h.HandleCancel, "/webhook/cancel", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCancelUpstreamFailures(t *testing.T) {
	tests := []struct {
		name       string
		findErr    error
		wantStatus int
	}{
		{"auth failure", &emr.AuthError{Status: 401}, http.StatusBadGateway},
		{"upstream error", &emr.UpstreamError{Status: 500}, http.StatusBadGateway},
		{"timeout", &emr.UpstreamError{Timeout: true}, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(&stubEMR{findErr: tt.findErr}, nil)
			w := postJSON(t, h.HandleCancel, "/webhook/cancel", `{"patient_id":"99","date":"2025-08-15"}`)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandlePatient(t *testing.T) {
	stub := &stubEMR{
		patient: &emr.Patient{
			ID:          "42",
			GivenName:   "Marie",
			FamilyName:  "Tremblay",
			DateOfBirth: "1984-03-22",
			HealthCard:  "4321-567-890",
		},
	}
	h := newHandler(stub, nil)

	w := postJSON(t, h.HandlePatient, "/webhook/patient", `{"patient_id":"42"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp PatientResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Marie", resp.GivenName)
	assert.Equal(t, "Tremblay", resp.FamilyName)
	assert.Equal(t, "4321-567-890", resp.HealthCard)
}

func TestHandleFind(t *testing.T) {
	start := time.Date(2025, 8, 15, 14, 0, 0, 0, time.UTC)
	stub := &stubEMR{
		appointment: &emr.Appointment{
			ID:        "appt-123",
			PatientID: "99",
			Start:     start,
			End:       start.Add(30 * time.Minute),
			Status:    "booked",
		},
	}
	h := newHandler(stub, nil)

	w := postJSON(t, h.HandleFind, "/webhook/appointment/find", `{"patient_id":"99","date":"2025-08-15"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp AppointmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "appt-123", resp.ID)
	assert.Equal(t, "booked", resp.Status)
	assert.Equal(t, "2025-08-15T14:00:00Z", resp.Start)
}

func TestHandleFindOmitsZeroTimes(t *testing.T) {
	stub := &stubEMR{
		appointment: &emr.Appointment{ID: "appt-123", Status: "booked"},
	}
	h := newHandler(stub, nil)

	w := postJSON(t, h.HandleFind, "/webhook/appointment/find", `{"patient_id":"99","date":"2025-08-15"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"start"`)
}

func TestHandleBookNotImplemented(t *testing.T) {
	h := newHandler(&stubEMR{}, nil)

	w := postJSON(t, h.HandleBook, "/webhook/book", `{"patient_id":"99","start":"2025-08-15T14:00:00Z"}`)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestHandleBookSimulated(t *testing.T) {
	h := newHandler(&stubEMR{}, demo.NewSimulator())

	w := postJSON(t, h.HandleBook, "/webhook/book", `{"patient_id":"99","start":"2025-08-15T14:00:00Z"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.ConfirmationCode, "SIM-"))
	assert.Equal(t, "2025-08-15T14:00:00Z", resp.AppointmentTime)
}

func TestHandleRescheduleSimulated(t *testing.T) {
	h := newHandler(&stubEMR{}, demo.NewSimulator())

	w := postJSON(t, h.HandleReschedule, "/webhook/reschedule", `{"appointment_id":"appt-123","new_start":"2025-08-16T10:00:00Z"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp RescheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2025-08-16T10:00:00Z", resp.NewTime)
}

func TestHandleAvailabilitySimulated(t *testing.T) {
	h := newHandler(&stubEMR{}, demo.NewSimulator())

	w := postJSON(t, h.HandleAvailability, "/webhook/availability", `{"date":"2025-08-15"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Slots, 3)
	assert.Equal(t, "2025-08-15T09:00:00Z", resp.Slots[0].Start)
}
