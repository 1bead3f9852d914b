package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aureliahealth/accuro-voice-adapter/internal/demo"
	"github.com/aureliahealth/accuro-voice-adapter/internal/emr"
	"github.com/aureliahealth/accuro-voice-adapter/internal/observability/metrics"
	"github.com/aureliahealth/accuro-voice-adapter/internal/scheduling"
	"github.com/aureliahealth/accuro-voice-adapter/pkg/logging"
)

// ----- Retell webhook request/response shapes -----

// CancelRequest asks for the patient's appointment on a calendar day to be
// cancelled.
type CancelRequest struct {
	PatientID string `json:"patient_id"`
	Date      string `json:"date"` // YYYY-MM-DD
}

// CancelResponse reports a completed cancellation.
type CancelResponse struct {
	Message       string `json:"message"`
	AppointmentID string `json:"appointment_id"`
}

// PatientRequest looks up basic demographics.
type PatientRequest struct {
	PatientID string `json:"patient_id"`
}

// PatientResponse is the flattened demographic projection read to the caller.
type PatientResponse struct {
	ID          string `json:"id"`
	GivenName   string `json:"given_name"`
	FamilyName  string `json:"family_name"`
	DateOfBirth string `json:"date_of_birth"`
	HealthCard  string `json:"health_card"`
}

// FindRequest looks up the patient's appointment on a calendar day.
type FindRequest struct {
	PatientID string `json:"patient_id"`
	Date      string `json:"date"` // YYYY-MM-DD
}

// AppointmentResponse describes a found appointment.
type AppointmentResponse struct {
	ID        string `json:"id"`
	PatientID string `json:"patient_id"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
	Status    string `json:"status"`
}

// BookRequest asks for a new appointment at the desired start time.
// Only served in simulated mode; live booking is not supported upstream.
type BookRequest struct {
	PatientID string `json:"patient_id"`
	Start     string `json:"start"` // RFC3339
}

// BookResponse confirms a simulated booking.
type BookResponse struct {
	ConfirmationCode string `json:"confirmation_code"`
	AppointmentTime  string `json:"appointment_time"`
}

// RescheduleRequest asks for an appointment to be moved.
type RescheduleRequest struct {
	AppointmentID string `json:"appointment_id"`
	NewStart      string `json:"new_start"` // RFC3339
}

// RescheduleResponse confirms a simulated reschedule.
type RescheduleResponse struct {
	ConfirmationCode string `json:"confirmation_code"`
	NewTime          string `json:"new_time"`
}

// AvailabilityRequest asks for free slots on a calendar day.
type AvailabilityRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
}

// AvailabilityResponse lists free slots.
type AvailabilityResponse struct {
	Slots []SlotResponse `json:"slots"`
}

// SlotResponse is one free slot.
type SlotResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ----- Handler -----

// RetellWebhookHandler serves the webhook tools registered on the Retell
// voice assistant. Authentication is handled by middleware; this layer only
// shapes requests, invokes the resolver, and maps the error taxonomy onto
// HTTP statuses.
type RetellWebhookHandler struct {
	resolver  *scheduling.Resolver
	simulator *demo.Simulator // nil unless simulated scheduling is enabled
	metrics   *metrics.AdapterMetrics
	logger    *logging.Logger
}

// RetellWebhookConfig configures the RetellWebhookHandler.
type RetellWebhookConfig struct {
	Resolver  *scheduling.Resolver
	Simulator *demo.Simulator
	Metrics   *metrics.AdapterMetrics
	Logger    *logging.Logger
}

// NewRetellWebhookHandler creates a new RetellWebhookHandler.
func NewRetellWebhookHandler(cfg RetellWebhookConfig) *RetellWebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &RetellWebhookHandler{
		resolver:  cfg.Resolver,
		simulator: cfg.Simulator,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

// HandleCancel is the HTTP handler for POST /webhook/cancel.
func (h *RetellWebhookHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PatientID == "" || !validDate(req.Date) {
		h.writeValidationError(w, "cancel", "patient_id and date (YYYY-MM-DD) are required")
		return
	}

	apptID, err := h.resolver.ResolveAndCancel(r.Context(), req.PatientID, req.Date)
	if err != nil {
		h.writeError(w, "cancel", err)
		return
	}

	h.metrics.ObserveWebhook("cancel", "ok")
	h.writeJSON(w, http.StatusOK, CancelResponse{Message: "cancelled", AppointmentID: apptID})
}

// HandlePatient is the HTTP handler for POST /webhook/patient.
func (h *RetellWebhookHandler) HandlePatient(w http.ResponseWriter, r *http.Request) {
	var req PatientRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PatientID == "" {
		h.writeValidationError(w, "patient", "patient_id is required")
		return
	}

	patient, err := h.resolver.LookupPatient(r.Context(), req.PatientID)
	if err != nil {
		h.writeError(w, "patient", err)
		return
	}

	h.metrics.ObserveWebhook("patient", "ok")
	h.writeJSON(w, http.StatusOK, PatientResponse{
		ID:          patient.ID,
		GivenName:   patient.GivenName,
		FamilyName:  patient.FamilyName,
		DateOfBirth: patient.DateOfBirth,
		HealthCard:  patient.HealthCard,
	})
}

// HandleFind is the HTTP handler for POST /webhook/appointment/find.
func (h *RetellWebhookHandler) HandleFind(w http.ResponseWriter, r *http.Request) {
	var req FindRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PatientID == "" || !validDate(req.Date) {
		h.writeValidationError(w, "find", "patient_id and date (YYYY-MM-DD) are required")
		return
	}

	appt, err := h.resolver.FindAppointment(r.Context(), req.PatientID, req.Date)
	if err != nil {
		h.writeError(w, "find", err)
		return
	}

	h.metrics.ObserveWebhook("find", "ok")
	h.writeJSON(w, http.StatusOK, appointmentResponse(appt))
}

// HandleBook is the HTTP handler for POST /webhook/book. Live booking is not
// implemented upstream; only the simulated backend answers.
func (h *RetellWebhookHandler) HandleBook(w http.ResponseWriter, r *http.Request) {
	if h.simulator == nil {
		h.writeNotImplemented(w, "book")
		return
	}

	var req BookRequest
	if !h.decode(w, r, &req) {
		return
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil || req.PatientID == "" {
		h.writeValidationError(w, "book", "patient_id and start (RFC3339) are required")
		return
	}

	conf := h.simulator.Book(req.PatientID, start)
	h.metrics.ObserveWebhook("book", "ok")
	h.writeJSON(w, http.StatusOK, BookResponse{
		ConfirmationCode: conf.ConfirmationCode,
		AppointmentTime:  conf.AppointmentTime.Format(time.RFC3339),
	})
}

// HandleReschedule is the HTTP handler for POST /webhook/reschedule.
func (h *RetellWebhookHandler) HandleReschedule(w http.ResponseWriter, r *http.Request) {
	if h.simulator == nil {
		h.writeNotImplemented(w, "reschedule")
		return
	}

	var req RescheduleRequest
	if !h.decode(w, r, &req) {
		return
	}
	newStart, err := time.Parse(time.RFC3339, req.NewStart)
	if err != nil || req.AppointmentID == "" {
		h.writeValidationError(w, "reschedule", "appointment_id and new_start (RFC3339) are required")
		return
	}

	conf := h.simulator.Reschedule(req.AppointmentID, newStart)
	h.metrics.ObserveWebhook("reschedule", "ok")
	h.writeJSON(w, http.StatusOK, RescheduleResponse{
		ConfirmationCode: conf.ConfirmationCode,
		NewTime:          conf.AppointmentTime.Format(time.RFC3339),
	})
}

// HandleAvailability is the HTTP handler for POST /webhook/availability.
func (h *RetellWebhookHandler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	if h.simulator == nil {
		h.writeNotImplemented(w, "availability")
		return
	}

	var req AvailabilityRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.writeValidationError(w, "availability", "date (YYYY-MM-DD) is required")
		return
	}

	slots := h.simulator.Availability(date)
	resp := AvailabilityResponse{Slots: make([]SlotResponse, 0, len(slots))}
	for _, slot := range slots {
		resp.Slots = append(resp.Slots, SlotResponse{
			Start: slot.Start.Format(time.RFC3339),
			End:   slot.End.Format(time.RFC3339),
		})
	}

	h.metrics.ObserveWebhook("availability", "ok")
	h.writeJSON(w, http.StatusOK, resp)
}

// ----- helpers -----

func appointmentResponse(appt *emr.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:        appt.ID,
		PatientID: appt.PatientID,
		Status:    appt.Status,
	}
	if !appt.Start.IsZero() {
		resp.Start = appt.Start.Format(time.RFC3339)
	}
	if !appt.End.IsZero() {
		resp.End = appt.End.Format(time.RFC3339)
	}
	return resp
}

func validDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

func (h *RetellWebhookHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

func (h *RetellWebhookHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *RetellWebhookHandler) writeValidationError(w http.ResponseWriter, operation, msg string) {
	h.metrics.ObserveWebhook(operation, "invalid")
	h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: msg})
}

func (h *RetellWebhookHandler) writeNotImplemented(w http.ResponseWriter, operation string) {
	h.metrics.ObserveWebhook(operation, "not_implemented")
	h.writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "not supported by the live scheduling backend"})
}

// writeError maps the EMR error taxonomy onto HTTP statuses. Upstream detail
// stays in the logs; callers get a stable message per class.
func (h *RetellWebhookHandler) writeError(w http.ResponseWriter, operation string, err error) {
	var authErr *emr.AuthError
	var upstreamErr *emr.UpstreamError

	switch {
	case errors.Is(err, emr.ErrNotFound):
		h.metrics.ObserveWebhook(operation, "not_found")
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no matching record found"})
	case errors.Is(err, emr.ErrAlreadyCancelled):
		h.metrics.ObserveWebhook(operation, "already_cancelled")
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: "appointment is already cancelled"})
	case errors.As(err, &authErr):
		h.logger.Error("webhook: upstream auth failed", "operation", operation, "error", err)
		h.metrics.ObserveWebhook(operation, "auth_error")
		h.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "scheduling system unavailable"})
	case errors.As(err, &upstreamErr) && upstreamErr.Timeout:
		h.logger.Error("webhook: upstream timeout", "operation", operation, "error", err)
		h.metrics.ObserveWebhook(operation, "timeout")
		h.writeJSON(w, http.StatusGatewayTimeout, errorResponse{Error: "scheduling system timed out"})
	case errors.As(err, &upstreamErr):
		h.logger.Error("webhook: upstream failure", "operation", operation, "status", upstreamErr.Status, "error", err)
		h.metrics.ObserveWebhook(operation, "upstream_error")
		h.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "scheduling system error"})
	default:
		h.logger.Error("webhook: unexpected error", "operation", operation, "error", err)
		h.metrics.ObserveWebhook(operation, "error")
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
