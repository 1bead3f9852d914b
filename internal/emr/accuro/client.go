package accuro

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aureliahealth/accuro-voice-adapter/internal/emr"
	"github.com/aureliahealth/accuro-voice-adapter/internal/observability/metrics"
	"github.com/aureliahealth/accuro-voice-adapter/pkg/logging"
)

// cancelPatch is the JSON-Patch body for marking an appointment cancelled.
// The Accuro sandbox requires a PATCH operation for status updates.
var cancelPatch = []patchOp{{Op: "replace", Path: "/status", Value: "cancelled"}}

type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

// Client implements the emr.Client interface for the Accuro EMR.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *tokenSource
	logger     *logging.Logger
	metrics    *metrics.AdapterMetrics
}

// Config holds configuration for the Accuro client.
type Config struct {
	BaseURL      string // e.g. "https://sandbox.accuroemr.com/api"
	TokenURL     string // defaults to BaseURL + "/oauth2/token"
	ClientID     string // OAuth 2.0 client ID
	ClientSecret string // OAuth 2.0 client secret
	Timeout      time.Duration
	TokenMargin  time.Duration // early-refresh buffer before token expiry
	Logger       *logging.Logger
	Metrics      *metrics.AdapterMetrics // optional
}

// New creates a new Accuro EMR client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("accuro: BaseURL is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("accuro: ClientID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("accuro: ClientSecret is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	margin := cfg.TokenMargin
	if margin == 0 {
		margin = 5 * time.Minute
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = baseURL + "/oauth2/token"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := &http.Client{Timeout: timeout}
	tokens := newTokenSource(tokenURL, cfg.ClientID, cfg.ClientSecret, margin, httpClient)
	tokens.onRefresh = cfg.Metrics.ObserveTokenRefresh
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger.With("component", "accuro"),
		metrics:    cfg.Metrics,
	}, nil
}

// GetPatient retrieves basic demographics for a patient.
// Accuro: GET /Patient/{id}
func (c *Client) GetPatient(ctx context.Context, patientID string) (*emr.Patient, error) {
	endpoint := fmt.Sprintf("%s/Patient/%s", c.baseURL, url.PathEscape(patientID))

	resp, err := c.do(ctx, "get_patient", http.MethodGet, endpoint, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("accuro: patient %s: %w", patientID, emr.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, upstreamStatusError(resp)
	}

	var payload fhirPatient
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &emr.UpstreamError{Status: resp.StatusCode, Err: err}
	}

	return parsePatient(payload, patientID), nil
}

// GetAppointment retrieves an appointment by ID.
// Accuro: GET /Appointment/{id}
func (c *Client) GetAppointment(ctx context.Context, appointmentID string) (*emr.Appointment, error) {
	endpoint := fmt.Sprintf("%s/Appointment/%s", c.baseURL, url.PathEscape(appointmentID))

	resp, err := c.do(ctx, "get_appointment", http.MethodGet, endpoint, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("accuro: appointment %s: %w", appointmentID, emr.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, upstreamStatusError(resp)
	}

	var payload fhirAppointment
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &emr.UpstreamError{Status: resp.StatusCode, Err: err}
	}

	return parseAppointment(payload, ""), nil
}

// FindAppointment returns the first appointment for a patient on the given
// calendar day (YYYY-MM-DD), or nil when the search comes back empty. Only
// the first page is considered; the voice flow never needs more.
// Accuro: GET /Appointment?patient={id}&date={date}
func (c *Client) FindAppointment(ctx context.Context, patientID string, date string) (*emr.Appointment, error) {
	params := url.Values{}
	params.Set("patient", patientID)
	params.Set("date", date)
	endpoint := fmt.Sprintf("%s/Appointment?%s", c.baseURL, params.Encode())

	resp, err := c.do(ctx, "find_appointment", http.MethodGet, endpoint, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, upstreamStatusError(resp)
	}

	var bundle fhirBundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, &emr.UpstreamError{Status: resp.StatusCode, Err: err}
	}
	if len(bundle.Entry) == 0 {
		return nil, nil
	}

	var payload fhirAppointment
	if err := json.Unmarshal(bundle.Entry[0].Resource, &payload); err != nil {
		return nil, &emr.UpstreamError{Status: resp.StatusCode, Err: err}
	}

	return parseAppointment(payload, patientID), nil
}

// CancelAppointment marks an appointment as cancelled via JSON-Patch. The
// patch blindly overwrites status without reading the current value; the
// idempotency guard lives in the scheduling resolver.
// Accuro: PATCH /Appointment/{id}
func (c *Client) CancelAppointment(ctx context.Context, appointmentID string) error {
	body, err := json.Marshal(cancelPatch)
	if err != nil {
		return fmt.Errorf("accuro: failed to marshal patch: %w", err)
	}

	endpoint := fmt.Sprintf("%s/Appointment/%s", c.baseURL, url.PathEscape(appointmentID))
	resp, err := c.do(ctx, "cancel_appointment", http.MethodPatch, endpoint, "application/json-patch+json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return upstreamStatusError(resp)
	}

	c.logger.Info("appointment cancelled upstream", "appointment_id", appointmentID)
	return nil
}

// do issues an authenticated request. AuthError from the token source
// propagates untouched; transport failures are classified as upstream
// errors, with timeouts marked.
func (c *Client) do(ctx context.Context, operation, method, endpoint, contentType string, body io.Reader) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.metrics.ObserveUpstream(operation, "auth_error", 0)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("accuro: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome := "error"
		if isTimeout(err) {
			outcome = "timeout"
		}
		c.metrics.ObserveUpstream(operation, outcome, time.Since(start).Seconds())
		return nil, &emr.UpstreamError{Timeout: isTimeout(err), Err: err}
	}
	c.metrics.ObserveUpstream(operation, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	return resp, nil
}

func upstreamStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<14))
	return &emr.UpstreamError{Status: resp.StatusCode, Body: string(body)}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
