package accuro

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aureliahealth/accuro-voice-adapter/internal/emr"
)

// defaultTokenLifetime is assumed when the token endpoint omits expires_in.
const defaultTokenLifetime = 3600 * time.Second

// tokenSource owns the single cached bearer credential shared by all
// outbound calls. Refreshes run under the mutex with a double-check, so
// concurrent callers observing an expired cache collapse into one in-flight
// exchange.
type tokenSource struct {
	tokenURL     string
	clientID     string
	clientSecret string
	margin       time.Duration
	httpClient   *http.Client

	now       func() time.Time // test hook
	onRefresh func()           // invoked after each successful exchange

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newTokenSource(tokenURL, clientID, clientSecret string, margin time.Duration, httpClient *http.Client) *tokenSource {
	return &tokenSource{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		margin:       margin,
		httpClient:   httpClient,
		now:          time.Now,
	}
}

// Token returns the cached bearer token, refreshing it when the early-expiry
// window has passed. Safe for concurrent use.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && ts.now().Before(ts.expiry) {
		return ts.token, nil
	}

	token, lifetime, err := ts.exchange(ctx)
	if err != nil {
		return "", err
	}

	ts.token = token
	ts.expiry = ts.now().Add(lifetime - ts.margin)
	if ts.onRefresh != nil {
		ts.onRefresh()
	}
	return ts.token, nil
}

// exchange performs the OAuth 2.0 client-credentials grant. The client id
// and secret travel as HTTP Basic auth, matching the Accuro sandbox.
func (ts *tokenSource) exchange(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, &emr.AuthError{Err: err}
	}
	req.SetBasicAuth(ts.clientID, ts.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", 0, &emr.AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<14))
	if resp.StatusCode != http.StatusOK {
		return "", 0, &emr.AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", 0, &emr.AuthError{Status: resp.StatusCode, Err: err, Body: string(body)}
	}
	if tokenResp.AccessToken == "" {
		return "", 0, &emr.AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	lifetime := defaultTokenLifetime
	if tokenResp.ExpiresIn > 0 {
		lifetime = time.Duration(tokenResp.ExpiresIn) * time.Second
	}
	return tokenResp.AccessToken, lifetime, nil
}
