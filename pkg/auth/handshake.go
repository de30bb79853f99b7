package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"jikecli/pkg/config"
	"jikecli/pkg/errors"
	"jikecli/pkg/logger"
	"jikecli/pkg/retry"
)

// Session endpoints relative to the API origin.
const (
	CreateSessionPath    = "/sessions.create"
	WaitConfirmationPath = "/sessions.wait_for_confirmation"
	RefreshPath          = "/app_auth_tokens.refresh"
)

// scanURL is the page the mobile app opens when it scans the login QR code
const scanURL = "https://www.okjike.com/account/scan"

// Handshake drives the QR-code login flow: create a session, render its
// payload as a QR code for the user, and poll until the mobile app confirms
// the scan or the deadline passes.
type Handshake struct {
	httpClient   *http.Client
	origin       string
	headers      map[string]string
	pollInterval time.Duration
	maxAttempts  int
	logger       logger.Logger
}

// NewHandshake creates a handshake bound to the given API origin and poll
// schedule
func NewHandshake(apiCfg *config.APIConfig, authCfg *config.AuthConfig, log logger.Logger) *Handshake {
	attempts := int(authCfg.PollTimeout / authCfg.PollInterval)
	if attempts < 1 {
		attempts = 1
	}

	return &Handshake{
		httpClient:   &http.Client{Timeout: apiCfg.Timeout},
		origin:       apiCfg.Origin,
		headers:      BaseHeaders(apiCfg.UserAgent),
		pollInterval: authCfg.PollInterval,
		maxAttempts:  attempts,
		logger:       log,
	}
}

// CreateSession asks the server for a fresh login session and returns its
// UUID. The UUID is single-use: once confirmed or expired it cannot be
// polled again.
func (h *Handshake) CreateSession(ctx context.Context) (string, error) {
	resp, err := h.do(ctx, http.MethodPost, h.origin+CreateSessionPath, nil)
	if err != nil {
		return "", errors.NewNetwork(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewRemote(resp.StatusCode, CreateSessionPath)
	}

	var session struct {
		UUID string `json:"uuid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", errors.NewProtocol("session response is not valid JSON")
	}
	if session.UUID == "" {
		return "", errors.NewProtocol("session response is missing the uuid field")
	}

	h.logger.DebugWithFields("login session created", map[string]interface{}{
		"uuid": session.UUID,
	})

	return session.UUID, nil
}

// BuildQRPayload derives the deep-link URI the QR code must encode for the
// given session UUID. The scan URL is percent-encoded inside the app scheme
// so the mobile client receives it intact.
func BuildQRPayload(uuid string) string {
	target := scanURL + "?uuid=" + uuid
	return "jike://page.jk/web?url=" + url.QueryEscape(target) +
		"&displayHeader=false&displayFooter=false"
}

// PollConfirmation asks the server once whether the session was confirmed.
// It returns (pair, true, nil) once the mobile app confirmed the scan,
// (zero, false, nil) while confirmation is still pending, and a non-nil
// error for anything else.
func (h *Handshake) PollConfirmation(ctx context.Context, uuid string) (TokenPair, bool, error) {
	pollURL := h.origin + WaitConfirmationPath + "?uuid=" + url.QueryEscape(uuid)

	resp, err := h.do(ctx, http.MethodGet, pollURL, nil)
	if err != nil {
		return TokenPair{}, false, errors.NewNetwork(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return TokenPair{}, false, errors.NewNetwork(err)
		}
		pair, ok := extractTokens(body, resp.Header)
		if !ok {
			return TokenPair{}, false, errors.NewProtocol("confirmation response carried no tokens")
		}
		return pair, true, nil

	case http.StatusBadRequest:
		// Not confirmed yet; the server answers 400 until the app scans
		return TokenPair{}, false, nil

	default:
		return TokenPair{}, false, errors.NewProtocol(
			fmt.Sprintf("unexpected confirmation status %d", resp.StatusCode))
	}
}

// extractTokens pulls the credential pair out of a confirmation response.
// The server usually delivers tokens in the JSON body, under either the
// header-style or snake_case keys, and occasionally in the response headers
// instead.
func extractTokens(body []byte, header http.Header) (TokenPair, bool) {
	var payload map[string]string
	if err := json.Unmarshal(body, &payload); err == nil {
		pair := TokenPair{
			AccessToken:  firstNonEmpty(payload[HeaderAccessToken], payload["access_token"]),
			RefreshToken: firstNonEmpty(payload[HeaderRefreshToken], payload["refresh_token"]),
		}
		if pair.AccessToken != "" {
			return pair, true
		}
	}

	pair := TokenPair{
		AccessToken:  header.Get(HeaderAccessToken),
		RefreshToken: header.Get(HeaderRefreshToken),
	}
	return pair, pair.AccessToken != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Refresh exchanges a refresh token for a new credential pair. The server
// returns the new tokens in the response headers, not the body. A rejected
// refresh token means the whole session is dead and the user must log in
// again.
func (h *Handshake) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.origin+RefreshPath, bytes.NewReader([]byte("{}")))
	if err != nil {
		return TokenPair{}, errors.NewNetwork(err)
	}
	h.applyHeaders(req)
	req.Header.Set(HeaderRefreshToken, refreshToken)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return TokenPair{}, errors.NewNetwork(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TokenPair{}, errors.NewAuthExpired("refresh token rejected; run the QR login again")
	}

	pair := TokenPair{
		AccessToken:  resp.Header.Get(HeaderAccessToken),
		RefreshToken: resp.Header.Get(HeaderRefreshToken),
	}
	if pair.AccessToken == "" {
		return TokenPair{}, errors.NewProtocol("refresh response is missing the access token header")
	}
	if pair.RefreshToken == "" {
		// Some deployments omit the header when the refresh token is unchanged
		pair.RefreshToken = refreshToken
	}

	h.logger.Debug("credential pair refreshed")

	return pair, nil
}

// Authenticate runs the complete QR login flow. onQR is invoked once with
// the payload to render; the call then blocks polling the server until the
// scan is confirmed, the poll deadline passes, or ctx is cancelled.
func (h *Handshake) Authenticate(ctx context.Context, onQR func(payload string)) (TokenPair, error) {
	uuid, err := h.CreateSession(ctx)
	if err != nil {
		return TokenPair{}, err
	}

	if onQR != nil {
		onQR(BuildQRPayload(uuid))
	}

	h.logger.InfoWithFields("waiting for QR scan confirmation", map[string]interface{}{
		"poll_interval": h.pollInterval,
		"max_attempts":  h.maxAttempts,
	})

	for attempt := 0; attempt < h.maxAttempts; attempt++ {
		pair, confirmed, err := h.PollConfirmation(ctx, uuid)
		if err != nil {
			// Transient network errors should not abort the whole login
			if errors.IsNetwork(err) {
				h.logger.WithError(err).Debug("confirmation poll failed, retrying")
			} else {
				return TokenPair{}, err
			}
		}
		if confirmed {
			h.logger.Info("QR scan confirmed")
			// Normalize the confirmed pair through a refresh so both flows
			// hand out header-sourced credentials
			if pair.RefreshToken != "" {
				if fresh, err := h.Refresh(ctx, pair.RefreshToken); err == nil {
					return fresh, nil
				}
			}
			return pair, nil
		}

		if err := retry.Wait(ctx, h.pollInterval); err != nil {
			// Caller-driven cancellation, not a transport failure
			return TokenPair{}, err
		}
	}

	return TokenPair{}, errors.NewAuthTimeout("QR code was not scanned in time")
}

// do issues a request with the fixed header bundle applied
func (h *Handshake) do(ctx context.Context, method, rawURL string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	h.applyHeaders(req)
	return h.httpClient.Do(req)
}

func (h *Handshake) applyHeaders(req *http.Request) {
	for key, value := range h.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", "application/json")
}
