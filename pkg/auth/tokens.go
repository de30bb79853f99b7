package auth

// Header names the Jike API uses to carry credentials.
const (
	HeaderAccessToken  = "x-jike-access-token"
	HeaderRefreshToken = "x-jike-refresh-token"
)

// TokenPair is the access/refresh credential pair identifying an
// authenticated session. It is a value type: a refresh never mutates an
// existing pair, it produces a new one, and holders swap their reference.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IsZero reports whether the pair carries no credentials
func (t TokenPair) IsZero() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// Sanitized returns a copy of the pair with the token values masked,
// suitable for display and logging
func (t TokenPair) Sanitized() TokenPair {
	return TokenPair{
		AccessToken:  maskString(t.AccessToken),
		RefreshToken: maskString(t.RefreshToken),
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// BaseHeaders returns the fixed header bundle every request to the API must
// carry. The service rejects requests without the Origin header.
func BaseHeaders(userAgent string) map[string]string {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return map[string]string{
		"Origin":     WebOrigin,
		"User-Agent": userAgent,
		"Accept":     "application/json, text/plain, */*",
		"DNT":        "1",
	}
}

const (
	// WebOrigin identifies requests as coming from the official web client
	WebOrigin = "https://web.okjike.com"

	// DefaultUserAgent mimics the mobile Safari browser the web client targets
	DefaultUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 18_5 like Mac OS X) " +
		"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.5 " +
		"Mobile/15E148 Safari/604.1"
)
