// Package auth implements the Jike QR-code login handshake and secure
// credential storage.
//
// The handshake creates a login session, renders its uuid as a QR payload
// for the mobile app, polls until the user confirms, and normalizes the
// confirmed token pair through one refresh. Refreshed tokens travel in
// response headers; a refresh response without a new refresh token keeps
// the old one.
//
// Credentials are stored through a chain of backends, first writable one
// wins:
//   - System keychain (when available)
//   - Encrypted file with PBKDF2 key derivation and AES-GCM
//   - Environment variables (read-only, for CI and scripts)
//
// Usage:
//
//	handshake := auth.NewHandshake(&cfg.API, &cfg.Auth, logger.GetLogger())
//	pair, err := handshake.Authenticate(ctx, func(payload string) {
//	    // render payload as a QR code
//	})
//
//	manager, err := auth.NewManager()
//	err = manager.Store(&auth.Account{Alias: "default", Tokens: pair})
package auth
