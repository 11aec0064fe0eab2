package goSession

import "errors"

var (
	// ErrClientNotReady is an exported constant or variable used by the session client.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrNotAuthenticated is an exported constant or variable used by the session client.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidCredentials is an exported constant or variable used by the session client.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired is an exported constant or variable used by the session client.
	ErrSessionExpired = errors.New("session expired")
	// ErrRefreshInvalid is an exported constant or variable used by the session client.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrPermissionDenied is an exported constant or variable used by the session client.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrLoginFailed is an exported constant or variable used by the session client.
	ErrLoginFailed = errors.New("login failed")
	// ErrBackendUnavailable is an exported constant or variable used by the session client.
	ErrBackendUnavailable = errors.New("auth backend unavailable")
	// ErrInvalidRequest is an exported constant or variable used by the session client.
	ErrInvalidRequest = errors.New("invalid request")
)
