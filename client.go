package goSession

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/jwt"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const maxErrorBody = 64 << 10

// Client defines a public type used by goSession APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Client struct {
	config    Config
	store     credential.Store
	http      *http.Client
	inspector *jwt.Inspector
	refresh   singleflight.Group
	audit     *auditDispatcher
	metrics   *Metrics

	// now is a test seam; nil means time.Now.
	now func() time.Time
}

// Close describes the close operation and its observable behavior.
//
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

// Store exposes the credential store backing this client. The route gate and
// page code must read from this same store, never from a parallel heuristic.
func (c *Client) Store() credential.Store {
	if c == nil {
		return nil
	}
	return c.store
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

func (c *Client) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.config.Endpoints.BaseURL, "/") + path
}

func (c *Client) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

func (c *Client) emitAudit(ctx context.Context, event AuditEvent) {
	if c == nil || c.audit == nil {
		return
	}
	c.audit.Emit(ctx, event)
}

// GateConfig returns a copy of the route-gate settings this client was built
// with, for wiring a gate.Gate from the same configuration.
func (c *Client) GateConfig() GateConfig {
	cfg := c.config.Gate
	cfg.ProtectedPrefixes = append([]string(nil), cfg.ProtectedPrefixes...)
	return cfg
}

// PollConfig returns a copy of the polling interval policy this client was
// built with, for constructing hooks from the same configuration.
func (c *Client) PollConfig() PollConfig {
	return c.config.Poll
}

// AuthorizeNavigation evaluates the local-only route check for path: present,
// well-formed, unexpired credential. Zero network latency, records gate
// metrics and audit events. Server-side revocation is discovered lazily by
// the first authenticated call after mount.
func (c *Client) AuthorizeNavigation(ctx context.Context, path string) bool {
	if c == nil {
		return false
	}
	if c.IsAuthenticated(ctx) {
		c.metricInc(MetricGateAllowed)
		return true
	}
	c.metricInc(MetricGateDenied)
	event := newAuditEvent(AuditGateDenied)
	event.Path = path
	c.emitAudit(ctx, event)
	return false
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Login(ctx context.Context, identifier, password string) (*Identity, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidRequest
	}

	callCtx, cancel := context.WithTimeout(ctx, c.config.HTTP.Timeout)
	defer cancel()

	resp, err := c.postJSON(callCtx, c.endpoint(c.config.Endpoints.LoginPath), loginRequest{
		Identifier: identifier,
		Password:   password,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		c.metricInc(MetricLoginFailure)
		event := newAuditEvent(AuditLoginFailure)
		event.Error = apiErr.Message
		c.emitAudit(ctx, event)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
			// Keep the typed error in the chain so callers can still recover
			// field-level validation messages through errors.As.
			return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, apiErr)
		}
		return nil, apiErr
	}

	var body loginResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: undecodable response", ErrLoginFailed)
	}
	if body.AccessToken == "" || body.RefreshToken == "" {
		return nil, fmt.Errorf("%w: incomplete token pair", ErrLoginFailed)
	}

	expiresAt, err := c.expiryOf(body.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}

	identity := body.User
	if identity.UserID == "" {
		// Profile omitted by the server: fall back to the token claims.
		if claims, derr := c.inspector.Decode(body.AccessToken); derr == nil {
			identity.UserID = claims.UID
			if identity.Role == "" {
				identity.Role = claims.Role
			}
		}
	}

	cred := &credential.Credential{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    expiresAt,
		Identity:     identity,
	}
	if err := c.store.Save(ctx, cred); err != nil {
		return nil, err
	}

	c.metricInc(MetricLoginSuccess)
	event := newAuditEvent(AuditLoginSuccess)
	event.UserID = identity.UserID
	event.Success = true
	c.emitAudit(ctx, event)

	return &cred.Identity, nil
}

// IsAuthenticated reports whether a plausible, unexpired credential is stored.
// It is a local-only check with zero network latency: server-side revocation is
// discovered lazily by the first authenticated call. Never errors, never
// returns true for a malformed credential.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	if c == nil {
		return false
	}
	cred, err := c.store.Load(ctx)
	if err != nil {
		return false
	}
	now := c.clock()
	if cred.Expired(now) {
		return false
	}
	return !c.inspector.Expired(cred.AccessToken, now)
}

// Identity returns the stored identity of the authenticated user.
//
// Identity may return an error when input validation, dependency calls, or security checks fail.
// Identity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Identity(ctx context.Context) (*Identity, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	cred, err := c.store.Load(ctx)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	identity := cred.Identity
	return &identity, nil
}

// Logout revokes the session server-side on a best-effort basis, then
// unconditionally clears the credential store. A failed revocation call never
// leaves stale local credentials behind; logging out without a stored
// credential is a no-op that still guarantees absence afterward.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}

	cred, err := c.store.Load(ctx)
	if err == nil {
		callCtx, cancel := context.WithTimeout(ctx, c.config.HTTP.Timeout)
		resp, rerr := c.postJSON(callCtx, c.endpoint(c.config.Endpoints.LogoutPath), logoutRequest{
			RefreshToken: cred.RefreshToken,
		})
		cancel()
		if rerr != nil || resp.StatusCode >= 400 {
			c.metricInc(MetricLogoutRevocationFailed)
		}
		if rerr == nil {
			drain(resp)
		}
	}

	if err := c.store.Clear(ctx); err != nil {
		return err
	}

	c.metricInc(MetricLogout)
	event := newAuditEvent(AuditLogout)
	event.Success = true
	c.emitAudit(ctx, event)
	return nil
}

// Do issues an authenticated request: it attaches the current access token,
// refreshes once on a 401 (shared across concurrent callers), and replays the
// original request once with the rotated token. A 403 is returned to the
// caller untouched — permission failures are not credential failures. Network
// errors are reported without altering credential state.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	if req == nil {
		return nil, ErrInvalidRequest
	}
	if err := ensureReplayable(req); err != nil {
		return nil, err
	}

	cred, err := c.store.Load(ctx)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	access := cred.AccessToken
	now := c.clock()
	if cred.Expired(now) || c.inspector.Expired(access, now) {
		access, err = c.refreshAccess(ctx)
		if err != nil {
			return nil, err
		}
	}

	resp, err := c.send(ctx, req, access)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusForbidden {
		c.metricInc(MetricRequestForbidden)
		return resp, nil
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// 401: exactly one refresh attempt, then one replay.
	drain(resp)
	c.metricInc(MetricRequestUnauthorized)

	access, err = c.refreshAccess(ctx)
	if err != nil {
		return nil, err
	}

	c.metricInc(MetricRequestReplayed)
	replay, err := c.send(ctx, req, access)
	if err != nil {
		return nil, err
	}
	if replay.StatusCode == http.StatusUnauthorized {
		drain(replay)
		c.expireSession(ctx, "replay rejected")
		return nil, ErrSessionExpired
	}
	return replay, nil
}

// Refresh forces a token rotation now. Concurrent callers share one network
// call; the credential is replaced wholesale on success.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Refresh(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}
	_, err := c.refreshAccess(ctx)
	return err
}

// refreshAccess coalesces concurrent refreshers onto one network call. Every
// caller that observed the expired token awaits the same outcome.
func (c *Client) refreshAccess(ctx context.Context) (string, error) {
	var initiated bool
	v, err, shared := c.refresh.Do("refresh", func() (interface{}, error) {
		initiated = true
		return c.doRefresh(ctx)
	})
	// The initiator issued the call; only the callers that piggybacked on its
	// round count as shared.
	if shared && !initiated {
		c.metricInc(MetricRefreshShared)
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) doRefresh(ctx context.Context) (string, error) {
	cred, err := c.store.Load(ctx)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", err
	}

	// The outcome is shared by every waiter, so the call must not die with
	// the first caller's context.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.HTTP.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.postJSON(callCtx, c.endpoint(c.config.Endpoints.RefreshPath), refreshRequest{
		RefreshToken: cred.RefreshToken,
	})
	if err != nil {
		// Transport failure: credential state stays untouched.
		c.metricInc(MetricRefreshFailure)
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer drain(resp)

	if resp.StatusCode >= 500 {
		c.metricInc(MetricRefreshFailure)
		return "", fmt.Errorf("%w: refresh endpoint returned %d", ErrBackendUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		c.metricInc(MetricRefreshFailure)
		event := newAuditEvent(AuditRefreshFailure)
		event.Error = apiErr.Message
		c.emitAudit(ctx, event)
		c.expireSession(ctx, apiErr.Message)
		return "", fmt.Errorf("%w: %s", ErrRefreshInvalid, apiErr.Error())
	}

	var body refreshResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err != nil {
		c.metricInc(MetricRefreshFailure)
		c.expireSession(ctx, "undecodable refresh response")
		return "", fmt.Errorf("%w: undecodable response", ErrRefreshInvalid)
	}
	if body.AccessToken == "" || body.RefreshToken == "" {
		c.metricInc(MetricRefreshFailure)
		c.expireSession(ctx, "incomplete token pair")
		return "", fmt.Errorf("%w: incomplete token pair", ErrRefreshInvalid)
	}

	expiresAt, err := c.expiryOf(body.AccessToken)
	if err != nil {
		c.metricInc(MetricRefreshFailure)
		c.expireSession(ctx, "rotated token rejected")
		return "", fmt.Errorf("%w: %v", ErrRefreshInvalid, err)
	}

	next := &credential.Credential{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    expiresAt,
		Identity:     cred.Identity,
	}
	if err := c.store.Save(ctx, next); err != nil {
		return "", err
	}

	c.metricInc(MetricRefreshSuccess)
	if c.metrics != nil {
		c.metrics.Observe(MetricRefreshLatency, time.Since(start))
	}
	event := newAuditEvent(AuditRefreshSuccess)
	event.UserID = cred.Identity.UserID
	event.Success = true
	c.emitAudit(ctx, event)

	return next.AccessToken, nil
}

// FetchPermissions issues the one authenticated fetch for the current user's
// role and permission set. Callers cache the result for the session's
// lifetime through [permission.Resolver]; the set is deliberately never
// persisted across client restarts so a server-side role change cannot serve
// stale authorization.
func (c *Client) FetchPermissions(ctx context.Context) (*PermissionSet, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}

	callCtx, cancel := context.WithTimeout(ctx, c.config.Permission.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.endpoint(c.config.Endpoints.PermissionPath), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(callCtx, req)
	if err != nil {
		c.metricInc(MetricPermissionFetchFailure)
		event := newAuditEvent(AuditPermissionFailed)
		event.Error = err.Error()
		c.emitAudit(ctx, event)
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusForbidden {
		c.metricInc(MetricPermissionFetchFailure)
		return nil, ErrPermissionDenied
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp)
		c.metricInc(MetricPermissionFetchFailure)
		event := newAuditEvent(AuditPermissionFailed)
		event.Error = apiErr.Message
		c.emitAudit(ctx, event)
		return nil, apiErr
	}

	var set PermissionSet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&set); err != nil {
		c.metricInc(MetricPermissionFetchFailure)
		return nil, fmt.Errorf("%w: undecodable permission response", ErrBackendUnavailable)
	}

	c.metricInc(MetricPermissionFetchSuccess)
	event := newAuditEvent(AuditPermissionFetch)
	event.Success = true
	c.emitAudit(ctx, event)
	return &set, nil
}

// expireSession clears the store after a fatal credential failure. The caller
// is expected to redirect to login.
func (c *Client) expireSession(ctx context.Context, reason string) {
	_ = c.store.Clear(ctx)
	c.metricInc(MetricSessionExpired)
	event := newAuditEvent(AuditSessionExpired)
	event.Error = reason
	c.emitAudit(ctx, event)
}

// expiryOf derives the credential expiry from the access token's exp claim,
// honoring the fallback TTL when expiry claims are optional.
func (c *Client) expiryOf(access string) (time.Time, error) {
	expiresAt, err := c.inspector.ExpiresAt(access)
	if err == nil {
		return expiresAt, nil
	}
	if errors.Is(err, jwt.ErrMissingExpiry) && !c.config.Token.RequireExpiry {
		if c.config.Token.FallbackTTL > 0 {
			return c.clock().Add(c.config.Token.FallbackTTL), nil
		}
		return time.Time{}, nil
	}
	return time.Time{}, err
}

// send clones the request, rewinds its body, and attaches auth headers.
func (c *Client) send(ctx context.Context, req *http.Request, access string) (*http.Response, error) {
	out := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}
	out.Header.Set("Authorization", "Bearer "+access)
	if out.Header.Get("User-Agent") == "" && c.config.HTTP.UserAgent != "" {
		out.Header.Set("User-Agent", c.config.HTTP.UserAgent)
	}
	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", uuid.NewString())
	}
	return c.http.Do(out)
}

func (c *Client) postJSON(ctx context.Context, url string, payload interface{}) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.HTTP.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.HTTP.UserAgent)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	return c.http.Do(req)
}

// ensureReplayable buffers the request body once so the replay after refresh
// can rewind it.
func ensureReplayable(req *http.Request) error {
	if req.Body == nil || req.GetBody != nil {
		return nil
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return err
	}
	req.Body = io.NopCloser(bytes.NewReader(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		_ = json.Unmarshal(data, apiErr)
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
