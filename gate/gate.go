package gate

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	goSession "github.com/MrEthical07/goSession"
)

type identityContextKey struct{}

// IdentityFromContext returns the authenticated identity injected by the
// middleware for requests that passed the gate.
func IdentityFromContext(ctx context.Context) (*goSession.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*goSession.Identity)
	return identity, ok
}

// Gate defines a public type used by goSession APIs.
//
// Gate instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Gate struct {
	client   *goSession.Client
	prefixes []string
	login    string
	param    string
	purge    bool
}

// New constructs a gate from an explicit configuration.
//
// New may return an error when input validation, dependency calls, or security checks fail.
func New(client *goSession.Client, cfg goSession.GateConfig) (*Gate, error) {
	if client == nil {
		return nil, errors.New("gate requires a client")
	}
	if cfg.LoginPath == "" || !strings.HasPrefix(cfg.LoginPath, "/") {
		return nil, errors.New("gate login path must be rooted")
	}
	if cfg.ReturnParam == "" {
		return nil, errors.New("gate return parameter is required")
	}
	for _, prefix := range cfg.ProtectedPrefixes {
		if prefix == "" || !strings.HasPrefix(prefix, "/") {
			return nil, errors.New("gate protected prefixes must be rooted")
		}
	}

	return &Gate{
		client:   client,
		prefixes: append([]string(nil), cfg.ProtectedPrefixes...),
		login:    cfg.LoginPath,
		param:    cfg.ReturnParam,
		purge:    cfg.PurgeOnDenial,
	}, nil
}

// FromClient constructs a gate using the gate settings the client was built
// with, guaranteeing both read the same credential store.
func FromClient(client *goSession.Client) (*Gate, error) {
	if client == nil {
		return nil, errors.New("gate requires a client")
	}
	return New(client, client.GateConfig())
}

// IsProtected reports whether the path falls under a protected prefix. A
// prefix matches exactly or at a path-segment boundary, so "/dashboard" does
// not capture "/dashboards".
func (g *Gate) IsProtected(path string) bool {
	if g == nil {
		return false
	}
	for _, prefix := range g.prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Middleware wraps next with the route gate. Unprotected paths pass through
// untouched. Protected paths mount next only after the local credential check
// passes; on denial the response is a redirect to the login path carrying the
// originally requested path (including query) in the return parameter, and
// credential remnants are purged when configured.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g == nil || g.client == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !g.IsProtected(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if !g.client.AuthorizeNavigation(r.Context(), r.URL.Path) {
			if g.purge {
				if store := g.client.Store(); store != nil {
					_ = store.Clear(r.Context())
				}
			}
			http.Redirect(w, r, g.redirectTarget(r), http.StatusFound)
			return
		}

		ctx := r.Context()
		if identity, err := g.client.Identity(ctx); err == nil {
			ctx = context.WithValue(ctx, identityContextKey{}, identity)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// redirectTarget builds the login redirect preserving the original request
// path and query so post-login navigation can restore it.
func (g *Gate) redirectTarget(r *http.Request) string {
	return g.login + "?" + g.param + "=" + url.QueryEscape(r.URL.RequestURI())
}
