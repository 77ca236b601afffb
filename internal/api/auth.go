package api

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"salonbook/internal/config"
)

const adminClientKey ctxKey = "admin_client"

// AdminAuth guards the admin routes with a static API key per client.
type AdminAuth struct {
	header  string
	clients []config.APIClientKey
}

func NewAdminAuth(cfg config.APIAuthConfig) *AdminAuth {
	header := strings.TrimSpace(cfg.HeaderAPIKey)
	if header == "" {
		header = "x-api-key"
	}
	clients := make([]config.APIClientKey, 0, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if strings.TrimSpace(k.Key) != "" {
			clients = append(clients, k)
		}
	}
	return &AdminAuth{header: header, clients: clients}
}

func (a *AdminAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := strings.TrimSpace(r.Header.Get(a.header))
		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing api key header")
			return
		}
		client, ok := a.lookup(apiKey)
		if !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid api key")
			return
		}
		ctx := context.WithValue(r.Context(), adminClientKey, client.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Client returns the configured client name for the request's API key.
func (a *AdminAuth) Client(r *http.Request) (string, bool) {
	apiKey := strings.TrimSpace(r.Header.Get(a.header))
	if apiKey == "" {
		return "", false
	}
	client, ok := a.lookup(apiKey)
	return client.Name, ok
}

// lookup compares against every key so timing does not reveal a prefix match.
func (a *AdminAuth) lookup(apiKey string) (config.APIClientKey, bool) {
	var found config.APIClientKey
	ok := false
	for _, c := range a.clients {
		if subtle.ConstantTimeCompare([]byte(c.Key), []byte(apiKey)) == 1 {
			found = c
			ok = true
		}
	}
	return found, ok
}

func AdminClientFrom(ctx context.Context) string {
	name, _ := ctx.Value(adminClientKey).(string)
	return name
}

// clientKey identifies the caller for rate limiting: the API key when present,
// otherwise the remote host.
func clientKey(r *http.Request, header string) string {
	if apiKey := strings.TrimSpace(r.Header.Get(header)); apiKey != "" {
		return "key:" + apiKey
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
