package middleware

import (
	"log/slog"
	"net/http"
	"strings"
)

// AllowIPs rejects requests whose client address is outside the given
// CIDRs or IPs. An empty list allows every client; a list with no valid
// entry allows none.
//
// It must run after TrustedRealIP so proxied requests are judged by the
// original client address.
func AllowIPs(allowed []string) func(http.Handler) http.Handler {
	nets := parseNetworks(allowed, "allowlist")

	return func(next http.Handler) http.Handler {
		if !hasEntries(allowed) {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isTrusted(extractIP(r.RemoteAddr), nets) {
				slog.Warn("allowlist: client rejected",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				deny(w, http.StatusForbidden, "client address not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasEntries(list []string) bool {
	for _, s := range list {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}
