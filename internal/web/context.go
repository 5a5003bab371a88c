package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/reports/internal/core"
)

// WithRequestMetadata adds the client IP and the calling user to context
// for report logging.
func WithRequestMetadata(ctx context.Context, r *http.Request, user string) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	if user != "" {
		ctx = core.ContextWithUser(ctx, user)
	}
	return ctx
}

// clientIP returns the host part of RemoteAddr, already rewritten by
// TrustedRealIP when the request came through a trusted proxy.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
