package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/reports/internal/config"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.RemoteAddr))
})

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SecurityConfig
		key  string
		want int
	}{
		{name: "disabled", cfg: config.SecurityConfig{}, want: http.StatusOK},
		{name: "missing", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, want: http.StatusUnauthorized},
		{name: "invalid", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, key: "k2", want: http.StatusForbidden},
		{name: "valid second key", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}}, key: "k2", want: http.StatusOK},
		{name: "no keys configured", cfg: config.SecurityConfig{RequireAPIKey: true}, key: "k1", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := APIKeyAuth(&tt.cfg)(ok)
			req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		realIP     string
		forwarded  string
		want       string
	}{
		{name: "untrusted ignores header", trusted: []string{"10.0.0.0/8"}, remoteAddr: "192.0.2.1:5000", realIP: "203.0.113.9", want: "192.0.2.1:5000"},
		{name: "trusted X-Real-IP", trusted: []string{"10.0.0.0/8"}, remoteAddr: "10.1.2.3:5000", realIP: "203.0.113.9", want: "203.0.113.9"},
		{name: "trusted X-Forwarded-For", trusted: []string{"10.0.0.1"}, remoteAddr: "10.0.0.1:5000", forwarded: "203.0.113.9, 10.0.0.1", want: "203.0.113.9"},
		{name: "invalid header kept out", trusted: []string{"10.0.0.0/8"}, remoteAddr: "10.1.2.3:5000", realIP: "not-an-ip", want: "10.1.2.3:5000"},
		{name: "no proxies", remoteAddr: "10.1.2.3:5000", realIP: "203.0.113.9", want: "10.1.2.3:5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := TrustedRealIP(tt.trusted)(ok)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAllowIPs(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		remoteAddr string
		want       int
	}{
		{name: "loopback v4", allowed: []string{"127.0.0.1/32", "::1/128"}, remoteAddr: "127.0.0.1:40000", want: http.StatusOK},
		{name: "loopback v6", allowed: []string{"127.0.0.1/32", "::1/128"}, remoteAddr: "[::1]:40000", want: http.StatusOK},
		{name: "outside", allowed: []string{"127.0.0.1/32"}, remoteAddr: "192.0.2.1:40000", want: http.StatusForbidden},
		{name: "single ip entry", allowed: []string{"192.0.2.1"}, remoteAddr: "192.0.2.1:40000", want: http.StatusOK},
		{name: "rewritten by realip", allowed: []string{"203.0.113.0/24"}, remoteAddr: "203.0.113.9", want: http.StatusOK},
		{name: "empty allows all", remoteAddr: "192.0.2.1:40000", want: http.StatusOK},
		{name: "only invalid entries deny all", allowed: []string{"bogus"}, remoteAddr: "127.0.0.1:40000", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowIPs(tt.allowed)(ok)
			req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
			req.RemoteAddr = tt.remoteAddr
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLoggerCapturesStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("x"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}
