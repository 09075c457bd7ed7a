// Package metadata extracts client metadata from incoming requests so case
// events can record where an action originated without handlers touching
// raw headers.
package metadata

import (
	"net/http"
	"strings"

	ua "github.com/mssola/useragent"

	"maplecase/pkg/requestcontext"
)

// ClientMetadata extracts the client IP address and a normalized client
// name from the request and adds them to the context. Apply early in the
// middleware chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIPFromRequest(r)
		name := clientNameFromUserAgent(r.Header.Get("User-Agent"))

		ctx := requestcontext.WithClientMetadata(r.Context(), ip, name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientNameFromUserAgent reduces a raw User-Agent header to a short
// "browser/version" or bot name. Case events persist this string; raw
// User-Agent values are too noisy and too identifying to store.
func clientNameFromUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	parsed := ua.New(raw)
	if parsed.Bot() {
		return "bot"
	}
	name, version := parsed.Browser()
	if name == "" {
		return "unknown"
	}
	if version == "" {
		return name
	}
	// Major version only.
	if idx := strings.Index(version, "."); idx != -1 {
		version = version[:idx]
	}
	return name + "/" + version
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...);
	// the first is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" (IPv6: "[::1]:port").
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}
