package http

import (
	"net"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/nopass/pkg/httpx"
)

// safeRedirect returns target when it is a local path, otherwise fallback.
func safeRedirect(target, fallback string) string {
	if isLocalPath(target) {
		return target
	}
	return fallback
}

func isLocalPath(target string) bool {
	if target == "" || !strings.HasPrefix(target, "/") {
		return false
	}
	// "//host" and "/\host" are treated as network paths by browsers.
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	return !strings.ContainsAny(target, "\r\n")
}

// hostAllowed reports whether the request's Host matches one of allowed.
// A pattern with a leading "." matches the domain and any subdomain.
func hostAllowed(r *http.Request, allowed []string) bool {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return false
	}

	for _, pattern := range allowed {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		switch {
		case pattern == "":
		case pattern == "*":
			return true
		case strings.HasPrefix(pattern, "."):
			if host == pattern[1:] || strings.HasSuffix(host, pattern) {
				return true
			}
		case host == pattern:
			return true
		}
	}
	return false
}

// requestBaseURL is the origin the client used to reach us. Only call it
// once the Host has passed hostAllowed.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func writeServerError(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
}
