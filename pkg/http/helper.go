package http

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	apperrors "portfolio/pkg/errors"
	"strings"
)

// DecodeJSON decodes the request body into target. An empty body leaves
// target untouched when allowEmpty is set.
func DecodeJSON(r *http.Request, target any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(target)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return apperrors.New("PAYLOAD_TOO_LARGE", "Request body too large", http.StatusRequestEntityTooLarge)
	}
	return apperrors.InvalidInput("Invalid request body")
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// ClientIP prefers the first X-Forwarded-For hop and falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
