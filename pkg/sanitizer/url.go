package sanitizer

import (
	"net/url"
	"strings"
)

const DirectReferrer = "Direct"

// NormalizePath returns an absolute path without query or fragment, "/" when empty.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// ReferrerHost reduces a referrer URL to its hostname. Empty referrers are
// reported as Direct and unparseable ones are returned trimmed.
func ReferrerHost(referrer string) string {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return DirectReferrer
	}

	u, err := url.Parse(referrer)
	if err != nil || u.Hostname() == "" {
		return referrer
	}
	return strings.ToLower(u.Hostname())
}
