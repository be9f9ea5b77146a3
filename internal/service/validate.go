package service

import (
	"net"
	"net/url"
	"strings"
)

var allowedSchemes = map[string]struct{}{
	"http":  {},
	"https": {},
	"ftp":   {},
}

// isValidURL reports whether raw is an absolute URL with a recognized scheme
// and a resolvable-looking host: a dotted domain, localhost or an IP literal.
func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	if _, ok := allowedSchemes[strings.ToLower(u.Scheme)]; !ok {
		return false
	}

	host := u.Hostname()
	if host == "" {
		return false
	}

	if host == "localhost" || net.ParseIP(host) != nil {
		return true
	}

	return strings.Contains(host, ".") && !strings.HasPrefix(host, ".") && !strings.HasSuffix(host, ".")
}
