// Package ipfilter provides a pre-routing allow-list filter keyed on the
// requester address. An empty allow-list admits everyone.
package ipfilter

import (
	"fmt"
	"net/http"
	"net/netip"

	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

// ParsePrefixes converts configured subnet strings into prefixes. Bare
// addresses are accepted and treated as single-address prefixes.
func ParsePrefixes(subnets []string) ([]netip.Prefix, error) {
	const op = "ipfilter.ParsePrefixes"

	prefixes := make([]netip.Prefix, 0, len(subnets))
	for _, s := range subnets {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			addr, addrErr := netip.ParseAddr(s)
			if addrErr != nil {
				return nil, fmt.Errorf("%s: failed to parse subnet %q: %w", op, s, err)
			}
			p = netip.PrefixFrom(addr, addr.BitLen())
		}
		prefixes = append(prefixes, p)
	}

	return prefixes, nil
}

// Allowed reports whether addr is admitted by the allow-list.
func Allowed(addr netip.Addr, allowed []netip.Prefix) bool {
	if len(allowed) == 0 {
		return true
	}

	for _, p := range allowed {
		if p.Contains(addr.Unmap()) {
			return true
		}
	}

	return false
}

// New returns a middleware rejecting requests from addresses outside the
// allow-list with 403. It relies on chi's RealIP middleware running first
// so RemoteAddr reflects the requester.
func New(allowed []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// RealIP rewrites RemoteAddr to a bare address; without it the
			// value still carries the port.
			addr, err := netip.ParseAddr(r.RemoteAddr)
			if err != nil {
				addrPort, portErr := netip.ParseAddrPort(r.RemoteAddr)
				if portErr != nil {
					render.Status(r, http.StatusForbidden)
					render.JSON(w, r, response.ForbiddenResponse)
					return
				}
				addr = addrPort.Addr()
			}

			if !Allowed(addr, allowed) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.ForbiddenResponse)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
