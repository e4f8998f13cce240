package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the address a request is rate limited and logged under.
// Forwarding headers count only when the connection comes from a trusted proxy.
// A nil *ClientIP trusts nobody.
type ClientIP struct {
	trusted []*net.IPNet
}

// NewClientIP parses proxies as single IPs or CIDR ranges.
func NewClientIP(proxies []string) (*ClientIP, error) {
	c := &ClientIP{}
	for _, p := range proxies {
		if !strings.Contains(p, "/") {
			ip := net.ParseIP(p)
			if ip == nil {
				return nil, fmt.Errorf("trusted proxy %q: invalid IP", p)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			p = fmt.Sprintf("%s/%d", p, bits)
		}
		_, n, err := net.ParseCIDR(p)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", p, err)
		}
		c.trusted = append(c.trusted, n)
	}
	return c, nil
}

// Of returns the connection address, or when that is a trusted proxy the
// right-most X-Forwarded-For hop that is not itself trusted.
func (c *ClientIP) Of(r *http.Request) string {
	remote := hostOnly(r.RemoteAddr)
	if !c.isTrusted(remote) {
		return remote
	}
	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !c.isTrusted(hop) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-Ip")); xri != "" {
		return xri
	}
	return remote
}

func (c *ClientIP) isTrusted(addr string) bool {
	if c == nil {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range c.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
