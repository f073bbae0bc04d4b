package api

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter housekeeping.
const (
	limiterIdleTTL       = 10 * time.Minute
	limiterSweepInterval = time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client IP and drops buckets idle for limiterIdleTTL.
type clientLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func newClientLimiter() *clientLimiter {
	return &clientLimiter{
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

func (c *clientLimiter) allow(ip string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) >= limiterSweepInterval {
		c.sweep(now)
	}

	entry, ok := c.entries[ip]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Every(rateLimitWindow/rateLimitRequests), rateLimitBurst),
		}
		c.entries[ip] = entry
	}

	entry.lastSeen = now

	return entry.limiter.AllowN(now, 1)
}

func (c *clientLimiter) sweep(now time.Time) {
	for ip, entry := range c.entries {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(c.entries, ip)
		}
	}

	c.lastSweep = now
}

func (c *clientLimiter) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// TrustedProxies lists the networks whose forwarding headers are believed.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies accepts CIDRs and bare IP addresses.
func ParseTrustedProxies(values []string) (TrustedProxies, error) {
	out := make(TrustedProxies, 0, len(values))

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}

		if strings.Contains(v, "/") {
			prefix, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("parse trusted proxy %q: %w", v, err)
			}

			out = append(out, prefix.Masked())

			continue
		}

		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("parse trusted proxy %q: %w", v, err)
		}

		out = append(out, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}

	return out, nil
}

func (p TrustedProxies) contains(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}

	addr = addr.Unmap()

	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}

	return false
}

// clientIP returns the address that rate limiting is keyed on. Forwarding
// headers count only when the direct peer is a trusted proxy; X-Forwarded-For
// is walked right to left past further trusted hops.
func (p TrustedProxies) clientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !p.contains(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}

			if !p.contains(hop) {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	return peer
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return host
}
