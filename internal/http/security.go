package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

// abuseMetrics counts throttled and flagged requests. Fields are
// bumped with atomics because the middleware touches them from every
// request goroutine.
type abuseMetrics struct {
	rateLimited int64
	suspicious  int64
}

// Forwarding headers are only honored when the direct peer is one of
// these networks, i.e. the reverse proxy in front of the tracker.
var trustedProxies = []*net.IPNet{
	mustCIDR("127.0.0.0/8"),
	mustCIDR("10.0.0.0/8"),
	mustCIDR("172.16.0.0/12"),
	mustCIDR("192.168.0.0/16"),
}

func mustCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("bad trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

func fromTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// clientAddr resolves the real client IP. X-Forwarded-For and
// X-Real-IP are spoofable, so they only count when the connection
// itself comes from a trusted proxy; otherwise the peer address wins.
func clientAddr(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}

	peerIP := net.ParseIP(peer)
	if peerIP == nil {
		return peer
	}

	if fromTrustedProxy(peerIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(first) != nil {
				return first
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	return peer
}

// probePatterns are path and query fragments that have no business on
// a JSON ledger API: traversal, scanner fixtures for other stacks, and
// attempts to pull the SQLite file or its backups directly.
var probePatterns = []string{
	"../", "..\\", "etc/passwd",
	".env", ".git", ".ssh",
	".db", ".sqlite", "backup.",
	"wp-admin", "phpmyadmin", ".php",
	"<script", "javascript:", "union select", "eval(",
}

// scannerAgents mark automated tooling. curl and wget stay off the
// list: the export endpoint is meant to be scripted.
var scannerAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb",
	"scanner", "crawler", "spider", "scraper",
}

// flagSuspicious reports whether the request smells like probing and
// counts it. Flagged requests are logged, not blocked; the rate
// limiter handles volume.
func flagSuspicious(r *http.Request, metrics *abuseMetrics) bool {
	suspicious := false

	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	for _, pattern := range probePatterns {
		if strings.Contains(path, pattern) || strings.Contains(query, pattern) {
			suspicious = true
			break
		}
	}

	agent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, scanner := range scannerAgents {
		if strings.Contains(agent, scanner) {
			suspicious = true
			break
		}
	}

	switch r.Method {
	case "TRACE", "TRACK", "CONNECT":
		suspicious = true
	}

	// Legitimate URLs here are short: a path segment plus a month or
	// date query parameter.
	if len(r.URL.String()) > 1024 {
		suspicious = true
	}

	// A forwarding chain this deep never occurs in this deployment.
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		suspicious = true
	}

	if suspicious && metrics != nil {
		atomic.AddInt64(&metrics.suspicious, 1)
	}

	return suspicious
}
