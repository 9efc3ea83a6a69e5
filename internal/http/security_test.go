package http

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFlagSuspicious(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		userAgent  string
		method     string
		suspicious bool
	}{
		{name: "ordinary data read", target: "/api/data?month=2026-03", suspicious: false},
		{name: "scripted export", target: "/export?year=2026", userAgent: "curl/8.5.0", suspicious: false},
		{name: "path traversal", target: "/api/../../etc/passwd", suspicious: true},
		{name: "sqlite file probe", target: "/tracker.sqlite", suspicious: true},
		{name: "db backup probe", target: "/backup.db", suspicious: true},
		{name: "env file probe", target: "/.env", suspicious: true},
		{name: "foreign stack probe", target: "/wp-admin/setup.php", suspicious: true},
		{name: "injection in query", target: "/api/data?month=eval(document.cookie)", suspicious: true},
		{name: "scanner agent", target: "/api/data", userAgent: "sqlmap/1.7", suspicious: true},
		{name: "trace method", target: "/api/data", method: "TRACE", suspicious: true},
		{name: "oversized url", target: "/api/data?month=" + strings.Repeat("9", 1100), suspicious: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = "GET"
			}
			r := httptest.NewRequest(method, tt.target, nil)
			if tt.userAgent != "" {
				r.Header.Set("User-Agent", tt.userAgent)
			}

			metrics := &abuseMetrics{}
			if got := flagSuspicious(r, metrics); got != tt.suspicious {
				t.Errorf("flagSuspicious(%s) = %v, want %v", tt.target, got, tt.suspicious)
			}
			wantCount := int64(0)
			if tt.suspicious {
				wantCount = 1
			}
			if metrics.suspicious != wantCount {
				t.Errorf("suspicious counter = %d, want %d", metrics.suspicious, wantCount)
			}
		})
	}

	t.Run("deep forwarding chain", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/data", nil)
		r.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2, 3.3.3.3, 4.4.4.4, 5.5.5.5, 6.6.6.6, 7.7.7.7")
		if !flagSuspicious(r, nil) {
			t.Error("flagSuspicious() = false for a 7-hop forwarding chain, want true")
		}
	})
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		want       string
	}{
		{name: "direct peer", remoteAddr: "203.0.113.9:51000", want: "203.0.113.9"},
		{name: "forwarded via local proxy", remoteAddr: "127.0.0.1:51000", forwarded: "203.0.113.9", want: "203.0.113.9"},
		{name: "forwarded chain keeps first hop", remoteAddr: "10.0.0.5:51000", forwarded: "203.0.113.9, 10.0.0.5", want: "203.0.113.9"},
		{name: "real ip via private proxy", remoteAddr: "192.168.1.1:51000", realIP: "203.0.113.9", want: "203.0.113.9"},
		// A public peer cannot spoof its IP through forwarding headers.
		{name: "forwarding ignored from public peer", remoteAddr: "198.51.100.7:51000", forwarded: "203.0.113.9", want: "198.51.100.7"},
		{name: "garbage forwarded header", remoteAddr: "127.0.0.1:51000", forwarded: "not-an-ip", want: "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/data", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := clientAddr(r); got != tt.want {
				t.Errorf("clientAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}
