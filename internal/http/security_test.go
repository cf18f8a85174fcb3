package http

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "direct connection",
			remoteAddr: "203.0.113.7:51234",
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded through trusted proxy",
			remoteAddr: "127.0.0.1:8080",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "real-ip from trusted proxy",
			remoteAddr: "192.168.1.10:443",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "forwarding header from untrusted peer is ignored",
			remoteAddr: "203.0.113.7:51234",
			headers:    map[string]string{"X-Forwarded-For": "10.0.0.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "garbage forwarded value falls back to peer",
			remoteAddr: "127.0.0.1:8080",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "127.0.0.1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/overview", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, extractClientIP(r))
		})
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name   string
		target string
		agent  string
		want   bool
	}{
		{"normal api read", "/api/overview?filter=month", "okhttp/4.12", false},
		{"normal transaction write", "/api/transactions", "libretto-android/1.0", false},
		{"curl is fine", "/healthz", "curl/8.5", false},
		{"path traversal", "/api/../etc/passwd", "okhttp/4.12", true},
		{"php probe", "/wp-admin/admin.php", "Mozilla/5.0", true},
		{"traversal in query", "/api/overview?path=../../etc/passwd", "okhttp/4.12", true},
		{"scanner agent", "/api/overview", "sqlmap/1.7", true},
		{"oversized url", "/api/overview?x=" + strings.Repeat("a", maxRequestURL), "okhttp/4.12", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			r.Header.Set("User-Agent", tt.agent)
			assert.Equal(t, tt.want, detectSuspiciousRequest(r, nil))
		})
	}

	t.Run("counts into metrics", func(t *testing.T) {
		m := &securityMetrics{}
		r := httptest.NewRequest("GET", "/api/.git/config", nil)
		assert.True(t, detectSuspiciousRequest(r, m))
		assert.EqualValues(t, 1, m.suspiciousRequests)
	})
}
