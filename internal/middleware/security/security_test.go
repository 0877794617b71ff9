package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	resolver := NewClientIPResolver()

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct public peer ignores headers", "203.0.113.9:1234", "1.2.3.4", "", "203.0.113.9"},
		{"trusted proxy forwards first hop", "10.0.0.2:80", "198.51.100.7, 10.0.0.1", "", "198.51.100.7"},
		{"trusted proxy with invalid xff falls back to x-real-ip", "127.0.0.1:80", "garbage", "198.51.100.8", "198.51.100.8"},
		{"trusted proxy without headers", "192.168.1.1:80", "", "", "192.168.1.1"},
		{"unparseable remote addr", "not-an-ip", "", "", "not-an-ip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := resolver.ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAddTrustedProxy(t *testing.T) {
	resolver := NewClientIPResolver()
	if err := resolver.AddTrustedProxy("nope"); err == nil {
		t.Fatal("expected invalid CIDR error")
	}
	if err := resolver.AddTrustedProxy("203.0.113.0/24"); err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:1234"
	r.Header.Set("X-Forwarded-For", "198.51.100.1")
	if got := resolver.ClientIP(r); got != "198.51.100.1" {
		t.Errorf("ClientIP() = %q", got)
	}
}

func TestDetector(t *testing.T) {
	d := NewDetector(nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := d.Middleware(next)

	tests := []struct {
		name       string
		method     string
		target     string
		agent      string
		wantStatus int
		suspicious bool
	}{
		{"normal api call", http.MethodGet, "/api/expenses", "Mozilla/5.0", http.StatusOK, false},
		{"path traversal is logged but served", http.MethodGet, "/static/../.env", "", http.StatusOK, true},
		{"scanner agent", http.MethodGet, "/", "sqlmap/1.7", http.StatusOK, true},
		{"trace method is rejected", "TRACE", "/", "", http.StatusMethodNotAllowed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			r.Header.Set("User-Agent", tt.agent)
			if got, _ := d.Suspicious(r); got != tt.suspicious {
				t.Errorf("Suspicious() = %v, want %v", got, tt.suspicious)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	if m := d.GetMetrics(); m.BlockedRequests != 1 || m.SuspiciousRequests != 3 {
		t.Errorf("unexpected metrics %+v", m)
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("allow all", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CORS(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("expected wildcard origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
	})

	t.Run("allow list", func(t *testing.T) {
		h := CORS([]string{"https://app.example.com"})(next)

		r := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
		r.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
			t.Errorf("expected echoed origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}

		r = httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
		r.Header.Set("Origin", "https://evil.example.com")
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Errorf("unexpected origin header %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
	})

	t.Run("preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/api/expenses", nil)
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		CORS(nil)(next).ServeHTTP(rec, r)
		if rec.Code != http.StatusNoContent {
			t.Errorf("preflight status = %d", rec.Code)
		}
	})
}

func TestHeadersMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Frame-Options") != "DENY" || rec.Header().Get("Content-Security-Policy") == "" {
		t.Errorf("missing document headers: %v", rec.Header())
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must only be sent over TLS")
	}

	rec = httptest.NewRecorder()
	NewHeadersMiddleware(APIHeadersConfig()).Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))
	if rec.Header().Get("Cross-Origin-Embedder-Policy") != "" {
		t.Error("API responses should not set COEP")
	}
	if rec.Header().Get("Cross-Origin-Resource-Policy") != "cross-origin" {
		t.Errorf("CORP = %q", rec.Header().Get("Cross-Origin-Resource-Policy"))
	}
}
