package security

import (
	"net/http"
	"strings"
	"sync/atomic"

	"fintrack/internal/log"
)

var (
	suspiciousPatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}
	scannerAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan",
	}
	unusualMethods = map[string]bool{
		"TRACE": true, "TRACK": true, "DEBUG": true, "CONNECT": true,
	}
)

// maxURLLength above which a request is flagged as an overflow attempt.
const maxURLLength = 2048

// DetectionMetrics tracks security detection events
type DetectionMetrics struct {
	SuspiciousRequests int64
	BlockedRequests    int64
}

// Detector flags requests that look like scanning or injection attempts.
// Flagged requests are logged; unusual methods are also rejected.
type Detector struct {
	metrics   DetectionMetrics
	extractIP func(*http.Request) string
}

// NewDetector creates a new security detector
func NewDetector(extractIP func(*http.Request) string) *Detector {
	return &Detector{extractIP: extractIP}
}

// Suspicious reports whether the request matches a known attack pattern and
// names the first rule that matched.
func (d *Detector) Suspicious(r *http.Request) (bool, string) {
	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	for _, pattern := range suspiciousPatterns {
		if strings.Contains(path, pattern) {
			return true, "path:" + pattern
		}
		if strings.Contains(query, pattern) {
			return true, "query:" + pattern
		}
	}

	userAgent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, agent := range scannerAgents {
		if strings.Contains(userAgent, agent) {
			return true, "agent:" + agent
		}
	}

	if unusualMethods[r.Method] {
		return true, "method:" + r.Method
	}

	if len(r.URL.String()) > maxURLLength {
		return true, "url_length"
	}

	// More than five proxy hops suggests header manipulation.
	if strings.Count(r.Header.Get("X-Forwarded-For"), ",") > 5 {
		return true, "forwarded_hops"
	}

	return false, ""
}

// Middleware logs suspicious requests and rejects unusual methods.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if suspicious, rule := d.Suspicious(r); suspicious {
			atomic.AddInt64(&d.metrics.SuspiciousRequests, 1)

			clientIP := ""
			if d.extractIP != nil {
				clientIP = d.extractIP(r)
			}
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
				"rule", rule,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, clientIP)

			if unusualMethods[r.Method] {
				atomic.AddInt64(&d.metrics.BlockedRequests, 1)
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// GetMetrics returns current security metrics
func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: atomic.LoadInt64(&d.metrics.SuspiciousRequests),
		BlockedRequests:    atomic.LoadInt64(&d.metrics.BlockedRequests),
	}
}
