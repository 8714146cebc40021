// Copyright (c) 2025 Codrava Labs
//
// This file is part of prospectd.
//
// prospectd is licensed under the GNU Affero General Public License v3.0.
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Package metrics provides Prometheus instrumentation for authentication
// decisions and the HTTP surface.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all prospectd metrics.
	Namespace = "prospectd"

	// Label names
	LabelMethod     = "method"
	LabelStatus     = "status"
	LabelCeremony   = "ceremony"
	LabelStatusCode = "status_code"

	// Status values
	StatusSuccess = "success"
	StatusFailure = "failure"

	// Authentication method values
	MethodPassword  = "password"
	MethodBiometric = "biometric"

	// Ceremony values
	CeremonyRegistration = "registration"
	CeremonyLogin        = "login"
)

var (
	// LoginAttemptsTotal tracks authentication decisions by method and outcome.
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts by method and outcome",
		},
		[]string{LabelMethod, LabelStatus},
	)

	// IntrusionAttemptsTotal tracks password attempts rejected because the
	// account is in biometric-only mode.
	IntrusionAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "auth",
			Name:      "intrusion_attempts_total",
			Help:      "Total number of password attempts against biometric-only accounts",
		},
	)

	// CeremoniesTotal tracks WebAuthn ceremony verifications by kind and outcome.
	CeremoniesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "webauthn",
			Name:      "ceremonies_total",
			Help:      "Total number of WebAuthn ceremony verifications by kind and outcome",
		},
		[]string{LabelCeremony, LabelStatus},
	)

	// HTTPRequestsTotal tracks the total number of HTTP requests by method
	// and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method and status code",
		},
		[]string{LabelMethod, LabelStatusCode},
	)

	// HTTPRequestDuration tracks the duration of HTTP requests in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod},
	)

	// Goroutines tracks the current number of goroutines.
	// Updated periodically by the resource collector.
	Goroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	// MemoryAllocBytes tracks the current bytes of allocated heap objects.
	// Updated periodically by the resource collector.
	MemoryAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Current bytes of allocated heap objects",
		},
	)

	// ServerUptime tracks the server uptime in seconds since startup.
	ServerUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "server_uptime_seconds",
			Help:      "Server uptime in seconds since startup",
		},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	enabled.Store(true)
}

// RecordLoginAttempt records an authentication decision.
func RecordLoginAttempt(method string, success bool) {
	if !enabled.Load() {
		return
	}
	status := StatusFailure
	if success {
		status = StatusSuccess
	}
	LoginAttemptsTotal.WithLabelValues(method, status).Inc()
}

// RecordIntrusionAttempt records a password attempt rejected by the
// biometric-only policy.
func RecordIntrusionAttempt() {
	if !enabled.Load() {
		return
	}
	IntrusionAttemptsTotal.Inc()
}

// RecordCeremony records a WebAuthn ceremony verification outcome.
func RecordCeremony(ceremony string, success bool) {
	if !enabled.Load() {
		return
	}
	status := StatusFailure
	if success {
		status = StatusSuccess
	}
	CeremoniesTotal.WithLabelValues(ceremony, status).Inc()
}

// RecordHTTPRequest records an HTTP request with its duration and status.
func RecordHTTPRequest(method, statusCode string, duration float64) {
	if !enabled.Load() {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(duration)
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
