/*
Package metrics defines the Prometheus collectors of the server and exposes them on /metrics.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth operation labels.
const (
	OpRegister       = "register"
	OpLogin          = "login"
	OpMe             = "me"
	OpChangePassword = "change_password"
)

// Auth result labels.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "echospace",
		Subsystem: "auth",
		Name:      "attempts_total",
		Help:      "Authentication operations by operation and result.",
	}, []string{"op", "result"})

	socketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "echospace",
		Subsystem: "socket",
		Name:      "connections",
		Help:      "Currently open placeholder socket connections.",
	})
)

// AuthAttempt counts one auth operation outcome.
func AuthAttempt(op, result string) {
	authAttempts.WithLabelValues(op, result).Inc()
}

// SocketConnected and SocketDisconnected track open socket connections.
func SocketConnected() { socketConnections.Inc() }

func SocketDisconnected() { socketConnections.Dec() }

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
