// internal/middleware/logging.go
package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Endpoint labels for the two websocket surfaces, so log lines distinguish
// game-engine traffic from relay forwarding.
const (
	EndpointGame  = "game"
	EndpointRelay = "relay"
)

// LogMiddleware logs every HTTP request with its method, path, remote address
// and handling duration. Websocket upgrades log their full connection lifetime
// here, since the handler returns only when the connection closes.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"remote":   r.RemoteAddr,
				"duration": time.Since(start),
			}).Info("http request")
		})
	}
}

// LogWebSocketConnect records an accepted websocket upgrade. connID is the
// server-minted connection identity the dispatcher uses to bind seats, so a
// log line can be matched to later disconnect handling.
func LogWebSocketConnect(logger *logrus.Logger, endpoint, remoteAddr, connID string) {
	logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"remote":   remoteAddr,
		"conn_id":  connID,
	}).Info("websocket connected")
}

// LogWebSocketDisconnect records the end of a websocket connection, with the
// read-loop error when the closure was not clean.
func LogWebSocketDisconnect(logger *logrus.Logger, endpoint, remoteAddr, connID string, err error) {
	fields := logrus.Fields{
		"endpoint": endpoint,
		"remote":   remoteAddr,
		"conn_id":  connID,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("websocket disconnected")
}
