// internal/middleware/logging_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMiddlewareRecordsRequest(t *testing.T) {
	logger, hook := test.NewNullLogger()
	handler := LogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, http.MethodGet, entry.Data["method"])
	assert.Equal(t, "/health", entry.Data["path"])
	assert.Contains(t, entry.Data, "duration")
}

func TestWebSocketLifecycleFields(t *testing.T) {
	logger, hook := test.NewNullLogger()

	LogWebSocketConnect(logger, EndpointGame, "1.2.3.4:5678", "conn-1")
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, EndpointGame, entry.Data["endpoint"])
	assert.Equal(t, "conn-1", entry.Data["conn_id"])

	LogWebSocketDisconnect(logger, EndpointRelay, "1.2.3.4:5678", "conn-2", assert.AnError)
	entry = hook.LastEntry()
	assert.Equal(t, EndpointRelay, entry.Data["endpoint"])
	assert.Equal(t, "conn-2", entry.Data["conn_id"])
	assert.Equal(t, assert.AnError, entry.Data["error"])

	// A clean closure logs no error field.
	LogWebSocketDisconnect(logger, EndpointGame, "1.2.3.4:5678", "conn-3", nil)
	assert.NotContains(t, hook.LastEntry().Data, "error")
}
