package obs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
)

func TestRequestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "json", "info")

	handler := middleware.RequestID(middleware.RealIP(RequestLogger{Logger: logger}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Missing fields"}`))
	}))))

	req := httptest.NewRequest(http.MethodPost, "/api/send-email", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("Origin", "https://saige.example")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "http_request", entry["message"])
	require.Equal(t, "POST", entry["method"])
	require.EqualValues(t, 400, entry["status"])
	require.Equal(t, "203.0.113.9", entry["client_ip"])
	require.Equal(t, "https://saige.example", entry["origin"])
	require.NotEmpty(t, entry["request_id"])
}
