package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erendikmenn/erenailab-blog/internal/models"
)

func TestContact(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/contact", map[string]any{
		"name":    "Ada <b>Lovelace</b>",
		"email":   "ada@example.com",
		"subject": "İşbirliği önerisi",
		"message": "Merhaba, bir proje hakkında konuşmak isterim.",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"message":"Message sent successfully!"}`, w.Body.String())

	assert.Eventually(t, func() bool {
		sent := env.notifier.sent()
		return len(sent) == 1 && sent[0] == "Contact: İşbirliği önerisi"
	}, time.Second, 10*time.Millisecond)

	w = env.do(http.MethodPost, "/api/contact", map[string]any{
		"name":    "A",
		"email":   "nope",
		"subject": "Hi",
		"message": "short",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[any](t, w)
	for _, field := range []string{"name", "email", "subject", "message"} {
		assert.Contains(t, resp.FieldErrors, field)
	}

	w = env.do(http.MethodGet, "/api/contact", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, decode[any](t, w).Success)
}

func TestCSPReport(t *testing.T) {
	env := newTestEnv(t)
	report := `{"csp-report":{"document-uri":"https://erenailab.com/","violated-directive":"script-src","blocked-uri":"https://evil.example"}}`

	for i := 0; i < 3; i++ {
		w := env.do(http.MethodPost, "/api/csp-report", report, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"received"}`, w.Body.String())
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.CSPReports.WithLabelValues("logged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.CSPReports.WithLabelValues("dropped")))

	for _, body := range []string{"not json", `{"other":{}}`} {
		w := env.do(http.MethodPost, "/api/csp-report", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.CSPReports.WithLabelValues("invalid")))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Status      string                 `json:"status"`
		Environment string                 `json:"environment"`
		Version     map[string]string      `json:"version"`
		Checks      map[string]healthCheck `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "test", body.Environment)
	assert.Equal(t, "dev", body.Version["version"])
	assert.Equal(t, "healthy", body.Checks["database"].Status)
	assert.Equal(t, "healthy", body.Checks["auth"].Status)

	env.h.Health.jwtSecret = ""
	w = env.do(http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"degraded"`)

	w = env.do(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"up"`)
	assert.Contains(t, w.Body.String(), `"type":"sqlite"`)
}

func TestMaintenanceMode(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(env.user("Admin", "admin@example.com", models.RoleAdmin))
	env.setSetting(models.SettingMaintenanceMode, "true")

	for _, path := range []string{"/api/posts", "/api/comments?postSlug=" + testSlug, "/api/newsletter", "/feed.xml"} {
		w := env.do(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Equal(t, "600", w.Header().Get("Retry-After"), path)
	}

	w := env.do(http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPut, "/api/admin/settings/maintenance_mode", map[string]any{"value": "false", "type": "boolean"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/api/posts", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
