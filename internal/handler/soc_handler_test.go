package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cortexsoc/internal/config"
	"cortexsoc/internal/detect"
	"cortexsoc/internal/handler"
	"cortexsoc/internal/metrics"
	"cortexsoc/internal/models"
	"cortexsoc/internal/repository/memory"
	"cortexsoc/internal/respond"
	"cortexsoc/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	logs := memory.NewLogStore()
	incidents := memory.NewIncidentStore()
	engine := detect.NewEngine(config.DetectionConfig{
		FailedLoginThreshold: 5,
		RapidLoginWindow:     60 * time.Second,
		RapidLoginCount:      3,
		QuietHourStart:       22,
		QuietHourEnd:         6,
	}, logger)
	executors := respond.NewExecutorSet(logger)
	responder := respond.NewResponder(incidents, executors, logger)

	svc := service.NewSOCService(
		logs,
		incidents,
		engine,
		responder,
		executors,
		service.Sinks{},
		metrics.NewMetrics(prometheus.NewRegistry()),
		logger,
	)

	socHandler := handler.NewSOCHandler(svc, logger)
	server := httptest.NewServer(handler.NewRouter(socHandler, logger))
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// ingestFailedLogins feeds n failed_login records for user at daytime hours.
func ingestFailedLogins(t *testing.T, server *httptest.Server, user, ip string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		resp := postJSON(t, server.URL+"/ingest", map[string]interface{}{
			"type":      "failed_login",
			"user":      user,
			"ip":        ip,
			"timestamp": fmt.Sprintf("2024-03-15T12:%02d:00Z", i),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestIngest(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/ingest", map[string]interface{}{
		"type":      "login",
		"user":      "alice",
		"origin":    "US",
		"ip":        "1.2.3.4",
		"timestamp": "2024-03-15T12:00:00Z",
		"raw":       map[string]interface{}{"device": "laptop"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Ingested models.LogRecord `json:"ingested"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, int64(1), body.Ingested.ID)
	assert.Equal(t, "login", body.Ingested.Type)
	assert.Equal(t, "alice", body.Ingested.User)
	assert.Equal(t, "US", body.Ingested.Origin)
	assert.Equal(t, "laptop", body.Ingested.Raw["device"])
}

func TestIngest_Invalid(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"type":`},
		{"missing type", `{"user":"alice"}`},
		{"bad timestamp", `{"type":"login","timestamp":"yesterday"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/ingest", "application/json", bytes.NewReader([]byte(tt.body)))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestDetect_FailedLoginThreshold(t *testing.T) {
	server := newTestServer(t)
	ingestFailedLogins(t, server, "bob", "10.0.0.5", 6)

	resp, err := http.Get(server.URL + "/detect")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var alerts []map[string]interface{}
	decodeBody(t, resp, &alerts)
	require.Len(t, alerts, 1)

	a := alerts[0]
	assert.Equal(t, "bob", a["user"])
	assert.Equal(t, "failed_login_threshold", a["reason"])
	assert.Equal(t, "high", a["severity"])
	assert.Equal(t, float64(5), a["failed_count"])
	assert.NotContains(t, a, "id", "alert IDs are internal")
	assert.Contains(t, a, "record")
}

func TestDetect_EmptyHistory(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/detect")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var alerts []map[string]interface{}
	decodeBody(t, resp, &alerts)
	assert.Empty(t, alerts)
}

func TestDetectAndRespond(t *testing.T) {
	server := newTestServer(t)
	ingestFailedLogins(t, server, "bob", "10.0.0.5", 6)

	resp := postJSON(t, server.URL+"/detect-and-respond", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		AlertsGenerated  int                `json:"alerts_generated"`
		IncidentsCreated int                `json:"incidents_created"`
		Incidents        []*models.Incident `json:"incidents"`
	}
	decodeBody(t, resp, &body)

	assert.Equal(t, 1, body.AlertsGenerated)
	assert.Equal(t, 1, body.IncidentsCreated)
	require.Len(t, body.Incidents, 1)

	incident := body.Incidents[0]
	assert.Equal(t, int64(1), incident.ID)
	assert.Equal(t, models.ReasonFailedLoginThreshold, incident.AlertReason)
	assert.Equal(t, models.IncidentStatusActive, incident.Status)
	require.Len(t, incident.Actions, 3)
	assert.Equal(t, "disable_account", incident.Actions[0].Action)
	assert.Equal(t, "bob", incident.Actions[0].Target)
	assert.Equal(t, "block_ip", incident.Actions[1].Action)
	assert.Equal(t, "10.0.0.5", incident.Actions[1].Target)
	assert.Equal(t, "alert", incident.Actions[2].Action)

	// The incident is visible through the read endpoints afterwards.
	getResp, err := http.Get(server.URL + "/incidents/1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var fetched models.Incident
	decodeBody(t, getResp, &fetched)
	assert.Equal(t, incident.AlertID, fetched.AlertID)
	assert.Len(t, fetched.Actions, 3)
}

func TestRespond_ManualAction(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/respond", map[string]string{
		"action": "block_ip",
		"target": "1.2.3.4",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.ActionResult
	decodeBody(t, resp, &result)
	assert.Equal(t, "block_ip", result.Action)
	assert.Equal(t, "1.2.3.4", result.Target)
	assert.Equal(t, models.ActionStatusSuccess, result.Status)
	assert.Contains(t, result.Details, "1.2.3.4")
}

func TestRespond_UnknownAction(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/respond", map[string]string{
		"action": "quarantine_host",
		"target": "web-01",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "unknown action", body["error"])
}

func TestGetIncident_NotFound(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/incidents/999")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "incident not found", body["error"])
}

func TestListIncidents_EmptyIsArray(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/incidents")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(raw))
}

func TestRecentLogs(t *testing.T) {
	server := newTestServer(t)
	ingestFailedLogins(t, server, "bob", "", 3)

	resp, err := http.Get(server.URL + "/logs?limit=2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []models.LogRecord
	decodeBody(t, resp, &records)
	require.Len(t, records, 2)
	assert.Equal(t, int64(2), records[0].ID)
	assert.Equal(t, int64(3), records[1].ID)
}

func TestSearchLogs_UnavailableWithoutIndex(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/logs/search?q=bob")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
