package detect

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cortexsoc/internal/config"
	"cortexsoc/internal/models"
)

func testEngine() *Engine {
	return NewEngine(config.DetectionConfig{
		FailedLoginThreshold: 5,
		RapidLoginWindow:     60 * time.Second,
		RapidLoginCount:      3,
		QuietHourStart:       22,
		QuietHourEnd:         6,
	}, nil)
}

// at builds a UTC timestamp on a fixed reference day. Noon-based so the
// unusual-login-time rule stays quiet unless a test opts in.
func at(hour, min, sec int) time.Time {
	return time.Date(2024, 3, 15, hour, min, sec, 0, time.UTC)
}

func login(id int64, user, origin, ip string, ts time.Time) models.LogRecord {
	return models.LogRecord{
		ID:        id,
		Timestamp: ts,
		Type:      models.RecordTypeLogin,
		User:      user,
		Origin:    origin,
		IP:        ip,
	}
}

func failedLogin(id int64, user, ip string, ts time.Time) models.LogRecord {
	return models.LogRecord{
		ID:        id,
		Timestamp: ts,
		Type:      models.RecordTypeFailedLogin,
		User:      user,
		IP:        ip,
	}
}

func alertsByReason(alerts []models.Alert, reason models.AlertReason) []models.Alert {
	var out []models.Alert
	for _, a := range alerts {
		if a.Reason == reason {
			out = append(out, a)
		}
	}
	return out
}

func TestDetect_Deterministic(t *testing.T) {
	engine := testEngine()

	logs := []models.LogRecord{
		login(1, "alice", "US", "1.2.3.4", at(12, 0, 0)),
		login(2, "alice", "UK", "5.6.7.8", at(12, 5, 0)),
		failedLogin(3, "bob", "10.0.0.1", at(12, 6, 0)),
		login(4, "carol", "", "", at(23, 0, 0)),
	}

	first := engine.Detect(logs)
	second := engine.Detect(logs)

	require.Len(t, second, len(first))
	for i := range first {
		// Correlation IDs are fresh per run; everything observable must match.
		first[i].ID = ""
		second[i].ID = ""
		assert.Equal(t, first[i], second[i])
	}
}

func TestRuleNewOrigin(t *testing.T) {
	tests := []struct {
		name        string
		logs        []models.LogRecord
		wantOrigins []string
	}{
		{
			name: "first login never flagged",
			logs: []models.LogRecord{
				login(1, "alice", "US", "", at(12, 0, 0)),
			},
			wantOrigins: nil,
		},
		{
			name: "second origin flagged once",
			logs: []models.LogRecord{
				login(1, "alice", "US", "", at(12, 0, 0)),
				login(2, "alice", "UK", "", at(12, 1, 0)),
				login(3, "alice", "UK", "", at(12, 2, 0)),
			},
			wantOrigins: []string{"UK"},
		},
		{
			name: "each distinct new origin flagged",
			logs: []models.LogRecord{
				login(1, "alice", "US", "", at(12, 0, 0)),
				login(2, "alice", "UK", "", at(12, 1, 0)),
				login(3, "alice", "DE", "", at(12, 2, 0)),
				login(4, "alice", "US", "", at(12, 3, 0)),
			},
			wantOrigins: []string{"UK", "DE"},
		},
		{
			name: "users tracked independently",
			logs: []models.LogRecord{
				login(1, "alice", "US", "", at(12, 0, 0)),
				login(2, "bob", "US", "", at(12, 1, 0)),
				login(3, "bob", "UK", "", at(12, 2, 0)),
			},
			wantOrigins: []string{"UK"},
		},
		{
			name: "missing origin ignored",
			logs: []models.LogRecord{
				login(1, "alice", "US", "", at(12, 0, 0)),
				login(2, "alice", "", "", at(12, 1, 0)),
			},
			wantOrigins: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := alertsByReason(testEngine().Detect(tt.logs), models.ReasonNewOrigin)
			require.Len(t, alerts, len(tt.wantOrigins))
			for i, a := range alerts {
				assert.Equal(t, tt.wantOrigins[i], a.Origin)
				assert.Equal(t, models.SeverityMedium, a.Severity)
				assert.NotNil(t, a.Record)
			}
		})
	}
}

func TestRuleFailedLoginThreshold_FiresOnceAtCrossing(t *testing.T) {
	engine := testEngine()

	var logs []models.LogRecord
	for i := 0; i < 7; i++ {
		logs = append(logs, failedLogin(int64(i+1), "bob", fmt.Sprintf("10.0.0.%d", i+1), at(12, i, 0)))
	}

	alerts := alertsByReason(engine.Detect(logs), models.ReasonFailedLoginThreshold)
	require.Len(t, alerts, 1, "must fire exactly once per user per run")

	a := alerts[0]
	assert.Equal(t, "bob", a.User)
	assert.Equal(t, models.SeverityHigh, a.Severity)
	assert.Equal(t, 5, a.FailedCount, "alert carries the count at the crossing point")
	assert.Equal(t, int64(5), a.Record.ID, "fires on the 5th qualifying record")
}

func TestRuleFailedLoginThreshold_BelowThresholdSilent(t *testing.T) {
	engine := testEngine()

	var logs []models.LogRecord
	for i := 0; i < 4; i++ {
		logs = append(logs, failedLogin(int64(i+1), "bob", "", at(12, i, 0)))
	}

	alerts := alertsByReason(engine.Detect(logs), models.ReasonFailedLoginThreshold)
	assert.Empty(t, alerts)
}

func TestRuleFailedLoginThreshold_PerUserCounts(t *testing.T) {
	engine := testEngine()

	var logs []models.LogRecord
	id := int64(1)
	for i := 0; i < 5; i++ {
		logs = append(logs, failedLogin(id, "bob", "", at(12, i, 0)))
		id++
		logs = append(logs, failedLogin(id, "carol", "", at(12, i, 30)))
		id++
	}

	alerts := alertsByReason(engine.Detect(logs), models.ReasonFailedLoginThreshold)
	require.Len(t, alerts, 2)
	assert.Equal(t, "bob", alerts[0].User)
	assert.Equal(t, "carol", alerts[1].User)
}

func TestRuleUnusualLoginTime_HourBoundaries(t *testing.T) {
	engine := testEngine()

	for hour := 0; hour < 24; hour++ {
		logs := []models.LogRecord{login(1, "alice", "", "", at(hour, 30, 0))}
		alerts := alertsByReason(engine.Detect(logs), models.ReasonUnusualLoginTime)

		wantFire := hour >= 22 || hour < 6
		if wantFire {
			require.Len(t, alerts, 1, "hour %d should fire", hour)
			assert.Equal(t, models.SeverityLow, alerts[0].Severity)
		} else {
			assert.Empty(t, alerts, "hour %d should not fire", hour)
		}
	}
}

func TestRuleRapidLogins(t *testing.T) {
	tests := []struct {
		name      string
		offsets   []int // seconds from a noon base, one login each
		wantFires int
	}{
		{
			name:      "three logins within a minute",
			offsets:   []int{0, 20, 40},
			wantFires: 1,
		},
		{
			name:      "two logins 59 seconds apart stay silent",
			offsets:   []int{0, 59},
			wantFires: 0,
		},
		{
			name:      "three logins spread over two minutes stay silent",
			offsets:   []int{0, 61, 122},
			wantFires: 0,
		},
		{
			name:      "fourth login does not re-trigger the same cluster",
			offsets:   []int{0, 10, 20, 30},
			wantFires: 1,
		},
		{
			name:      "fresh cluster after the first fires again",
			offsets:   []int{0, 10, 20, 200, 210, 220},
			wantFires: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := at(12, 0, 0)
			var logs []models.LogRecord
			for i, off := range tt.offsets {
				logs = append(logs, login(int64(i+1), "alice", "", "", base.Add(time.Duration(off)*time.Second)))
			}

			alerts := alertsByReason(testEngine().Detect(logs), models.ReasonRapidLogins)
			assert.Len(t, alerts, tt.wantFires)
			for _, a := range alerts {
				assert.Equal(t, models.SeverityMedium, a.Severity)
				assert.Equal(t, "alice", a.User)
			}
		})
	}
}

func TestDetect_AlertsConcatenatedInRuleOrder(t *testing.T) {
	engine := testEngine()

	logs := []models.LogRecord{
		// new_origin for alice at an unusual hour
		login(1, "alice", "US", "", at(23, 0, 0)),
		login(2, "alice", "UK", "", at(23, 1, 0)),
		// failed-login threshold for bob
		failedLogin(3, "bob", "", at(23, 2, 0)),
		failedLogin(4, "bob", "", at(23, 3, 0)),
		failedLogin(5, "bob", "", at(23, 4, 0)),
		failedLogin(6, "bob", "", at(23, 5, 0)),
		failedLogin(7, "bob", "", at(23, 6, 0)),
	}

	alerts := engine.Detect(logs)

	var reasons []models.AlertReason
	for _, a := range alerts {
		reasons = append(reasons, a.Reason)
	}
	assert.Equal(t, []models.AlertReason{
		models.ReasonNewOrigin,
		models.ReasonFailedLoginThreshold,
		models.ReasonUnusualLoginTime,
		models.ReasonUnusualLoginTime,
	}, reasons, "rule-major order, log order within each rule")
}

func TestDetect_NonLoginRecordsIgnored(t *testing.T) {
	engine := testEngine()

	logs := []models.LogRecord{
		{ID: 1, Timestamp: at(23, 0, 0), Type: "firewall_drop", User: "alice"},
		{ID: 2, Timestamp: at(23, 1, 0), Type: "dns_query", User: "alice"},
	}

	assert.Empty(t, engine.Detect(logs))
}
