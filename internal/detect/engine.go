package detect

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cortexsoc/internal/config"
	"cortexsoc/internal/models"
	"cortexsoc/internal/util"
)

// Engine evaluates the fixed set of detection rules over an ordered log
// sequence. Detect is a pure function of its input: all correlation state
// (seen origins, failure counts, login windows) is local to a single run and
// discarded afterward, so detection is safe to invoke concurrently as long
// as each caller passes its own snapshot of the log sequence.
type Engine struct {
	cfg    config.DetectionConfig
	logger *zap.Logger
}

// NewEngine creates a detection engine with the given rule parameters.
func NewEngine(cfg config.DetectionConfig, logger *zap.Logger) *Engine {
	if cfg.FailedLoginThreshold <= 0 {
		cfg.FailedLoginThreshold = 5
	}
	if cfg.RapidLoginWindow <= 0 {
		cfg.RapidLoginWindow = 60 * time.Second
	}
	if cfg.RapidLoginCount <= 0 {
		cfg.RapidLoginCount = 3
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Detect runs all rules over the log sequence in fixed order and returns the
// concatenated alerts: rule-major, then log-traversal order within each rule.
// No cross-rule deduplication is performed.
func (e *Engine) Detect(logs []models.LogRecord) []models.Alert {
	alerts := make([]models.Alert, 0)
	alerts = append(alerts, e.ruleNewOrigin(logs)...)
	alerts = append(alerts, e.ruleFailedLoginThreshold(logs)...)
	alerts = append(alerts, e.ruleUnusualLoginTime(logs)...)
	alerts = append(alerts, e.ruleRapidLogins(logs)...)

	if e.logger != nil {
		e.logger.Debug("detection run completed",
			util.Int("logs", len(logs)),
			util.Int("alerts", len(alerts)),
		)
	}
	return alerts
}

// newAlert builds an alert for a rule firing on the given record. The UUID is
// an in-process correlation handle used as the incident's alert linkage.
func newAlert(reason models.AlertReason, rec *models.LogRecord) models.Alert {
	return models.Alert{
		ID:       uuid.NewString(),
		User:     rec.User,
		Reason:   reason,
		Severity: models.ReasonSeverity(reason),
		Record:   rec,
	}
}

// ruleNewOrigin flags logins from an origin not previously seen for the
// user. The first origin observed for a user only seeds the seen-set; there
// is no prior origin to compare against, so it never fires.
func (e *Engine) ruleNewOrigin(logs []models.LogRecord) []models.Alert {
	var alerts []models.Alert
	seen := make(map[string]map[string]struct{})

	for i := range logs {
		rec := &logs[i]
		if rec.Type != models.RecordTypeLogin || rec.User == "" || rec.Origin == "" {
			continue
		}
		origins, ok := seen[rec.User]
		if !ok {
			seen[rec.User] = map[string]struct{}{rec.Origin: {}}
			continue
		}
		if _, known := origins[rec.Origin]; known {
			continue
		}
		origins[rec.Origin] = struct{}{}

		a := newAlert(models.ReasonNewOrigin, rec)
		a.Origin = rec.Origin
		a.IP = rec.IP
		alerts = append(alerts, a)
	}
	return alerts
}

// ruleFailedLoginThreshold counts failed logins per user in traversal order
// and fires exactly once per user per run, at the record where the count
// crosses the threshold. The alert carries the count at the crossing point.
func (e *Engine) ruleFailedLoginThreshold(logs []models.LogRecord) []models.Alert {
	var alerts []models.Alert
	counts := make(map[string]int)
	fired := make(map[string]struct{})

	for i := range logs {
		rec := &logs[i]
		if rec.Type != models.RecordTypeFailedLogin || rec.User == "" {
			continue
		}
		counts[rec.User]++
		if counts[rec.User] < e.cfg.FailedLoginThreshold {
			continue
		}
		if _, done := fired[rec.User]; done {
			continue
		}
		fired[rec.User] = struct{}{}

		a := newAlert(models.ReasonFailedLoginThreshold, rec)
		a.IP = rec.IP
		a.FailedCount = counts[rec.User]
		alerts = append(alerts, a)
	}
	return alerts
}

// ruleUnusualLoginTime flags logins whose UTC hour falls in the configured
// quiet window (default 22:00 inclusive to 06:00 exclusive). Stateless,
// evaluated independently per record.
func (e *Engine) ruleUnusualLoginTime(logs []models.LogRecord) []models.Alert {
	var alerts []models.Alert

	for i := range logs {
		rec := &logs[i]
		if rec.Type != models.RecordTypeLogin || rec.User == "" {
			continue
		}
		if !e.inQuietHours(rec.Timestamp.UTC().Hour()) {
			continue
		}
		alerts = append(alerts, newAlert(models.ReasonUnusualLoginTime, rec))
	}
	return alerts
}

func (e *Engine) inQuietHours(hour int) bool {
	start, end := e.cfg.QuietHourStart, e.cfg.QuietHourEnd
	if start > end {
		// Window wraps midnight.
		return hour >= start || hour < end
	}
	return hour >= start && hour < end
}

// ruleRapidLogins keeps a trailing window of login timestamps per user and
// fires when the window holds the configured count (default 3 within 60s).
// A firing consumes its cluster: the user's window resets, so a fresh
// cluster is required before the rule can fire again for that user.
func (e *Engine) ruleRapidLogins(logs []models.LogRecord) []models.Alert {
	var alerts []models.Alert
	windows := make(map[string][]time.Time)

	for i := range logs {
		rec := &logs[i]
		if rec.Type != models.RecordTypeLogin || rec.User == "" {
			continue
		}
		ts := rec.Timestamp.UTC()

		w := windows[rec.User]
		w = append(w, ts)
		// Drop timestamps that aged out of the trailing window.
		cut := 0
		for cut < len(w) && ts.Sub(w[cut]) >= e.cfg.RapidLoginWindow {
			cut++
		}
		w = w[cut:]

		if len(w) >= e.cfg.RapidLoginCount {
			alerts = append(alerts, newAlert(models.ReasonRapidLogins, rec))
			w = nil
		}
		windows[rec.User] = w
	}
	return alerts
}
