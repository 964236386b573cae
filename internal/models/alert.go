package models

// Severity is the alert severity level.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AlertReason identifies the detection rule that produced an alert.
type AlertReason string

const (
	ReasonNewOrigin            AlertReason = "new_origin"
	ReasonFailedLoginThreshold AlertReason = "failed_login_threshold"
	ReasonUnusualLoginTime     AlertReason = "unusual_login_time"
	ReasonRapidLogins          AlertReason = "rapid_logins"
)

// ReasonSeverity returns the fixed severity for a detection rule. Severity is
// a property of the rule, never computed from alert content.
func ReasonSeverity(reason AlertReason) Severity {
	switch reason {
	case ReasonFailedLoginThreshold:
		return SeverityHigh
	case ReasonNewOrigin, ReasonRapidLogins:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Alert is the ephemeral output of one detection rule firing. Alerts are
// produced fresh on every detection run and never persisted directly; ID is
// an in-process correlation handle only and is not part of the wire format.
type Alert struct {
	ID          string      `json:"-"`
	User        string      `json:"user"`
	Origin      string      `json:"origin,omitempty"`
	IP          string      `json:"ip,omitempty"`
	Reason      AlertReason `json:"reason"`
	Severity    Severity    `json:"severity"`
	FailedCount int         `json:"failed_count,omitempty"`
	Record      *LogRecord  `json:"record"`
}
