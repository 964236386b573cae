package models

import "time"

// ActionStatus is the outcome of one response action.
type ActionStatus string

const (
	ActionStatusSuccess ActionStatus = "success"
	ActionStatusFailure ActionStatus = "failure"
)

// IncidentStatusActive is the only incident lifecycle state. No resolution
// transition exists yet; see DESIGN.md.
const IncidentStatusActive = "active"

// ActionRecord is one entry in an incident's action history, immutable once
// appended. Append order is execution order.
type ActionRecord struct {
	Action    string       `json:"action"`
	Target    string       `json:"target"`
	Status    ActionStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Details   string       `json:"details"`
}

// Incident tracks the response to a single alert. The incident exclusively
// owns its action history.
type Incident struct {
	ID          int64          `json:"id"`
	AlertID     string         `json:"alert_id"`
	AlertReason AlertReason    `json:"alert_reason"`
	User        string         `json:"user"`
	IP          string         `json:"ip"`
	CreatedAt   time.Time      `json:"created_at"`
	Status      string         `json:"status"`
	Actions     []ActionRecord `json:"actions"`
}

// AddAction appends an action outcome to the incident's history.
func (i *Incident) AddAction(action, target string, status ActionStatus, details string) {
	i.Actions = append(i.Actions, ActionRecord{
		Action:    action,
		Target:    target,
		Status:    status,
		Timestamp: time.Now().UTC(),
		Details:   details,
	})
}

// ActionResult is the uniform outcome shape returned by every response
// action executor.
type ActionResult struct {
	Action  string       `json:"action"`
	Target  string       `json:"target"`
	Status  ActionStatus `json:"status"`
	Details string       `json:"details"`
}
