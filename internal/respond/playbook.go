package respond

import (
	"fmt"

	"cortexsoc/internal/models"
)

// PlaybookStep is one entry in a severity playbook. Target selection is
// data-driven: user- and IP-targeted steps pull their target from the alert
// and are skipped outright (not recorded as failures) when the alert lacks
// that field; alert steps always run against their channel.
type PlaybookStep struct {
	Action  string
	Channel string
	Message func(a models.Alert) string
}

// resolve returns the concrete target and message for an alert, or ok=false
// when the step must be skipped.
func (s PlaybookStep) resolve(a models.Alert) (target, message string, ok bool) {
	switch s.Action {
	case ActionDisableAccount:
		if a.User == "" {
			return "", "", false
		}
		return a.User, "", true
	case ActionBlockIP:
		if a.IP == "" {
			return "", "", false
		}
		return a.IP, "", true
	case ActionAlert:
		return s.Channel, s.Message(a), true
	default:
		return "", "", false
	}
}

// playbooks is the fixed severity-indexed response table.
var playbooks = map[models.Severity][]PlaybookStep{
	models.SeverityHigh: {
		{Action: ActionDisableAccount},
		{Action: ActionBlockIP},
		{Action: ActionAlert, Channel: "ops", Message: func(a models.Alert) string {
			return fmt.Sprintf("High: Disabled account %s due to %s", a.User, a.Reason)
		}},
	},
	models.SeverityMedium: {
		{Action: ActionAlert, Channel: "security", Message: func(a models.Alert) string {
			return fmt.Sprintf("Medium: %s for %s", a.Reason, a.User)
		}},
	},
	models.SeverityLow: {
		{Action: ActionAlert, Channel: "log", Message: func(a models.Alert) string {
			return fmt.Sprintf("Low: %s for %s", a.Reason, a.User)
		}},
	},
}

// PlaybookFor returns the ordered steps for a severity. Unknown severities
// fall back to the low playbook.
func PlaybookFor(severity models.Severity) []PlaybookStep {
	if steps, ok := playbooks[severity]; ok {
		return steps
	}
	return playbooks[models.SeverityLow]
}
