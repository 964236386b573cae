package respond

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cortexsoc/internal/models"
	"cortexsoc/internal/repository"
	"cortexsoc/internal/util"
)

// Responder is the incident state machine: it converts one alert into one
// persisted incident and drives the severity playbook against it, recording
// each action outcome in execution order. Identity assignment and persistence
// are delegated to the incident store, which serializes them.
type Responder struct {
	incidents repository.IncidentStore
	executors ExecutorSet
	logger    *zap.Logger
}

// NewResponder creates a responder backed by the given store and executors.
func NewResponder(incidents repository.IncidentStore, executors ExecutorSet, logger *zap.Logger) *Responder {
	return &Responder{
		incidents: incidents,
		executors: executors,
		logger:    logger,
	}
}

// Respond creates exactly one incident for the alert, executes the playbook
// selected by alert severity, and returns the finalized incident. The
// playbook is best-effort: each action outcome is recorded as reported by
// its executor and a failure never aborts the remaining steps.
func (r *Responder) Respond(ctx context.Context, alert models.Alert) (*models.Incident, error) {
	alertID := alert.ID
	if alertID == "" {
		alertID = "unknown"
	}
	incident := &models.Incident{
		AlertID:     alertID,
		AlertReason: alert.Reason,
		User:        alert.User,
		IP:          alert.IP,
		CreatedAt:   time.Now().UTC(),
		Status:      models.IncidentStatusActive,
		Actions:     make([]models.ActionRecord, 0, 3),
	}
	if err := r.incidents.Create(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}
	r.logger.Info("incident created",
		util.Int64("incident_id", incident.ID),
		util.String("reason", string(alert.Reason)),
		util.String("severity", string(alert.Severity)),
	)

	for _, step := range PlaybookFor(alert.Severity) {
		target, message, ok := step.resolve(alert)
		if !ok {
			r.logger.Debug("playbook step skipped, no target",
				util.Int64("incident_id", incident.ID),
				util.String("action", step.Action),
			)
			continue
		}
		exec, found := r.executors[step.Action]
		if !found {
			continue
		}
		result := exec.Execute(target, message)
		incident.AddAction(result.Action, result.Target, result.Status, result.Details)
		if result.Status != models.ActionStatusSuccess {
			r.logger.Warn("response action failed",
				util.Int64("incident_id", incident.ID),
				util.String("action", result.Action),
				util.String("details", result.Details),
			)
		}
	}

	if err := r.incidents.Update(ctx, incident); err != nil {
		return nil, fmt.Errorf("persist incident actions: %w", err)
	}
	return incident, nil
}
