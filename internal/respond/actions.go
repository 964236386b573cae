package respond

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"cortexsoc/internal/models"
	"cortexsoc/internal/util"
)

// Action names form the fixed response vocabulary.
const (
	ActionBlockIP        = "block_ip"
	ActionDisableAccount = "disable_account"
	ActionAlert          = "alert"
)

// ErrUnknownAction is returned when a manual response names an action
// outside the fixed vocabulary.
var ErrUnknownAction = errors.New("unknown action")

// Executor is one named response action. Implementations must be idempotent
// in intent (safe against an already-blocked IP or already-disabled
// account), must surface failures as a failure-status result rather than a
// panic, and are treated as synchronous, bounded-time calls.
type Executor interface {
	Name() string
	Execute(target, message string) models.ActionResult
}

// blockIPExecutor is the firewall integration stub.
type blockIPExecutor struct {
	logger *zap.Logger
}

func (e *blockIPExecutor) Name() string { return ActionBlockIP }

func (e *blockIPExecutor) Execute(target, _ string) models.ActionResult {
	e.logger.Info("blocking IP", util.String("ip", target))
	return models.ActionResult{
		Action:  ActionBlockIP,
		Target:  target,
		Status:  models.ActionStatusSuccess,
		Details: fmt.Sprintf("IP %s added to blocklist (mock action)", target),
	}
}

// disableAccountExecutor is the IAM integration stub.
type disableAccountExecutor struct {
	logger *zap.Logger
}

func (e *disableAccountExecutor) Name() string { return ActionDisableAccount }

func (e *disableAccountExecutor) Execute(target, _ string) models.ActionResult {
	e.logger.Info("disabling account", util.String("user", target))
	return models.ActionResult{
		Action:  ActionDisableAccount,
		Target:  target,
		Status:  models.ActionStatusSuccess,
		Details: fmt.Sprintf("User %s account disabled (mock action)", target),
	}
}

// alertExecutor is the notification integration stub. The target is the
// channel; the message travels alongside.
type alertExecutor struct {
	logger *zap.Logger
}

func (e *alertExecutor) Name() string { return ActionAlert }

func (e *alertExecutor) Execute(target, message string) models.ActionResult {
	e.logger.Info("sending alert", util.String("channel", target), util.String("message", message))
	return models.ActionResult{
		Action:  ActionAlert,
		Target:  target,
		Status:  models.ActionStatusSuccess,
		Details: fmt.Sprintf("Alert sent to %s: %s", target, message),
	}
}

// ExecutorSet maps action names to their executors.
type ExecutorSet map[string]Executor

// NewExecutorSet builds the stub executor set. Real integrations slot in
// here without touching the playbook or the responder.
func NewExecutorSet(logger *zap.Logger) ExecutorSet {
	executors := []Executor{
		&blockIPExecutor{logger: logger},
		&disableAccountExecutor{logger: logger},
		&alertExecutor{logger: logger},
	}
	set := make(ExecutorSet, len(executors))
	for _, e := range executors {
		set[e.Name()] = e
	}
	return set
}

// Execute dispatches a manual response action by name. The alert action is
// delivered to the ops channel with the target as message.
func (s ExecutorSet) Execute(action, target string) (models.ActionResult, error) {
	exec, ok := s[action]
	if !ok {
		return models.ActionResult{}, ErrUnknownAction
	}
	if action == ActionAlert {
		return exec.Execute("ops", target), nil
	}
	return exec.Execute(target, ""), nil
}
