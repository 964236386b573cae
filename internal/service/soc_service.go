package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cortexsoc/internal/detect"
	"cortexsoc/internal/metrics"
	"cortexsoc/internal/models"
	"cortexsoc/internal/repository"
	"cortexsoc/internal/repository/clickhouse"
	"cortexsoc/internal/repository/elastic"
	"cortexsoc/internal/respond"
	"cortexsoc/internal/stream"
	"cortexsoc/internal/util"
)

var (
	// ErrInvalidInput marks malformed or missing ingestion fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSearchUnavailable is returned when log search is requested but the
	// search index is not configured.
	ErrSearchUnavailable = errors.New("log search not enabled")
)

// IngestRequest is the inbound shape of one log record.
type IngestRequest struct {
	Type      string                 `json:"type"`
	User      string                 `json:"user,omitempty"`
	Origin    string                 `json:"origin,omitempty"`
	IP        string                 `json:"ip,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
	Raw       map[string]interface{} `json:"raw,omitempty"`
}

// Sinks bundles the optional downstream consumers of ingested and derived
// data. Any of them may be nil; sink failures are logged and counted but
// never fail the triggering operation.
type Sinks struct {
	Archive   *clickhouse.LogArchive
	Index     *elastic.LogIndex
	Publisher *stream.Publisher
}

// SOCService orchestrates the detection-and-response pipeline: ingestion
// into the log store, detection over the full log history, and the incident
// state machine.
type SOCService struct {
	logs      repository.LogStore
	incidents repository.IncidentStore
	engine    *detect.Engine
	responder *respond.Responder
	executors respond.ExecutorSet
	sinks     Sinks
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewSOCService wires the pipeline together.
func NewSOCService(
	logs repository.LogStore,
	incidents repository.IncidentStore,
	engine *detect.Engine,
	responder *respond.Responder,
	executors respond.ExecutorSet,
	sinks Sinks,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SOCService {
	return &SOCService{
		logs:      logs,
		incidents: incidents,
		engine:    engine,
		responder: responder,
		executors: executors,
		sinks:     sinks,
		metrics:   m,
		logger:    logger,
	}
}

// Ingest validates and stores one log record, then fans it out to the
// optional archive and search sinks.
func (s *SOCService) Ingest(ctx context.Context, req IngestRequest) (models.LogRecord, error) {
	if req.Type == "" {
		s.metrics.IngestRejectedTotal.Inc()
		return models.LogRecord{}, fmt.Errorf("%w: type is required", ErrInvalidInput)
	}

	record := models.LogRecord{
		Timestamp: time.Now().UTC(),
		Type:      util.SanitizeInput(req.Type),
		User:      util.SanitizeInput(req.User),
		Origin:    util.SanitizeInput(req.Origin),
		IP:        util.SanitizeInput(req.IP),
		Raw:       req.Raw,
	}
	if req.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			s.metrics.IngestRejectedTotal.Inc()
			return models.LogRecord{}, fmt.Errorf("%w: timestamp must be RFC3339", ErrInvalidInput)
		}
		record.Timestamp = ts.UTC()
	}

	stored, err := s.logs.Append(ctx, record)
	if err != nil {
		return models.LogRecord{}, fmt.Errorf("append log record: %w", err)
	}
	s.metrics.LogsIngestedTotal.Inc()

	s.fanOut(ctx, stored)
	return stored, nil
}

// fanOut delivers a stored record to the configured sinks concurrently.
func (s *SOCService) fanOut(ctx context.Context, record models.LogRecord) {
	if s.sinks.Archive == nil && s.sinks.Index == nil {
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	if s.sinks.Archive != nil {
		g.Go(func() error {
			if err := s.sinks.Archive.Archive(ctx, []models.LogRecord{record}); err != nil {
				s.metrics.SinkErrorsTotal.WithLabelValues("clickhouse").Inc()
				return err
			}
			return nil
		})
	}
	if s.sinks.Index != nil {
		g.Go(func() error {
			if err := s.sinks.Index.Index(ctx, record); err != nil {
				s.metrics.SinkErrorsTotal.WithLabelValues("elasticsearch").Inc()
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("ingest sink failure",
			util.Int64("record_id", record.ID),
			util.ErrorField(err),
		)
	}
}

// Detect runs all detection rules over the full log history and returns the
// alerts. The run holds no state between calls.
func (s *SOCService) Detect(ctx context.Context) ([]models.Alert, error) {
	logs, err := s.logs.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("load log history: %w", err)
	}

	alerts := s.engine.Detect(logs)
	for _, a := range alerts {
		s.metrics.AlertsTotal.WithLabelValues(string(a.Reason)).Inc()
	}
	return alerts, nil
}

// DetectAndRespond runs detection once, then responds to every alert in
// order. Each alert yields exactly one incident; alert and incident events
// are published to the stream when it is configured.
func (s *SOCService) DetectAndRespond(ctx context.Context) ([]models.Alert, []*models.Incident, error) {
	alerts, err := s.Detect(ctx)
	if err != nil {
		return nil, nil, err
	}

	incidents := make([]*models.Incident, 0, len(alerts))
	for _, alert := range alerts {
		incident, err := s.responder.Respond(ctx, alert)
		if err != nil {
			return nil, nil, fmt.Errorf("respond to alert %s: %w", alert.ID, err)
		}
		incidents = append(incidents, incident)

		s.metrics.IncidentsTotal.Inc()
		for _, action := range incident.Actions {
			s.metrics.ActionsTotal.WithLabelValues(action.Action, string(action.Status)).Inc()
		}
		s.publish(ctx, alert, incident)
	}

	s.logger.Info("detect-and-respond completed",
		util.Int("alerts", len(alerts)),
		util.Int("incidents", len(incidents)),
	)
	return alerts, incidents, nil
}

// publish forwards an actioned alert and its incident to the event stream.
func (s *SOCService) publish(ctx context.Context, alert models.Alert, incident *models.Incident) {
	if s.sinks.Publisher == nil {
		return
	}
	if err := s.sinks.Publisher.PublishAlert(ctx, alert); err != nil {
		s.metrics.SinkErrorsTotal.WithLabelValues("kafka").Inc()
		s.logger.Warn("alert publish failure", util.ErrorField(err))
	}
	if err := s.sinks.Publisher.PublishIncident(ctx, incident); err != nil {
		s.metrics.SinkErrorsTotal.WithLabelValues("kafka").Inc()
		s.logger.Warn("incident publish failure", util.ErrorField(err))
	}
}

// ExecuteAction runs one manual response action against a target.
func (s *SOCService) ExecuteAction(_ context.Context, action, target string) (models.ActionResult, error) {
	result, err := s.executors.Execute(action, util.SanitizeInput(target))
	if err != nil {
		return models.ActionResult{}, err
	}
	s.metrics.ActionsTotal.WithLabelValues(result.Action, string(result.Status)).Inc()
	return result, nil
}

// ListIncidents returns all incidents in creation order.
func (s *SOCService) ListIncidents(ctx context.Context) ([]*models.Incident, error) {
	return s.incidents.List(ctx)
}

// GetIncident returns one incident by identity.
func (s *SOCService) GetIncident(ctx context.Context, id int64) (*models.Incident, error) {
	return s.incidents.Get(ctx, id)
}

// RecentLogs returns up to limit most recent log records.
func (s *SOCService) RecentLogs(ctx context.Context, limit int) ([]models.LogRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.logs.List(ctx, limit)
}

// SearchLogs queries the search index for matching records.
func (s *SOCService) SearchLogs(ctx context.Context, query string, limit int) ([]models.LogRecord, error) {
	if s.sinks.Index == nil {
		return nil, ErrSearchUnavailable
	}
	return s.sinks.Index.Search(ctx, query, limit)
}
