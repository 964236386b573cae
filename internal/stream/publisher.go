package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"cortexsoc/internal/client"
	"cortexsoc/internal/config"
	"cortexsoc/internal/models"
)

// Publisher fans alerts and incidents out to the Kafka event stream so
// downstream consumers (SIEM pipelines, notification bridges) can follow
// the detection-and-response flow without polling the API.
type Publisher struct {
	producer      *client.KafkaProducer
	alertTopic    string
	incidentTopic string
	logger        *zap.Logger
}

// NewPublisher creates an event stream publisher.
func NewPublisher(producer *client.KafkaProducer, cfg config.KafkaConfig, logger *zap.Logger) *Publisher {
	return &Publisher{
		producer:      producer,
		alertTopic:    cfg.AlertTopic,
		incidentTopic: cfg.IncidentTopic,
		logger:        logger,
	}
}

// PublishAlert publishes one alert, keyed by its correlation ID.
func (p *Publisher) PublishAlert(ctx context.Context, alert models.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}
	if err := p.producer.ProduceMessage(ctx, p.alertTopic, []byte(alert.ID), payload); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

// PublishIncident publishes one incident, keyed by its numeric identity.
func (p *Publisher) PublishIncident(ctx context.Context, incident *models.Incident) error {
	payload, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to encode incident: %w", err)
	}
	key := strconv.FormatInt(incident.ID, 10)
	if err := p.producer.ProduceMessage(ctx, p.incidentTopic, []byte(key), payload); err != nil {
		return fmt.Errorf("failed to publish incident: %w", err)
	}
	return nil
}
