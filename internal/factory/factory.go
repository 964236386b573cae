package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"cortexsoc/internal/bucketing"
	"cortexsoc/internal/client"
	"cortexsoc/internal/config"
	"cortexsoc/internal/detect"
	"cortexsoc/internal/metrics"
	"cortexsoc/internal/repository"
	chrepo "cortexsoc/internal/repository/clickhouse"
	esrepo "cortexsoc/internal/repository/elastic"
	"cortexsoc/internal/repository/memory"
	redisrepo "cortexsoc/internal/repository/redis"
	"cortexsoc/internal/respond"
	"cortexsoc/internal/service"
	"cortexsoc/internal/stream"
	"cortexsoc/internal/util"
)

// Factory manages the lifecycle of all application dependencies.
type Factory struct {
	config *config.Config

	// Clients
	redisClient      *client.RedisClient
	clickhouseClient *client.ClickHouseClient
	kafkaProducer    *client.KafkaProducer
	esClient         *client.ESClient

	// Stores and pipeline
	logStore      repository.LogStore
	incidentStore repository.IncidentStore
	socService    *service.SOCService
	metrics       *metrics.Metrics

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory creates and initializes all application dependencies. Optional
// backends that fail to initialize are fatal in production and degrade to
// warnings in development, leaving the service fully in-memory.
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	f := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	if err := f.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	f.initializePipeline()

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.String("log_store", cfg.Store.LogBackend),
		util.Bool("clickhouse_enabled", f.clickhouseClient != nil),
		util.Bool("kafka_enabled", f.kafkaProducer != nil),
		util.Bool("elasticsearch_enabled", f.esClient != nil),
	)

	return f, nil
}

// initializeClients initializes the configured external service clients
// with health checks.
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var initErrors []error

	// Redis (only when selected as log store backend)
	if f.config.Store.LogBackend == "redis" {
		if redisClient, err := client.NewRedisClient(f.config, util.Get()); err != nil {
			initErrors = append(initErrors, fmt.Errorf("redis: %w", err))
		} else {
			f.redisClient = redisClient
			if err := f.redisClient.HealthCheck(ctx); err != nil {
				initErrors = append(initErrors, fmt.Errorf("redis health check: %w", err))
			} else {
				util.Info("Redis client initialized and healthy")
			}
		}
	}

	// ClickHouse archive
	if f.config.Clickhouse.Enabled {
		if chClient, err := client.NewClickHouseClient(f.config, util.Get()); err != nil {
			initErrors = append(initErrors, fmt.Errorf("clickhouse: %w", err))
		} else {
			f.clickhouseClient = chClient
			util.Info("ClickHouse client initialized and healthy")
		}
	}

	// Kafka event stream
	if f.config.Kafka.Enabled {
		if producer, err := client.NewKafkaProducer(f.config, util.Get()); err != nil {
			util.Warn("Kafka producer initialization failed - proceeding without event stream", util.ErrorField(err))
		} else {
			f.kafkaProducer = producer
		}
	}

	// Elasticsearch search index
	if f.config.Elasticsearch.Enabled {
		if esClient, err := client.NewElasticsearchClient(f.config, util.Get()); err != nil {
			initErrors = append(initErrors, fmt.Errorf("elasticsearch: %w", err))
		} else {
			f.esClient = esClient
			util.Info("Elasticsearch client initialized and healthy")
		}
	}

	if len(initErrors) > 0 {
		if f.config.IsProduction() {
			return fmt.Errorf("critical service initialization failed: %v", initErrors)
		}
		for _, err := range initErrors {
			util.Warn("Service initialization warning", util.ErrorField(err))
		}
	}

	return nil
}

// initializePipeline wires the stores, detection engine, responder, sinks,
// and the SOC service.
func (f *Factory) initializePipeline() {
	if f.redisClient != nil {
		f.logStore = redisrepo.NewLogStore(f.redisClient, f.config.Redis.KeyPrefix)
	} else {
		if f.config.Store.LogBackend == "redis" {
			util.Warn("Redis log store unavailable - falling back to in-memory store")
		}
		f.logStore = memory.NewLogStore()
	}
	f.incidentStore = memory.NewIncidentStore()

	f.metrics = metrics.NewMetrics(prometheus.DefaultRegisterer)

	sinks := service.Sinks{}
	if f.clickhouseClient != nil {
		buckets := bucketing.NewManager(f.config.Bucketing)
		archive := chrepo.NewLogArchive(f.clickhouseClient, buckets, f.config.Clickhouse, util.Get())

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := archive.EnsureSchema(ctx); err != nil {
			util.Warn("failed to ensure archive schema", util.ErrorField(err))
		}
		cancel()
		sinks.Archive = archive
	}
	if f.esClient != nil {
		sinks.Index = esrepo.NewLogIndex(f.esClient, f.config.Elasticsearch.Index, util.Get())
	}
	if f.kafkaProducer != nil {
		sinks.Publisher = stream.NewPublisher(f.kafkaProducer, f.config.Kafka, util.Get())
	}

	engine := detect.NewEngine(f.config.Detection, util.Get())
	executors := respond.NewExecutorSet(util.Get())
	responder := respond.NewResponder(f.incidentStore, executors, util.Get())

	f.socService = service.NewSOCService(
		f.logStore,
		f.incidentStore,
		engine,
		responder,
		executors,
		sinks,
		f.metrics,
		util.Get(),
	)
}

// HealthCheck reports the health of every initialized client.
func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.redisClient != nil {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			healthErrors["redis"] = err
		}
	}
	if f.clickhouseClient != nil {
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			healthErrors["clickhouse"] = err
		}
	}
	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
			healthErrors["kafka"] = err
		}
	}
	if f.esClient != nil {
		if err := f.esClient.HealthCheck(); err != nil {
			healthErrors["elasticsearch"] = err
		}
	}

	return healthErrors
}

// Config returns the loaded configuration.
func (f *Factory) Config() *config.Config {
	return f.config
}

// SOCService returns the wired pipeline service.
func (f *Factory) SOCService() *service.SOCService {
	return f.socService
}

// Close shuts down all clients exactly once.
func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.clickhouseClient != nil {
			if err := f.clickhouseClient.Close(); err != nil {
				util.Error("Failed to close ClickHouse client", util.ErrorField(err))
			}
		}
		if f.esClient != nil {
			f.esClient.Close()
		}
		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			}
		}
		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			}
		}

		util.Sync()
		util.Info("Factory shutdown completed")
	})

	return nil
}
