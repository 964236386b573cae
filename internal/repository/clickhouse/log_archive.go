package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"cortexsoc/internal/bucketing"
	"cortexsoc/internal/client"
	"cortexsoc/internal/config"
	"cortexsoc/internal/models"
)

// LogArchive writes ingested log records to ClickHouse for long-term
// retention and offline analytics. The primary log store stays authoritative;
// the archive is a best-effort sink.
type LogArchive struct {
	client   *client.ClickHouseClient
	buckets  *bucketing.Manager
	database string
	table    string
	logger   *zap.Logger
}

// NewLogArchive creates an archive writer for the configured table.
func NewLogArchive(chClient *client.ClickHouseClient, buckets *bucketing.Manager, cfg config.ClickhouseConfig, logger *zap.Logger) *LogArchive {
	return &LogArchive{
		client:   chClient,
		buckets:  buckets,
		database: cfg.Database,
		table:    cfg.Table,
		logger:   logger,
	}
}

// EnsureSchema creates the archive table when it does not exist.
func (a *LogArchive) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.%s (
			id           Int64,
			timestamp    DateTime64(3, 'UTC'),
			type         LowCardinality(String),
			user         String,
			origin       String,
			ip           String,
			user_bucket  UInt16,
			event_bucket UInt16,
			raw          String
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(timestamp)
		ORDER BY (type, timestamp, id)`, a.database, a.table)
	if err := a.client.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create archive table: %w", err)
	}
	return nil
}

// Archive batch-inserts records into the archive table.
func (a *LogArchive) Archive(ctx context.Context, records []models.LogRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		raw := ""
		if rec.Raw != nil {
			if data, err := json.Marshal(rec.Raw); err == nil {
				raw = string(data)
			}
		}
		rows = append(rows, []interface{}{
			rec.ID,
			rec.Timestamp,
			rec.Type,
			rec.User,
			rec.Origin,
			rec.IP,
			uint16(a.buckets.UserBucket(rec.User)),
			uint16(a.buckets.EventBucket(rec.User, rec.Timestamp)),
			raw,
		})
	}

	query := fmt.Sprintf("INSERT INTO %s.%s", a.database, a.table)
	if err := a.client.BatchInsert(ctx, query, rows); err != nil {
		return fmt.Errorf("failed to archive log records: %w", err)
	}

	a.logger.Debug("log records archived", zap.Int("count", len(rows)))
	return nil
}
