package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"cortexsoc/internal/client"
	"cortexsoc/internal/models"
	"cortexsoc/internal/util"
)

const (
	logListSuffix   = ":logs"
	logNextIDSuffix = ":logs:next_id"
)

// LogStore implements the append-only log store on Redis: records are
// JSON-encoded entries of a list, identities come from an INCR counter.
// Insertion order is the list order, satisfying the ordered-read contract.
type LogStore struct {
	client    *client.RedisClient
	keyPrefix string
}

// NewLogStore creates a Redis-backed log store.
func NewLogStore(redisClient *client.RedisClient, keyPrefix string) *LogStore {
	return &LogStore{
		client:    redisClient,
		keyPrefix: keyPrefix,
	}
}

// Append assigns the next identity and pushes the record onto the log list.
func (s *LogStore) Append(ctx context.Context, record models.LogRecord) (models.LogRecord, error) {
	id, err := s.client.Incr(ctx, s.keyPrefix+logNextIDSuffix)
	if err != nil {
		return models.LogRecord{}, fmt.Errorf("failed to assign log identity: %w", err)
	}
	record.ID = id

	payload, err := json.Marshal(record)
	if err != nil {
		return models.LogRecord{}, fmt.Errorf("failed to encode log record: %w", err)
	}
	if err := s.client.RPush(ctx, s.keyPrefix+logListSuffix, payload); err != nil {
		return models.LogRecord{}, fmt.Errorf("failed to append log record: %w", err)
	}

	util.Debug("log record appended to redis",
		zap.Int64("id", record.ID),
		zap.String("type", record.Type),
	)
	return record, nil
}

// List returns up to limit most recent records in insertion order.
func (s *LogStore) List(ctx context.Context, limit int) ([]models.LogRecord, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := s.client.LRange(ctx, s.keyPrefix+logListSuffix, start, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to read log records: %w", err)
	}

	records := make([]models.LogRecord, 0, len(raw))
	for _, entry := range raw {
		var rec models.LogRecord
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode log record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Len reports the number of stored records.
func (s *LogStore) Len(ctx context.Context) (int64, error) {
	n, err := s.client.LLen(ctx, s.keyPrefix+logListSuffix)
	if err != nil {
		return 0, fmt.Errorf("failed to read log length: %w", err)
	}
	return n, nil
}
