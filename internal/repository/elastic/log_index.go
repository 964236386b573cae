package elastic

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"cortexsoc/internal/client"
	"cortexsoc/internal/models"
)

// LogIndex maintains a searchable copy of ingested log records in
// Elasticsearch. Indexing is a best-effort sink; search backs the
// /logs/search endpoint.
type LogIndex struct {
	client *client.ESClient
	index  string
	logger *zap.Logger
}

// NewLogIndex creates a log index writer/reader for the configured index.
func NewLogIndex(esClient *client.ESClient, index string, logger *zap.Logger) *LogIndex {
	return &LogIndex{
		client: esClient,
		index:  index,
		logger: logger,
	}
}

// Index stores a record under its log identity, so re-indexing the same
// record is idempotent.
func (l *LogIndex) Index(ctx context.Context, rec models.LogRecord) error {
	res, err := l.client.IndexDocument(ctx, l.index, strconv.FormatInt(rec.ID, 10), rec)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch index error: %s", res.Status())
	}

	l.logger.Debug("log record indexed", zap.Int64("id", rec.ID))
	return nil
}

type searchResult struct {
	Hits struct {
		Hits []struct {
			Source models.LogRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a query_string search over indexed records and returns the
// matches in score order.
func (l *LogIndex) Search(ctx context.Context, query string, limit int) ([]models.LogRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	body := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"query_string": map[string]interface{}{
				"query": query,
			},
		},
	}

	res, err := l.client.Search(ctx, l.index, body)
	if err != nil {
		return nil, err
	}

	var parsed searchResult
	if err := l.client.ParseResponse(res, &parsed); err != nil {
		return nil, err
	}

	records := make([]models.LogRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		records = append(records, hit.Source)
	}
	return records, nil
}
