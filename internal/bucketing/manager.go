package bucketing

import (
	"hash"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"

	"cortexsoc/internal/config"
)

// Manager assigns deterministic buckets to archived rows so the ClickHouse
// table can be partitioned without hot spots.
type Manager struct {
	userBuckets  int
	eventBuckets int
	hasherPool   sync.Pool
}

// NewManager creates a bucketing manager from configuration.
func NewManager(cfg config.BucketingConfig) *Manager {
	m := &Manager{
		userBuckets:  cfg.UserBuckets,
		eventBuckets: cfg.EventBuckets,
	}
	if m.userBuckets <= 0 {
		m.userBuckets = 64
	}
	if m.eventBuckets <= 0 {
		m.eventBuckets = 256
	}

	// Pool of hash functions to avoid per-call allocation.
	m.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}

	return m
}

// UserBucket returns a consistent bucket for a user in [0, userBuckets).
func (m *Manager) UserBucket(user string) int {
	return int(m.hash(user) % uint64(m.userBuckets))
}

// EventBucket returns a consistent bucket for an event in [0, eventBuckets),
// keyed by the user and the event's UTC day so each user's events spread
// evenly across days.
func (m *Manager) EventBucket(user string, ts time.Time) int {
	key := user + "|" + ts.UTC().Format("2006-01-02")
	return int(m.hash(key) % uint64(m.eventBuckets))
}

func (m *Manager) hash(s string) uint64 {
	h := m.hasherPool.Get().(hash.Hash64)
	defer m.hasherPool.Put(h)
	h.Reset()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
