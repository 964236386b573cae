package bucketing

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cortexsoc/internal/config"
)

func TestUserBucket_DeterministicAndInRange(t *testing.T) {
	m := NewManager(config.BucketingConfig{UserBuckets: 64, EventBuckets: 256})

	for i := 0; i < 100; i++ {
		user := fmt.Sprintf("user-%d", i)
		b := m.UserBucket(user)
		assert.GreaterOrEqual(t, b, 0)
		assert.Less(t, b, 64)
		assert.Equal(t, b, m.UserBucket(user))
	}
}

func TestEventBucket_KeyedByUTCDay(t *testing.T) {
	m := NewManager(config.BucketingConfig{UserBuckets: 64, EventBuckets: 256})

	day := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	sameDay := day.Add(5 * time.Hour)
	nextDay := day.Add(24 * time.Hour)

	assert.Equal(t, m.EventBucket("alice", day), m.EventBucket("alice", sameDay))

	b := m.EventBucket("alice", nextDay)
	assert.GreaterOrEqual(t, b, 0)
	assert.Less(t, b, 256)
}

func TestManager_DefaultsApplied(t *testing.T) {
	m := NewManager(config.BucketingConfig{})

	assert.Less(t, m.UserBucket("alice"), 64)
	assert.Less(t, m.EventBucket("alice", time.Now()), 256)
}

func TestManager_ConcurrentUse(t *testing.T) {
	m := NewManager(config.BucketingConfig{UserBuckets: 64, EventBuckets: 256})
	want := m.UserBucket("alice")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, want, m.UserBucket("alice"))
			}
		}()
	}
	wg.Wait()
}
