package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPPort)
	assert.Equal(t, 15, cfg.Listing.MaxImages)
	assert.Equal(t, 3, cfg.Listing.ReadRetryAttempts)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Second, cfg.Redis.LockTTL)
	assert.Equal(t, "listings", cfg.Elastic.Index)
	assert.Empty(t, cfg.Cloudinary.CloudName)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_HTTP_PORT", ":9090")
	t.Setenv("LISTING_MAX_IMAGES", "20")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("REDIS_TREE_CACHE_TTL", "30s")
	t.Setenv("RATE_LIMIT_SUGGESTIONS_PER_MINUTE", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.HTTPPort)
	assert.Equal(t, 20, cfg.Listing.MaxImages)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.Redis.TreeCacheTTL)
	assert.Equal(t, uint(2), cfg.RateLimit.SuggestionsPerMinute)
}

func TestLoadRejectsNonPositiveImageCap(t *testing.T) {
	t.Setenv("LISTING_MAX_IMAGES", "0")

	_, err := Load()
	assert.ErrorContains(t, err, "LISTING_MAX_IMAGES")
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("REDIS_LOCK_TTL", "soon")

	_, err := Load()
	assert.Error(t, err)
}
