package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAndSetRateLimit_NilClientAllows(t *testing.T) {
	allowed, err := CheckAndSetRateLimit(context.Background(), nil, uuid.New(), "create_post", time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestClearRateLimit_NilClientNoop(t *testing.T) {
	err := ClearRateLimit(context.Background(), nil, uuid.New(), "create_post")
	assert.NoError(t, err)
}

func TestGetDurationFromEnv(t *testing.T) {
	t.Setenv("TEST_COOLDOWN", "90s")
	assert.Equal(t, 90*time.Second, GetDurationFromEnv("TEST_COOLDOWN", time.Minute))

	t.Setenv("TEST_COOLDOWN", "not-a-duration")
	assert.Equal(t, time.Minute, GetDurationFromEnv("TEST_COOLDOWN", time.Minute))
}
