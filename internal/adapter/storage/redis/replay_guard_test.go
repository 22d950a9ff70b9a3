package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayGuard_Claim(t *testing.T) {
	_, client := newTestClient(t)
	guard := NewReplayGuard(client)
	ctx := context.Background()

	ok, err := guard.Claim(ctx, "sig-abc", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "first delivery should be fresh")

	ok, err = guard.Claim(ctx, "sig-abc", 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "redelivery should be rejected")

	ok, err = guard.Claim(ctx, "sig-def", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "other signatures are independent")
}

func TestReplayGuard_Expires(t *testing.T) {
	mr, client := newTestClient(t)
	guard := NewReplayGuard(client)
	ctx := context.Background()

	_, err := guard.Claim(ctx, "sig", 330*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 330*time.Second, mr.TTL("webhook:seen:sig"))

	mr.FastForward(331 * time.Second)

	ok, err := guard.Claim(ctx, "sig", 330*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReplayGuard_Release(t *testing.T) {
	_, client := newTestClient(t)
	guard := NewReplayGuard(client)
	ctx := context.Background()

	_, err := guard.Claim(ctx, "sig", time.Minute)
	require.NoError(t, err)
	require.NoError(t, guard.Release(ctx, "sig"))

	ok, err := guard.Claim(ctx, "sig", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "released claim can be taken again")
}
