package ratelimit

import (
	"encoding/binary"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) *Limiter {
	t.Helper()
	l, err := NewLimiter(t.TempDir(), limit, window)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestAllow_WithinLimit(t *testing.T) {
	l := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"))
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestAllow_IdentitiesIsolated(t *testing.T) {
	l := newTestLimiter(t, 1, time.Minute)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestAllow_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLimiter(dir, 2, time.Minute)
	require.NoError(t, err)
	require.True(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.1"))
	require.NoError(t, l.Close())

	l, err = NewLimiter(dir, 2, time.Minute)
	require.NoError(t, err)
	defer l.Close()
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestSweep_RemovesExpiredWindows(t *testing.T) {
	l := newTestLimiter(t, 5, time.Minute)
	require.True(t, l.Allow("10.0.0.1"))

	// plant a counter from a long-dead window
	stale := []byte(fmt.Sprintf("10.0.0.9:%d", time.Now().Add(-time.Hour).Unix()))
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], 3)
	require.NoError(t, l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(stale, buf[:])
	}))

	l.Sweep()

	keys := 0
	require.NoError(t, l.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			keys++
			assert.NotEqual(t, string(stale), string(k))
			return nil
		})
	}))
	assert.Equal(t, 1, keys)
}
