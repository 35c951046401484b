// Package ratelimit counts requests per client identity within fixed time
// windows. Counters live in a bolt bucket rather than a process-local map,
// so limits survive restarts and the state can be shared by moving the file
// onto shared storage.
package ratelimit

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var bucketName = []byte("ratelimit")

type Limiter struct {
	db     *bolt.DB
	limit  int
	window time.Duration
}

func NewLimiter(workdir string, limit int, window time.Duration) (*Limiter, error) {
	db, err := bolt.Open(filepath.Join(workdir, "ratelimit.db"), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open rate limit store")
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init rate limit bucket")
	}
	return &Limiter{db: db, limit: limit, window: window}, nil
}

// Allow increments the counter for identity in the current window and
// reports whether the request is within the limit. Store failures fail open.
func (l *Limiter) Allow(identity string) bool {
	windowStart := time.Now().Truncate(l.window).Unix()
	key := []byte(fmt.Sprintf("%s:%d", identity, windowStart))

	allowed := true
	err := l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		var count uint64
		if v := b.Get(key); len(v) == 8 {
			count = binary.BigEndian.Uint64(v)
		}
		count++
		if count > uint64(l.limit) {
			allowed = false
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], count)
		return b.Put(key, buf[:])
	})
	if err != nil {
		zap.L().Warn("rate limit store update failed", zap.Error(err))
		return true
	}
	return allowed
}

// Sweep removes counters from windows older than twice the window size.
func (l *Limiter) Sweep() {
	horizon := time.Now().Add(-2 * l.window).Unix()
	err := l.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			key := string(k)
			idx := strings.LastIndexByte(key, ':')
			if idx < 0 {
				continue
			}
			ts, err := strconv.ParseInt(key[idx+1:], 10, 64)
			if err != nil || ts >= horizon {
				continue
			}
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		zap.L().Warn("rate limit sweep failed", zap.Error(err))
	}
}

func (l *Limiter) Close() error {
	return l.db.Close()
}
