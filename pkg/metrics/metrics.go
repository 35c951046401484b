// Package metrics records application counters into a local time-series
// store under the application workdir.
package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
)

const (
	WebhookEventReceived = "webhook_event_received"
	WebhookEventFailed   = "webhook_event_failed"
	WebhookChargeOrphan  = "webhook_charge_orphan"
	CheckoutAttempt      = "checkout_attempt"
	CheckoutRejected     = "checkout_rejected"
	OrderCreated         = "order_created"
	NotifyFailed         = "notification_failed"
	SystemCpuUsage       = "system_cpu_usage"
	SystemMemUsage       = "system_mem_usage"
)

var (
	storage tstorage.Storage
	mu      sync.Mutex
)

func InitMetrics(workdir string) error {
	mu.Lock()
	defer mu.Unlock()
	s, err := tstorage.NewStorage(
		tstorage.WithDataPath(filepath.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithRetention(30*24*time.Hour),
	)
	if err != nil {
		return err
	}
	storage = s
	return nil
}

// Counter records a single occurrence of metric. Safe to call before
// InitMetrics; it is a no-op until the store is ready.
func Counter(metric string) {
	GaugeSet(metric, 1)
}

func GaugeSet(metric string, value float64) {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return
	}
	_ = storage.InsertRows([]tstorage.Row{
		{
			Metric:    metric,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: value},
		},
	})
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}
