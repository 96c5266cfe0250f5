package storage

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hnrobert/etcapi/internal/engine"
)

var (
	backupOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etcapi_backup_operations_total",
		Help: "Backup create and restore operations by database and status",
	}, []string{"database", "operation", "status"})

	backupDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "etcapi_backup_duration_seconds",
		Help:    "Time to create or restore a backup",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"operation"})
)

// Instrumented records metrics for every call of the wrapped manager.
type Instrumented struct {
	Name  string
	Inner engine.BackupManager
}

func Instrument(name string, inner engine.BackupManager) *Instrumented {
	return &Instrumented{Name: name, Inner: inner}
}

func (i *Instrumented) Create(ctx context.Context) error {
	return i.observe("create", func() error { return i.Inner.Create(ctx) })
}

func (i *Instrumented) Restore(ctx context.Context) error {
	return i.observe("restore", func() error { return i.Inner.Restore(ctx) })
}

func (i *Instrumented) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	backupDurationHistogram.WithLabelValues(op).Observe(time.Since(start).Seconds())
	status := "success"
	if err != nil {
		status = "error"
	}
	backupOperationsTotal.WithLabelValues(i.Name, op, status).Inc()
	return err
}
