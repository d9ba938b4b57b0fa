package logify

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/zxyao/logify/metrics"
)

// failureReporter 每段连续失败只报告一次，恢复时再记录一次，每次结果都计入指标
type failureReporter struct {
	mu      sync.Mutex
	failing map[string]bool
	log     *zap.Logger
	metrics *metrics.Metrics
}

func newFailureReporter(log *zap.Logger, m *metrics.Metrics) *failureReporter {
	return &failureReporter{
		failing: make(map[string]bool),
		log:     log,
		metrics: m,
	}
}

func (r *failureReporter) observe(sink string, err error) {
	if err == nil {
		r.metrics.LineWritten(sink)
		r.mu.Lock()
		was := r.failing[sink]
		delete(r.failing, sink)
		r.mu.Unlock()
		if was {
			r.log.Info("sink recovered", zap.String("sink", sink))
		}
		return
	}

	if errors.Is(err, ErrQueueFull) {
		r.metrics.LineDropped(sink)
	} else {
		r.metrics.SinkError(sink)
	}

	r.mu.Lock()
	already := r.failing[sink]
	r.failing[sink] = true
	r.mu.Unlock()
	if !already {
		r.log.Error("sink write failed", zap.String("sink", sink), zap.Error(err))
	}
}
