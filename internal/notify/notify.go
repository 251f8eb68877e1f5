// Package notify delivers fired medicine alarms to the user
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/gmsas95/dosekeeper-cli/internal/metrics"
	"go.uber.org/zap"
)

// Notification is one fired alarm
type Notification struct {
	Key        string    `json:"key"`
	MedicineID string    `json:"medicineId"`
	Time       string    `json:"time"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Channel    string    `json:"channel"`
	FiredAt    time.Time `json:"firedAt"`
}

// Sink receives notifications
type Sink interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the logger
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Notify(ctx context.Context, n Notification) error {
	s.logger.Info("Medicine alarm",
		zap.String("key", n.Key),
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.String("channel", n.Channel),
	)
	return nil
}

// Multi delivers to every sink. One failing sink does not stop the others.
type Multi struct {
	sinks   []Sink
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewMulti(logger *zap.Logger, sinks ...Sink) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{sinks: sinks, metrics: metrics.Default(), logger: logger}
}

// Add appends a sink
func (m *Multi) Add(s Sink) {
	m.sinks = append(m.sinks, s)
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, s := range m.sinks {
		err := s.Notify(ctx, n)
		m.metrics.RecordNotification(s.Name(), err)
		if err != nil {
			m.logger.Warn("Notification sink failed",
				zap.String("sink", s.Name()),
				zap.String("key", n.Key),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
