package sink

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/topekalabs/beacon/internal/payload"
)

// LogSink dumps every event through the structured logger. It is the default
// destination when nothing else is configured.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink { return &LogSink{log: log} }

func (s *LogSink) Start(ctx context.Context) error { return nil }

func (s *LogSink) Enqueue(e payload.Event) error {
	b, _ := json.Marshal(e)
	s.log.Info("event",
		zap.String("event_id", e.ID),
		zap.String("name", e.Name),
		zap.ByteString("body", b))
	return nil
}

func (s *LogSink) Close() error { return nil }

func (s *LogSink) Name() string { return "log" }
