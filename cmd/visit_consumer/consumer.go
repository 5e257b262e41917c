package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-qr/internal/events"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/logger"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/analytics"
)

type dailyCounter interface {
	IncDaily(ctx context.Context, code string, kind analytics.Kind, at time.Time) error
}

type processedMarker interface {
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
	Unmark(ctx context.Context, eventID string) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// consumer folds visit events into the daily rollup. A message is committed
// only once it is processed, and a failing message is retried in place, so the
// group offset never moves past an uncounted visit.
type consumer struct {
	reader    messageReader
	stats     dailyCounter
	processed processedMarker
	tracer    trace.Tracer
	cfg       consumerConfig
}

func newConsumer(reader messageReader, stats dailyCounter, processed processedMarker, cfg consumerConfig) *consumer {
	return &consumer{
		reader:    reader,
		stats:     stats,
		processed: processed,
		tracer:    otel.Tracer("visit-consumer"),
		cfg:       cfg,
	}
}

func (c *consumer) run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("visit consumer stopping")
				return
			}
			logger.Error("failed to fetch kafka message", zap.Error(err))
			pause(ctx, c.cfg.consumeBackoff)
			continue
		}

		if !c.handle(ctx, msg) {
			logger.Info("visit consumer stopping",
				zap.Int("partition", msg.Partition),
				zap.Int64("uncommitted_offset", msg.Offset),
			)
			return
		}
	}
}

// handle processes then commits msg, retrying each step until it succeeds.
// It reports false when ctx ends first, leaving msg uncommitted.
func (c *consumer) handle(ctx context.Context, msg kafka.Message) bool {
	consumeCtx := contextFromKafkaHeaders(ctx, msg.Headers)
	consumeCtx, span := c.tracer.Start(
		consumeCtx,
		"kafka.consume.visit_recorded",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.String("messaging.operation", "process"),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		),
	)
	defer span.End()

	fields := []zap.Field{
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	}

	for attempt := 1; ; attempt++ {
		err := processMessage(consumeCtx, msg, c.stats, c.processed, c.cfg.operationTTL)
		if err == nil {
			break
		}
		span.RecordError(err)
		logger.Error("failed to process visit event", append(fields, zap.Error(err), zap.Int("attempt", attempt))...)
		if !c.backoff(ctx) {
			span.SetStatus(codes.Error, "process visit event failed")
			return false
		}
	}

	for attempt := 1; ; attempt++ {
		err := c.reader.CommitMessages(consumeCtx, msg)
		if err == nil {
			return true
		}
		span.RecordError(err)
		logger.Error("failed to commit kafka offset", append(fields, zap.Error(err), zap.Int("attempt", attempt))...)
		if !c.backoff(ctx) {
			span.SetStatus(codes.Error, "commit kafka offset failed")
			return false
		}
	}
}

// backoff pauses before a retry and reports whether ctx is still live.
func (c *consumer) backoff(ctx context.Context) bool {
	pause(ctx, c.cfg.consumeBackoff)
	return ctx.Err() == nil
}

// processMessage folds one visit into the daily rollup. Redelivered events are
// skipped, and a failed increment releases the event so a retry counts it.
func processMessage(
	ctx context.Context,
	msg kafka.Message,
	stats dailyCounter,
	processed processedMarker,
	operationTTL time.Duration,
) error {
	var event events.VisitRecorded
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Warn("invalid visit event payload, skipping",
			zap.Error(err),
			zap.ByteString("payload", msg.Value),
		)
		return nil
	}
	if strings.TrimSpace(event.LinkCode) == "" || strings.TrimSpace(event.EventID) == "" {
		logger.Warn("visit event missing code or id, skipping", zap.String("event_id", event.EventID))
		return nil
	}

	kind := analytics.Kind(event.Kind)
	if kind != analytics.KindLink && kind != analytics.KindQR {
		logger.Warn("visit event has unknown kind, skipping",
			zap.String("event_id", event.EventID),
			zap.String("kind", event.Kind),
		)
		return nil
	}

	occurredAt := msg.Time.UTC()
	if strings.TrimSpace(event.OccurredAt) != "" {
		parsed, err := time.Parse(time.RFC3339Nano, event.OccurredAt)
		if err != nil {
			logger.Warn("invalid event occurredAt, using kafka timestamp",
				zap.Error(err),
				zap.String("event_id", event.EventID),
			)
		} else {
			occurredAt = parsed.UTC()
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, operationTTL)
	defer cancel()

	first, err := processed.MarkProcessed(opCtx, event.EventID)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	if !first {
		logger.Debug("duplicate visit event skipped", zap.String("event_id", event.EventID))
		return nil
	}

	if err := stats.IncDaily(opCtx, event.LinkCode, kind, occurredAt); err != nil {
		if unmarkErr := processed.Unmark(context.WithoutCancel(opCtx), event.EventID); unmarkErr != nil {
			logger.Error("failed to release visit event", zap.Error(unmarkErr), zap.String("event_id", event.EventID))
		}
		return fmt.Errorf("increment daily stats: %w", err)
	}

	return nil
}

// pause waits for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func contextFromKafkaHeaders(parent context.Context, headers []kafka.Header) context.Context {
	carrier := propagation.MapCarrier{}
	for _, header := range headers {
		key := strings.ToLower(strings.TrimSpace(header.Key))
		if key == "" {
			continue
		}
		carrier.Set(key, string(header.Value))
	}
	return otel.GetTextMapPropagator().Extract(parent, carrier)
}
