package main

import (
	"context"
	"encoding/json"
	"errors"
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
	postgresStorage "github.com/IgorGrieder/encurtador-qr/internal/storage/postgres"
)

type outboxStore interface {
	ClaimPending(ctx context.Context, now time.Time, limit int64, workerID string, lease time.Duration) ([]postgresStorage.OutboxVisitEvent, error)
	MarkSent(ctx context.Context, id string, workerID string) error
	MarkRetry(ctx context.Context, id string, workerID string, lastError string, nextAttemptAt time.Time) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// publisher moves claimed outbox rows to Kafka, keyed by link code so every
// visit of one link lands on the same partition.
type publisher struct {
	store  outboxStore
	writer messageWriter
	tracer trace.Tracer
	cfg    workerConfig
	now    func() time.Time
}

func newPublisher(store outboxStore, writer messageWriter, cfg workerConfig) *publisher {
	return &publisher{
		store:  store,
		writer: writer,
		tracer: otel.Tracer("outbox-worker"),
		cfg:    cfg,
		now:    time.Now,
	}
}

type inFlight struct {
	event postgresStorage.OutboxVisitEvent
	span  trace.Span
}

// publishBatch claims one batch, writes it to Kafka in a single call and
// settles each row from its own write result. It returns how many rows were
// marked sent.
func (p *publisher) publishBatch(ctx context.Context) (int, error) {
	batch, err := p.store.ClaimPending(ctx, p.now().UTC(), int64(p.cfg.batchSize), p.cfg.workerID, p.cfg.claimLease)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}

	msgs := make([]kafka.Message, 0, len(batch))
	pending := make([]inFlight, 0, len(batch))
	for _, ev := range batch {
		msg, span, err := p.message(ctx, ev)
		if err != nil {
			p.reschedule(ctx, ev, err)
			continue
		}
		msgs = append(msgs, msg)
		pending = append(pending, inFlight{event: ev, span: span})
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.cfg.writeTimeout)
	err = p.writer.WriteMessages(writeCtx, msgs...)
	cancel()

	errFor := func(int) error { return err }
	var writeErrs kafka.WriteErrors
	if errors.As(err, &writeErrs) && len(writeErrs) == len(msgs) {
		errFor = func(i int) error { return writeErrs[i] }
	}

	sent := 0
	for i, f := range pending {
		if err := errFor(i); err != nil {
			f.span.RecordError(err)
			f.span.SetStatus(codes.Error, "kafka publish failed")
			f.span.End()
			p.reschedule(ctx, f.event, err)
			continue
		}

		if err := p.store.MarkSent(ctx, f.event.ID, p.cfg.workerID); err != nil {
			f.span.RecordError(err)
			f.span.SetStatus(codes.Error, "mark sent failed")
			f.span.End()
			logger.Error("failed to mark outbox event as sent", zap.Error(err), zap.String("event_id", f.event.ID))
			continue
		}
		f.span.End()
		sent++
	}

	return sent, nil
}

// message builds the Kafka record for ev under a producer span that continues
// the trace of the request that recorded the visit.
func (p *publisher) message(ctx context.Context, ev postgresStorage.OutboxVisitEvent) (kafka.Message, trace.Span, error) {
	value, err := json.Marshal(visitRecordedFrom(ev))
	if err != nil {
		return kafka.Message{}, nil, err
	}

	carrier := outboxEventCarrier(ev)
	parent := otel.GetTextMapPropagator().Extract(ctx, carrier)
	spanCtx, span := p.tracer.Start(parent, "kafka.publish.visit_recorded",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", p.cfg.kafkaTopic),
			attribute.String("messaging.operation", "publish"),
			attribute.String("messaging.message.id", ev.ID),
			attribute.String("messaging.kafka.message_key", ev.LinkCode),
			attribute.String("visit.kind", string(ev.Kind)),
		),
	)
	otel.GetTextMapPropagator().Inject(spanCtx, carrier)

	return kafka.Message{
		Key:     []byte(ev.LinkCode),
		Value:   value,
		Time:    ev.OccurredAt.UTC(),
		Headers: carrierToKafkaHeaders(carrier),
	}, span, nil
}

func (p *publisher) reschedule(ctx context.Context, ev postgresStorage.OutboxVisitEvent, cause error) {
	delay := backoffDelay(p.cfg.retryBase, p.cfg.retryMax, ev.Attempts+1)
	if err := p.store.MarkRetry(ctx, ev.ID, p.cfg.workerID, truncateErr(cause), p.now().UTC().Add(delay)); err != nil {
		logger.Error("failed to mark outbox retry", zap.Error(err), zap.String("event_id", ev.ID))
	}
	logger.Warn("outbox event rescheduled",
		zap.Error(cause),
		zap.String("event_id", ev.ID),
		zap.String("code", ev.LinkCode),
		zap.Int("attempts", ev.Attempts+1),
		zap.Duration("retry_in", delay),
	)
}

// run polls until ctx is done. A full batch is followed immediately by the
// next claim after idleWait; an empty one waits for the poll tick.
func (p *publisher) run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.pollInterval)
	defer ticker.Stop()

	for ctx.Err() == nil {
		sent, err := p.publishBatch(ctx)
		if err != nil {
			logger.Error("failed to process outbox batch", zap.Error(err))
		}

		wait := ticker.C
		if sent > 0 {
			if p.cfg.idleWait <= 0 {
				continue
			}
			wait = time.After(p.cfg.idleWait)
		}
		select {
		case <-ctx.Done():
		case <-wait:
		}
	}
	logger.Info("outbox worker stopping")
}

func visitRecordedFrom(ev postgresStorage.OutboxVisitEvent) events.VisitRecorded {
	return events.VisitRecorded{
		EventID:    ev.ID,
		VisitID:    ev.VisitID,
		Kind:       string(ev.Kind),
		LinkCode:   ev.LinkCode,
		QRID:       ev.QRID,
		OccurredAt: ev.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}

func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	return min(delay, max)
}

func truncateErr(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 1000 {
		return msg[:1000]
	}
	return msg
}

func outboxEventCarrier(ev postgresStorage.OutboxVisitEvent) propagation.MapCarrier {
	carrier := propagation.MapCarrier{}
	for key, value := range map[string]string{
		"traceparent": ev.TraceParent,
		"tracestate":  ev.TraceState,
		"baggage":     ev.Baggage,
	} {
		if v := strings.TrimSpace(value); v != "" {
			carrier.Set(key, v)
		}
	}
	return carrier
}

func carrierToKafkaHeaders(carrier propagation.MapCarrier) []kafka.Header {
	headers := make([]kafka.Header, 0, len(carrier))
	for _, key := range carrier.Keys() {
		if value := carrier.Get(key); value != "" {
			headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
		}
	}
	return headers
}
