package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/IgorGrieder/encurtador-qr/internal/events"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/analytics"
)

const (
	outboxStatusPending    = "pending"
	outboxStatusProcessing = "processing"
	outboxStatusSent       = "sent"
)

var ErrOutboxEventNotOwned = errors.New("outbox event not owned by worker")

type VisitOutboxRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

type OutboxVisitEvent struct {
	ID          string
	VisitID     int64
	Kind        analytics.Kind
	LinkCode    string
	QRID        string
	OccurredAt  time.Time
	TraceParent string
	TraceState  string
	Baggage     string
	Attempts    int
}

func NewVisitOutboxRepository(p *db.Postgres) (*VisitOutboxRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	return &VisitOutboxRepository{pool: p.Pool, now: time.Now}, nil
}

// enqueue runs inside the caller's transaction and carries the current trace
// context so the consumer can continue it.
func (r *VisitOutboxRepository) enqueue(ctx context.Context, q querier, visit *analytics.VisitEvent) error {
	now := r.now().UTC()
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	qrID, err := toNullableUUID(visit.QRID)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO visit_outbox (
			id, event_type, visit_id, kind, link_code, qr_id, occurred_at,
			traceparent, tracestate, baggage,
			status, attempts, next_attempt_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $12, $12)`,
		pgtype.UUID{Bytes: uuid.New(), Valid: true},
		events.VisitRecordedType,
		visit.ID,
		string(visit.Kind),
		visit.LinkCode,
		qrID,
		toTimestamptz(visit.CreatedAt),
		toNullableText(carrier.Get("traceparent")),
		toNullableText(carrier.Get("tracestate")),
		toNullableText(carrier.Get("baggage")),
		outboxStatusPending,
		toTimestamptz(now),
	)
	return err
}

// ClaimPending leases up to limit due events to workerID. Events whose lease
// expired are claimable again.
func (r *VisitOutboxRepository) ClaimPending(
	ctx context.Context,
	now time.Time,
	limit int64,
	workerID string,
	lease time.Duration,
) ([]OutboxVisitEvent, error) {
	if limit <= 0 {
		limit = 1
	}
	if lease <= 0 {
		lease = 30 * time.Second
	}
	workerID = strings.TrimSpace(workerID)
	if workerID == "" {
		return nil, errors.New("workerID must not be empty")
	}

	now = now.UTC()
	rows, err := r.pool.Query(ctx, `
		UPDATE visit_outbox
		SET status = $2, processing_owner = $3, processing_expires_at = $4, updated_at = $1
		WHERE id IN (
			SELECT id FROM visit_outbox
			WHERE (status = $6 AND next_attempt_at <= $1)
			   OR (status = $2 AND processing_expires_at < $1)
			ORDER BY created_at
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, visit_id, kind, link_code, qr_id, occurred_at, traceparent, tracestate, baggage, attempts`,
		toTimestamptz(now),
		outboxStatusProcessing,
		workerID,
		toTimestamptz(now.Add(lease)),
		limit,
		outboxStatusPending,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]OutboxVisitEvent, 0, limit)
	for rows.Next() {
		var (
			ev          OutboxVisitEvent
			id          pgtype.UUID
			kind        string
			qrID        pgtype.UUID
			occurredAt  pgtype.Timestamptz
			traceParent pgtype.Text
			traceState  pgtype.Text
			baggage     pgtype.Text
			attempts    int32
		)
		if err := rows.Scan(&id, &ev.VisitID, &kind, &ev.LinkCode, &qrID, &occurredAt, &traceParent, &traceState, &baggage, &attempts); err != nil {
			return nil, err
		}
		ev.ID = uuidStringFromPg(id)
		ev.Kind = analytics.Kind(kind)
		ev.QRID = uuidStringFromPg(qrID)
		ev.OccurredAt = occurredAt.Time.UTC()
		ev.TraceParent = nullableTextValue(traceParent)
		ev.TraceState = nullableTextValue(traceState)
		ev.Baggage = nullableTextValue(baggage)
		ev.Attempts = int(attempts)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *VisitOutboxRepository) MarkSent(ctx context.Context, id string, workerID string) error {
	pgID, err := parsePgUUID(id)
	if err != nil {
		return err
	}
	now := toTimestamptz(r.now())
	tag, err := r.pool.Exec(ctx, `
		UPDATE visit_outbox
		SET status = $3, sent_at = $4, updated_at = $4, processing_owner = NULL, processing_expires_at = NULL
		WHERE id = $1 AND processing_owner = $2`,
		pgID, workerID, outboxStatusSent, now,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOutboxEventNotOwned
	}
	return nil
}

func (r *VisitOutboxRepository) MarkRetry(
	ctx context.Context,
	id string,
	workerID string,
	lastError string,
	nextAttemptAt time.Time,
) error {
	pgID, err := parsePgUUID(id)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE visit_outbox
		SET status = $3, attempts = attempts + 1, last_error = $4, next_attempt_at = $5,
		    updated_at = $6, processing_owner = NULL, processing_expires_at = NULL
		WHERE id = $1 AND processing_owner = $2`,
		pgID,
		workerID,
		outboxStatusPending,
		toNullableText(lastError),
		toTimestamptz(nextAttemptAt),
		toTimestamptz(r.now()),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOutboxEventNotOwned
	}
	return nil
}

// PurgeSent deletes sent events older than before and reports how many went.
func (r *VisitOutboxRepository) PurgeSent(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM visit_outbox WHERE status = $1 AND sent_at < $2`,
		outboxStatusSent, toTimestamptz(before))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
