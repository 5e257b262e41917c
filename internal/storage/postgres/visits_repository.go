package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/analytics"
)

const visitColumns = `id, kind, link_code, qr_id, country, city, device_type, browser, os, created_at`

type VisitsRepository struct {
	pool   *pgxpool.Pool
	outbox *VisitOutboxRepository
}

func NewVisitsRepository(p *db.Postgres, outbox *VisitOutboxRepository) (*VisitsRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	if outbox == nil {
		return nil, errors.New("visit outbox is nil")
	}
	return &VisitsRepository{pool: p.Pool, outbox: outbox}, nil
}

// Record appends the visit and its outbox event in one transaction and fills
// visit.ID.
func (r *VisitsRepository) Record(ctx context.Context, visit *analytics.VisitEvent) error {
	qrID, err := toNullableUUID(visit.QRID)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer rollback(ctx, tx)

	err = tx.QueryRow(ctx, `
		INSERT INTO visits (kind, link_code, qr_id, country, city, device_type, browser, os, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		string(visit.Kind),
		visit.LinkCode,
		qrID,
		toNullableText(visit.Country),
		toNullableText(visit.City),
		toNullableText(visit.DeviceType),
		toNullableText(visit.Browser),
		toNullableText(visit.OS),
		toTimestamptz(visit.CreatedAt),
	).Scan(&visit.ID)
	if err != nil {
		return err
	}

	if err := r.outbox.enqueue(ctx, tx, visit); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *VisitsRepository) ListByLinkCode(ctx context.Context, code string) ([]analytics.VisitEvent, error) {
	return r.list(ctx, `SELECT `+visitColumns+` FROM visits WHERE link_code = $1 ORDER BY id`, code)
}

func (r *VisitsRepository) ListByQRID(ctx context.Context, qrID string) ([]analytics.VisitEvent, error) {
	pgID, err := parsePgUUID(qrID)
	if err != nil {
		return []analytics.VisitEvent{}, nil
	}
	return r.list(ctx, `SELECT `+visitColumns+` FROM visits WHERE qr_id = $1 ORDER BY id`, pgID)
}

func (r *VisitsRepository) list(ctx context.Context, sql string, arg any) ([]analytics.VisitEvent, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]analytics.VisitEvent, 0)
	for rows.Next() {
		var (
			v          analytics.VisitEvent
			kind       string
			qrID       pgtype.UUID
			country    pgtype.Text
			city       pgtype.Text
			deviceType pgtype.Text
			browser    pgtype.Text
			os         pgtype.Text
			createdAt  pgtype.Timestamptz
		)
		if err := rows.Scan(&v.ID, &kind, &v.LinkCode, &qrID, &country, &city, &deviceType, &browser, &os, &createdAt); err != nil {
			return nil, err
		}
		v.Kind = analytics.Kind(kind)
		v.QRID = uuidStringFromPg(qrID)
		v.Country = nullableTextValue(country)
		v.City = nullableTextValue(city)
		v.DeviceType = nullableTextValue(deviceType)
		v.Browser = nullableTextValue(browser)
		v.OS = nullableTextValue(os)
		v.CreatedAt = createdAt.Time.UTC()
		out = append(out, v)
	}
	return out, rows.Err()
}
