package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/links"
)

const qrColumns = `id, link_code, image, created_by, created_at, updated_at`

type QRCodesRepository struct {
	pool *pgxpool.Pool
}

func NewQRCodesRepository(p *db.Postgres) (*QRCodesRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	return &QRCodesRepository{pool: p.Pool}, nil
}

func (r *QRCodesRepository) FindByID(ctx context.Context, id string) (*links.QRCode, error) {
	pgID, err := parsePgUUID(id)
	if err != nil {
		return nil, links.ErrQRNotFound
	}
	return r.findOne(ctx, `SELECT `+qrColumns+` FROM qr_codes WHERE id = $1`, pgID)
}

func (r *QRCodesRepository) FindByLinkCode(ctx context.Context, code string) (*links.QRCode, error) {
	return r.findOne(ctx, `SELECT `+qrColumns+` FROM qr_codes WHERE link_code = $1`, code)
}

func (r *QRCodesRepository) ListByOwner(ctx context.Context, owner int64) ([]links.QRCode, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+qrColumns+`
		FROM qr_codes
		WHERE created_by = $1
		ORDER BY created_at DESC, id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]links.QRCode, 0)
	for rows.Next() {
		qr, err := scanQRCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *qr)
	}
	return out, rows.Err()
}

func (r *QRCodesRepository) UpdateImage(ctx context.Context, id, image string, at time.Time) error {
	pgID, err := parsePgUUID(id)
	if err != nil {
		return links.ErrQRNotFound
	}
	tag, err := r.pool.Exec(ctx, `UPDATE qr_codes SET image = $2, updated_at = $3 WHERE id = $1`, pgID, image, toTimestamptz(at))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return links.ErrQRNotFound
	}
	return nil
}

func (r *QRCodesRepository) findOne(ctx context.Context, sql string, arg any) (*links.QRCode, error) {
	qr, err := scanQRCode(r.pool.QueryRow(ctx, sql, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, links.ErrQRNotFound
	}
	if err != nil {
		return nil, err
	}
	return qr, nil
}

func insertQRCode(ctx context.Context, q querier, qr *links.QRCode) error {
	pgID, err := parsePgUUID(qr.ID)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
		INSERT INTO qr_codes (id, link_code, image, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		pgID,
		qr.LinkCode,
		qr.Image,
		qr.CreatedBy,
		toTimestamptz(qr.CreatedAt),
		toTimestamptz(qr.UpdatedAt),
	)
	return err
}

func scanQRCode(row rowScanner) (*links.QRCode, error) {
	var (
		qr        links.QRCode
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &qr.LinkCode, &qr.Image, &qr.CreatedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	qr.ID = uuidStringFromPg(id)
	qr.CreatedAt = createdAt.Time.UTC()
	qr.UpdatedAt = updatedAt.Time.UTC()
	return &qr, nil
}
