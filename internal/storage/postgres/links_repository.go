package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/links"
)

const linkColumns = `l.code, l.target_url, l.owner_id, l.custom_alias, l.title, l.created_at, l.expires_at`

type LinksRepository struct {
	pool *pgxpool.Pool
}

func NewLinksRepository(p *db.Postgres) (*LinksRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	return &LinksRepository{pool: p.Pool}, nil
}

// Insert stores the link, its lookup keys and the optional QR image in one
// transaction. Any key collision surfaces as links.ErrConflict.
func (r *LinksRepository) Insert(ctx context.Context, link *links.Link, qr *links.QRCode) error {
	if link == nil {
		return errors.New("link is nil")
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer rollback(ctx, tx)

	_, err = tx.Exec(ctx, `
		INSERT INTO links (code, target_url, owner_id, custom_alias, title, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		link.Code,
		link.TargetURL,
		link.Owner,
		toNullableText(link.Alias),
		toNullableText(link.Title),
		toTimestamptz(link.CreatedAt),
		toTimestamptz(link.ExpiresAt),
	)
	if err != nil {
		return mapConflict(err)
	}

	for _, key := range lookupKeys(link) {
		if err := insertKey(ctx, tx, key, link.Code); err != nil {
			return err
		}
	}

	if qr != nil {
		if err := insertQRCode(ctx, tx, qr); err != nil {
			return mapConflict(err)
		}
	}

	return tx.Commit(ctx)
}

func (r *LinksRepository) KeyExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM link_keys WHERE key = $1)`, key).Scan(&exists)
	return exists, err
}

func (r *LinksRepository) FindByKey(ctx context.Context, key string) (*links.Link, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+linkColumns+`
		FROM link_keys k
		JOIN links l ON l.code = k.link_code
		WHERE k.key = $1`, key)

	link, err := scanLink(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, links.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (r *LinksRepository) ListByOwner(ctx context.Context, owner int64) ([]links.Link, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+linkColumns+`
		FROM links l
		WHERE l.owner_id = $1
		ORDER BY l.created_at DESC, l.code`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]links.Link, 0)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *link)
	}
	return out, rows.Err()
}

// Update writes alias and title and moves the alias lookup key when it changed.
func (r *LinksRepository) Update(ctx context.Context, link *links.Link, previousAlias string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer rollback(ctx, tx)

	tag, err := tx.Exec(ctx, `
		UPDATE links SET custom_alias = $2, title = $3
		WHERE code = $1`,
		link.Code,
		toNullableText(link.Alias),
		toNullableText(link.Title),
	)
	if err != nil {
		return mapConflict(err)
	}
	if tag.RowsAffected() == 0 {
		return links.ErrNotFound
	}

	if previousAlias != link.Alias {
		if previousAlias != "" && previousAlias != link.Code {
			if _, err := tx.Exec(ctx, `DELETE FROM link_keys WHERE key = $1 AND link_code = $2`, previousAlias, link.Code); err != nil {
				return err
			}
		}
		if link.Alias != "" && link.Alias != link.Code {
			if err := insertKey(ctx, tx, link.Alias, link.Code); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

// Delete removes the link; keys and QR image go with it.
func (r *LinksRepository) Delete(ctx context.Context, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM links WHERE code = $1`, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func lookupKeys(link *links.Link) []string {
	keys := []string{link.Code}
	if link.Alias != "" && link.Alias != link.Code {
		keys = append(keys, link.Alias)
	}
	return keys
}

func insertKey(ctx context.Context, q querier, key, code string) error {
	_, err := q.Exec(ctx, `INSERT INTO link_keys (key, link_code) VALUES ($1, $2)`, key, code)
	return mapConflict(err)
}

func mapConflict(err error) error {
	if isUniqueViolation(err) {
		return links.ErrConflict
	}
	return err
}

func scanLink(row rowScanner) (*links.Link, error) {
	var (
		link      links.Link
		alias     pgtype.Text
		title     pgtype.Text
		createdAt pgtype.Timestamptz
		expiresAt pgtype.Timestamptz
	)
	if err := row.Scan(&link.Code, &link.TargetURL, &link.Owner, &alias, &title, &createdAt, &expiresAt); err != nil {
		return nil, err
	}
	link.Alias = nullableTextValue(alias)
	link.Title = nullableTextValue(title)
	link.CreatedAt = createdAt.Time.UTC()
	link.ExpiresAt = expiresAt.Time.UTC()
	return &link, nil
}
