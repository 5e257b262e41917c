package links

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IgorGrieder/encurtador-qr/internal/processing/analytics"
)

var (
	ErrNotFound      = errors.New("link not found")
	ErrQRNotFound    = errors.New("qr code not found")
	ErrConflict      = errors.New("short code or alias already exists")
	ErrInvalidURL    = errors.New("invalid url")
	ErrInvalidRange  = errors.New("invalid date range")
	ErrRangeTooLong  = fmt.Errorf("%w: more than %d days", ErrInvalidRange, MaxStatsDays)
	ErrReservedAlias = errors.New("alias is reserved")
)

// LinkRepository resolves links by code or alias. Insert and Update must
// return ErrConflict when a key is already held by another link.
type LinkRepository interface {
	Insert(ctx context.Context, link *Link, qr *QRCode) error
	KeyExists(ctx context.Context, key string) (bool, error)
	FindByKey(ctx context.Context, key string) (*Link, error)
	ListByOwner(ctx context.Context, owner int64) ([]Link, error)
	Update(ctx context.Context, link *Link, previousAlias string) error
	Delete(ctx context.Context, code string) (bool, error)
}

type QRRepository interface {
	FindByID(ctx context.Context, id string) (*QRCode, error)
	FindByLinkCode(ctx context.Context, code string) (*QRCode, error)
	ListByOwner(ctx context.Context, owner int64) ([]QRCode, error)
	UpdateImage(ctx context.Context, id, image string, at time.Time) error
}

type VisitRepository interface {
	Record(ctx context.Context, visit *analytics.VisitEvent) error
	ListByLinkCode(ctx context.Context, code string) ([]analytics.VisitEvent, error)
	ListByQRID(ctx context.Context, qrID string) ([]analytics.VisitEvent, error)
}

type StatsRepository interface {
	GetDaily(ctx context.Context, code string, from, to time.Time) ([]DailyCount, error)
}

type CodeGenerator interface {
	Generate(clientAddress string) string
}

type QREncoder interface {
	DataURI(content string) (string, error)
}

type DeviceDetector interface {
	Detect(userAgent string) Device
}

type GeoLocator interface {
	Locate(ctx context.Context, ip string) (Location, error)
}
