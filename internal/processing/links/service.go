package links

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultLinkLifetime = 10 * 365 * 24 * time.Hour

// MaxStatsDays bounds the inclusive day span of a GetStats range.
const MaxStatsDays = 366

// reservedKeys are top-level path segments owned by fixed API routes. A link
// keyed by one of them could never be reached through its short URL.
var reservedKeys = map[string]struct{}{
	"auth":    {},
	"health":  {},
	"metrics": {},
	"qr-code": {},
	"url":     {},
	"user":    {},
}

// IsReservedKey reports whether key collides with a fixed route segment.
func IsReservedKey(key string) bool {
	_, ok := reservedKeys[key]
	return ok
}

type Deps struct {
	Links   LinkRepository
	QRCodes QRRepository
	Visits  VisitRepository
	Stats   StatsRepository
	Codes   CodeGenerator
	QR      QREncoder
	Devices DeviceDetector
	Geo     GeoLocator
}

type Options struct {
	BaseURL      string
	LinkLifetime time.Duration
}

type Service struct {
	linkRepo  LinkRepository
	qrRepo    QRRepository
	visitRepo VisitRepository
	statsRepo StatsRepository
	codes     CodeGenerator
	qr        QREncoder
	devices   DeviceDetector
	geo       GeoLocator

	baseURL      string
	linkLifetime time.Duration
	now          func() time.Time
	newID        func() string
}

func NewService(deps Deps, opts Options) *Service {
	if opts.LinkLifetime <= 0 {
		opts.LinkLifetime = defaultLinkLifetime
	}

	return &Service{
		linkRepo:     deps.Links,
		qrRepo:       deps.QRCodes,
		visitRepo:    deps.Visits,
		statsRepo:    deps.Stats,
		codes:        deps.Codes,
		qr:           deps.QR,
		devices:      deps.Devices,
		geo:          deps.Geo,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		linkLifetime: opts.LinkLifetime,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// ShortURL is the absolute URL visitors follow for link.
func (s *Service) ShortURL(link *Link) string {
	return s.baseURL + "/" + link.PublicKey()
}

// QRContent is the URL encoded into a link's QR image.
func (s *Service) QRContent(link *Link) string {
	return s.ShortURL(link) + "?r=qr"
}

func (s *Service) CreateLink(ctx context.Context, in CreateLinkInput) (*CreateLinkResult, error) {
	targetURL, err := validateAndNormalizeURL(in.LongURL)
	if err != nil {
		return nil, ErrInvalidURL
	}

	alias := strings.TrimSpace(in.Alias)
	if IsReservedKey(alias) {
		return nil, ErrReservedAlias
	}
	if alias != "" {
		taken, err := s.linkRepo.KeyExists(ctx, alias)
		if err != nil {
			return nil, fmt.Errorf("check alias: %w", err)
		}
		if taken {
			return nil, ErrConflict
		}
	}

	code := s.codes.Generate(in.ClientIP)
	if IsReservedKey(code) {
		return nil, ErrConflict
	}
	taken, err := s.linkRepo.KeyExists(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("check code: %w", err)
	}
	if taken {
		return nil, ErrConflict
	}

	now := s.now().UTC()
	link := &Link{
		Code:      code,
		TargetURL: targetURL,
		Owner:     in.Owner,
		Alias:     alias,
		Title:     strings.TrimSpace(in.Title),
		CreatedAt: now,
		ExpiresAt: now.Add(s.linkLifetime),
	}

	var qr *QRCode
	if in.GenerateQR {
		image, err := s.qr.DataURI(s.QRContent(link))
		if err != nil {
			return nil, fmt.Errorf("encode qr: %w", err)
		}
		qr = &QRCode{
			ID:        s.newID(),
			LinkCode:  code,
			Image:     image,
			CreatedBy: in.Owner,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	if err := s.linkRepo.Insert(ctx, link, qr); err != nil {
		return nil, err
	}

	return &CreateLinkResult{Link: link, QRCode: qr}, nil
}

func (s *Service) ListLinks(ctx context.Context, owner int64) ([]Link, error) {
	return s.linkRepo.ListByOwner(ctx, owner)
}

// UpdateLink changes alias and title. The QR image, if any, is re-encoded when
// the public path changes.
func (s *Service) UpdateLink(ctx context.Context, owner int64, key string, in UpdateLinkInput) (*Link, error) {
	link, err := s.ownedLink(ctx, owner, key)
	if err != nil {
		return nil, err
	}

	previousAlias := link.Alias
	previousKey := link.PublicKey()

	if in.Alias != nil {
		alias := strings.TrimSpace(*in.Alias)
		if IsReservedKey(alias) {
			return nil, ErrReservedAlias
		}
		if alias != "" && alias != link.Alias && alias != link.Code {
			taken, err := s.linkRepo.KeyExists(ctx, alias)
			if err != nil {
				return nil, fmt.Errorf("check alias: %w", err)
			}
			if taken {
				return nil, ErrConflict
			}
		}
		link.Alias = alias
	}
	if in.Title != nil {
		link.Title = strings.TrimSpace(*in.Title)
	}

	if err := s.linkRepo.Update(ctx, link, previousAlias); err != nil {
		return nil, err
	}

	if link.PublicKey() != previousKey {
		if err := s.refreshQR(ctx, link); err != nil {
			return nil, err
		}
	}

	return link, nil
}

func (s *Service) DeleteLink(ctx context.Context, owner int64, key string) error {
	link, err := s.ownedLink(ctx, owner, key)
	if err != nil {
		return err
	}

	deleted, err := s.linkRepo.Delete(ctx, link.Code)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// GetStats returns one entry per UTC day in [from, to], zero-filled. The
// range may span at most MaxStatsDays days.
func (s *Service) GetStats(ctx context.Context, owner int64, key string, from, to time.Time) ([]DailyCount, error) {
	from = from.UTC()
	to = to.UTC()
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	if dateOnly(to).Sub(dateOnly(from)) >= MaxStatsDays*24*time.Hour {
		return nil, ErrRangeTooLong
	}

	link, err := s.ownedLink(ctx, owner, key)
	if err != nil {
		return nil, err
	}

	counts, err := s.statsRepo.GetDaily(ctx, link.Code, from, to)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]int64, len(counts))
	for _, c := range counts {
		byDate[c.Date] = c.Count
	}

	out := make([]DailyCount, 0, int(to.Sub(from).Hours()/24)+1)
	for day := dateOnly(from); !day.After(dateOnly(to)); day = day.AddDate(0, 0, 1) {
		ds := day.Format(time.DateOnly)
		out = append(out, DailyCount{
			Date:  ds,
			Count: byDate[ds],
		})
	}

	return out, nil
}

// ownedLink hides links owned by someone else behind ErrNotFound.
func (s *Service) ownedLink(ctx context.Context, owner int64, key string) (*Link, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrNotFound
	}

	link, err := s.linkRepo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if link.Owner != owner {
		return nil, ErrNotFound
	}
	return link, nil
}

func (s *Service) refreshQR(ctx context.Context, link *Link) error {
	qr, err := s.qrRepo.FindByLinkCode(ctx, link.Code)
	if errors.Is(err, ErrQRNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	image, err := s.qr.DataURI(s.QRContent(link))
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	return s.qrRepo.UpdateImage(ctx, qr.ID, image, s.now().UTC())
}

func validateAndNormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", ErrInvalidURL
	}

	u.Fragment = ""
	return u.String(), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
