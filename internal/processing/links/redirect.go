package links

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/logger"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/analytics"
)

// Resolve finds the link a visitor asked for by code or alias.
func (s *Service) Resolve(ctx context.Context, key string) (*Link, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrNotFound
	}
	return s.linkRepo.FindByKey(ctx, key)
}

// RecordVisit stores one visit for a resolved link. A QR scan of a link that
// has no QR image is stored as a plain link visit. Nothing is stored when the
// geo lookup fails.
func (s *Service) RecordVisit(ctx context.Context, in VisitInput) error {
	if in.Link == nil {
		return ErrNotFound
	}

	visit := analytics.VisitEvent{
		Kind:      analytics.KindLink,
		LinkCode:  in.Link.Code,
		CreatedAt: s.now().UTC(),
	}

	if in.Kind == analytics.KindQR {
		qr, err := s.qrRepo.FindByLinkCode(ctx, in.Link.Code)
		switch {
		case err == nil:
			visit.Kind = analytics.KindQR
			visit.QRID = qr.ID
		case errors.Is(err, ErrQRNotFound):
			logger.Warn("qr visit for link without qr image",
				zap.String("code", in.Link.Code),
			)
		default:
			return fmt.Errorf("find qr: %w", err)
		}
	}

	device := s.devices.Detect(in.UserAgent)
	visit.DeviceType = device.Type
	visit.Browser = device.Browser
	visit.OS = device.OS

	loc, err := s.geo.Locate(ctx, in.ClientIP)
	if err != nil {
		return fmt.Errorf("geo lookup: %w", err)
	}
	visit.Country = loc.Country
	visit.City = loc.City

	return s.visitRepo.Record(ctx, &visit)
}
