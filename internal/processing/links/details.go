package links

import (
	"context"
	"errors"
	"fmt"

	"github.com/IgorGrieder/encurtador-qr/internal/processing/analytics"
)

func (s *Service) LinkDetails(ctx context.Context, owner int64, key string) (*LinkDetails, error) {
	link, err := s.ownedLink(ctx, owner, key)
	if err != nil {
		return nil, err
	}

	qr, err := s.qrRepo.FindByLinkCode(ctx, link.Code)
	if err != nil && !errors.Is(err, ErrQRNotFound) {
		return nil, fmt.Errorf("find qr: %w", err)
	}

	visits, err := s.visitRepo.ListByLinkCode(ctx, link.Code)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}

	return &LinkDetails{
		Link:    link,
		QRCode:  qr,
		Summary: analytics.Aggregate(visits),
	}, nil
}

func (s *Service) QRDetails(ctx context.Context, owner int64, qrID string) (*QRDetails, error) {
	qr, err := s.qrRepo.FindByID(ctx, qrID)
	if err != nil {
		return nil, err
	}
	if qr.CreatedBy != owner {
		return nil, ErrQRNotFound
	}

	link, err := s.linkRepo.FindByKey(ctx, qr.LinkCode)
	if err != nil {
		return nil, err
	}

	visits, err := s.visitRepo.ListByQRID(ctx, qr.ID)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}

	return &QRDetails{
		QRCode:  qr,
		Link:    link,
		Summary: analytics.Aggregate(visits),
	}, nil
}

// ListQRCodes pairs each of the owner's QR codes with its link.
func (s *Service) ListQRCodes(ctx context.Context, owner int64) ([]QRListing, error) {
	codes, err := s.qrRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return []QRListing{}, nil
	}

	owned, err := s.linkRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]Link, len(owned))
	for _, l := range owned {
		byCode[l.Code] = l
	}

	out := make([]QRListing, 0, len(codes))
	for _, qr := range codes {
		link, ok := byCode[qr.LinkCode]
		if !ok {
			continue
		}
		out = append(out, QRListing{QRCode: qr, Link: link})
	}
	return out, nil
}
