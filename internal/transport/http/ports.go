package http

import (
	"context"
	"time"

	"github.com/IgorGrieder/encurtador-qr/internal/processing/auth"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/links"
)

// LinkService is the part of links.Service the HTTP layer drives.
type LinkService interface {
	ShortURL(link *links.Link) string
	CreateLink(ctx context.Context, in links.CreateLinkInput) (*links.CreateLinkResult, error)
	ListLinks(ctx context.Context, owner int64) ([]links.Link, error)
	UpdateLink(ctx context.Context, owner int64, key string, in links.UpdateLinkInput) (*links.Link, error)
	DeleteLink(ctx context.Context, owner int64, key string) error
	GetStats(ctx context.Context, owner int64, key string, from, to time.Time) ([]links.DailyCount, error)
	LinkDetails(ctx context.Context, owner int64, key string) (*links.LinkDetails, error)
	QRDetails(ctx context.Context, owner int64, qrID string) (*links.QRDetails, error)
	ListQRCodes(ctx context.Context, owner int64) ([]links.QRListing, error)
	Resolve(ctx context.Context, key string) (*links.Link, error)
	RecordVisit(ctx context.Context, in links.VisitInput) error
}

type AuthService interface {
	Signup(ctx context.Context, in auth.SignupInput) (*auth.User, error)
	Login(ctx context.Context, email, password string) (string, *auth.User, error)
	Logout(ctx context.Context, id auth.Identity) error
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
	Profile(ctx context.Context, userID int64) (*auth.User, error)
}
