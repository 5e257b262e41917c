package links

import (
	"time"

	"github.com/IgorGrieder/encurtador-qr/internal/processing/analytics"
)

type Link struct {
	Code      string
	TargetURL string
	Owner     int64
	Alias     string
	Title     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// PublicKey is the path segment visitors use: the alias when set, else the code.
func (l *Link) PublicKey() string {
	if l.Alias != "" {
		return l.Alias
	}
	return l.Code
}

type QRCode struct {
	ID        string
	LinkCode  string
	Image     string
	CreatedBy int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type QRListing struct {
	QRCode QRCode
	Link   Link
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type Device struct {
	Type    string
	Browser string
	OS      string
}

type Location struct {
	Country string
	City    string
}

type CreateLinkInput struct {
	Owner      int64
	ClientIP   string
	LongURL    string
	Title      string
	Alias      string
	GenerateQR bool
}

type CreateLinkResult struct {
	Link   *Link
	QRCode *QRCode
}

// UpdateLinkInput leaves a field untouched when its pointer is nil. An empty
// alias clears it.
type UpdateLinkInput struct {
	Alias *string
	Title *string
}

type VisitInput struct {
	Link      *Link
	Kind      analytics.Kind
	ClientIP  string
	UserAgent string
}

type LinkDetails struct {
	Link    *Link
	QRCode  *QRCode
	Summary analytics.Summary
}

type QRDetails struct {
	QRCode  *QRCode
	Link    *Link
	Summary analytics.Summary
}
