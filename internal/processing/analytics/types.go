package analytics

import "time"

type Kind string

const (
	KindLink Kind = "link"
	KindQR   Kind = "qr"
)

// VisitEvent is one recorded redirect or QR scan. QRID is set iff Kind is KindQR.
type VisitEvent struct {
	ID         int64
	Kind       Kind
	LinkCode   string
	QRID       string
	Country    string
	City       string
	DeviceType string
	Browser    string
	OS         string
	CreatedAt  time.Time
}

type Summary struct {
	EngagementOverTime []DailyEngagement `json:"engagement_over_time"`
	Locations          []LocationCount   `json:"locations"`
	DeviceData         []DeviceCount     `json:"device_data"`
}

type DailyEngagement struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

type LocationCount struct {
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	Clicks  int64  `json:"clicks"`
}

type DeviceCount struct {
	DeviceType string `json:"device_type,omitempty"`
	Browser    string `json:"browser,omitempty"`
	OS         string `json:"os,omitempty"`
	Clicks     int64  `json:"clicks"`
}
