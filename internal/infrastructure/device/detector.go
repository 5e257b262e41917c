// Package device classifies user agents into device type, browser and OS.
package device

import (
	"strings"

	"github.com/mssola/useragent"

	"github.com/IgorGrieder/encurtador-qr/internal/processing/links"
)

const (
	TypeBot     = "bot"
	TypeTablet  = "tablet"
	TypeMobile  = "mobile"
	TypeDesktop = "desktop"
)

type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the zero Device for an empty user agent.
func (d *Detector) Detect(userAgent string) links.Device {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return links.Device{}
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()

	return links.Device{
		Type:    deviceType(ua, userAgent),
		Browser: browser,
		OS:      ua.OSInfo().Name,
	}
}

func deviceType(ua *useragent.UserAgent, raw string) string {
	switch {
	case ua.Bot():
		return TypeBot
	case isTablet(raw):
		return TypeTablet
	case ua.Mobile():
		return TypeMobile
	default:
		return TypeDesktop
	}
}

// Android tablets omit the "Mobile" token that Android phones send.
func isTablet(raw string) bool {
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet") {
		return true
	}
	return strings.Contains(lower, "android") && !strings.Contains(lower, "mobile")
}
