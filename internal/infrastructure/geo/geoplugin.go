// Package geo resolves client addresses to a country and city.
package geo

import (
	"context"
	"net/netip"
	"time"

	"github.com/IgorGrieder/encurtador-qr/internal/processing/links"
	"github.com/IgorGrieder/encurtador-qr/pkg/httpclient"
)

type geopluginResponse struct {
	CountryName string `json:"geoplugin_countryName"`
	City        string `json:"geoplugin_city"`
}

// Locator queries a geoplugin-compatible JSON endpoint.
type Locator struct {
	client   *httpclient.Client
	endpoint string
	timeout  time.Duration
}

func NewLocator(client *httpclient.Client, endpoint string, timeout time.Duration) *Locator {
	return &Locator{
		client:   client,
		endpoint: endpoint,
		timeout:  timeout,
	}
}

// Locate returns an empty Location without a lookup for addresses that
// cannot be geolocated (private, loopback, link-local, unspecified).
func (l *Locator) Locate(ctx context.Context, ip string) (links.Location, error) {
	if !routable(ip) {
		return links.Location{}, nil
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	var out geopluginResponse
	if err := l.client.GetJSON(ctx, l.endpoint, map[string]string{"ip": ip}, &out); err != nil {
		return links.Location{}, err
	}

	return links.Location{Country: out.CountryName, City: out.City}, nil
}

func routable(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return !(addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsUnspecified())
}
