package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/IgorGrieder/encurtador-qr/internal/processing/links"
	"github.com/IgorGrieder/encurtador-qr/pkg/httpclient"
)

func newClient() *httpclient.Client {
	return httpclient.NewClient(httpclient.Options{Timeout: time.Second, MaxFailures: 5, OpenTimeout: time.Second})
}

func TestLocate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ip"); got != "198.51.100.23" {
			t.Errorf("got ip %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"geoplugin_status":200,"geoplugin_city":"Recife","geoplugin_countryName":"Brazil","geoplugin_countryCode":"BR"}`))
	}))
	defer srv.Close()

	loc, err := NewLocator(newClient(), srv.URL, time.Second).Locate(context.Background(), "198.51.100.23")
	if err != nil {
		t.Fatal(err)
	}
	want := links.Location{Country: "Brazil", City: "Recife"}
	if loc != want {
		t.Errorf("got %+v, want %+v", loc, want)
	}
}

func TestLocate_UnknownAddressIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"geoplugin_status":404,"geoplugin_city":null,"geoplugin_countryName":null}`))
	}))
	defer srv.Close()

	loc, err := NewLocator(newClient(), srv.URL, time.Second).Locate(context.Background(), "203.0.113.9")
	if err != nil {
		t.Fatal(err)
	}
	if loc != (links.Location{}) {
		t.Errorf("got %+v, want empty location", loc)
	}
}

func TestLocate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewLocator(newClient(), srv.URL, 20*time.Millisecond).Locate(context.Background(), "198.51.100.23")
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestLocate_SkipsUnroutable(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"geoplugin_city":"Nowhere","geoplugin_countryName":"Nowhere"}`))
	}))
	defer srv.Close()

	l := NewLocator(newClient(), srv.URL, time.Second)
	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.10", "::1", "fe80::1", "::ffff:172.16.0.4", "0.0.0.0", "not-an-ip", ""} {
		loc, err := l.Locate(context.Background(), ip)
		if err != nil {
			t.Fatalf("%q: %v", ip, err)
		}
		if loc != (links.Location{}) {
			t.Errorf("%q: got %+v, want empty location", ip, loc)
		}
	}
	if calls != 0 {
		t.Errorf("upstream called %d times, want 0", calls)
	}
}
