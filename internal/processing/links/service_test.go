package links

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/IgorGrieder/encurtador-qr/internal/processing/analytics"
)

// --- Hand-written mocks ---

type mockLinkRepo struct {
	insertFn      func(ctx context.Context, link *Link, qr *QRCode) error
	keyExistsFn   func(ctx context.Context, key string) (bool, error)
	findByKeyFn   func(ctx context.Context, key string) (*Link, error)
	listByOwnerFn func(ctx context.Context, owner int64) ([]Link, error)
	updateFn      func(ctx context.Context, link *Link, previousAlias string) error
	deleteFn      func(ctx context.Context, code string) (bool, error)
}

func (m *mockLinkRepo) Insert(ctx context.Context, link *Link, qr *QRCode) error {
	return m.insertFn(ctx, link, qr)
}
func (m *mockLinkRepo) KeyExists(ctx context.Context, key string) (bool, error) {
	if m.keyExistsFn == nil {
		return false, nil
	}
	return m.keyExistsFn(ctx, key)
}
func (m *mockLinkRepo) FindByKey(ctx context.Context, key string) (*Link, error) {
	return m.findByKeyFn(ctx, key)
}
func (m *mockLinkRepo) ListByOwner(ctx context.Context, owner int64) ([]Link, error) {
	return m.listByOwnerFn(ctx, owner)
}
func (m *mockLinkRepo) Update(ctx context.Context, link *Link, previousAlias string) error {
	return m.updateFn(ctx, link, previousAlias)
}
func (m *mockLinkRepo) Delete(ctx context.Context, code string) (bool, error) {
	return m.deleteFn(ctx, code)
}

type mockQRRepo struct {
	findByIDFn       func(ctx context.Context, id string) (*QRCode, error)
	findByLinkCodeFn func(ctx context.Context, code string) (*QRCode, error)
	listByOwnerFn    func(ctx context.Context, owner int64) ([]QRCode, error)
	updateImageFn    func(ctx context.Context, id, image string, at time.Time) error
}

func (m *mockQRRepo) FindByID(ctx context.Context, id string) (*QRCode, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockQRRepo) FindByLinkCode(ctx context.Context, code string) (*QRCode, error) {
	if m.findByLinkCodeFn == nil {
		return nil, ErrQRNotFound
	}
	return m.findByLinkCodeFn(ctx, code)
}
func (m *mockQRRepo) ListByOwner(ctx context.Context, owner int64) ([]QRCode, error) {
	return m.listByOwnerFn(ctx, owner)
}
func (m *mockQRRepo) UpdateImage(ctx context.Context, id, image string, at time.Time) error {
	return m.updateImageFn(ctx, id, image, at)
}

type mockVisitRepo struct {
	recordFn         func(ctx context.Context, visit *analytics.VisitEvent) error
	listByLinkCodeFn func(ctx context.Context, code string) ([]analytics.VisitEvent, error)
	listByQRIDFn     func(ctx context.Context, qrID string) ([]analytics.VisitEvent, error)
}

func (m *mockVisitRepo) Record(ctx context.Context, visit *analytics.VisitEvent) error {
	return m.recordFn(ctx, visit)
}
func (m *mockVisitRepo) ListByLinkCode(ctx context.Context, code string) ([]analytics.VisitEvent, error) {
	return m.listByLinkCodeFn(ctx, code)
}
func (m *mockVisitRepo) ListByQRID(ctx context.Context, qrID string) ([]analytics.VisitEvent, error) {
	return m.listByQRIDFn(ctx, qrID)
}

type mockStatsRepo struct {
	getDailyFn func(ctx context.Context, code string, from, to time.Time) ([]DailyCount, error)
}

func (m *mockStatsRepo) GetDaily(ctx context.Context, code string, from, to time.Time) ([]DailyCount, error) {
	return m.getDailyFn(ctx, code, from, to)
}

type fixedCode string

func (c fixedCode) Generate(string) string { return string(c) }

type fakeQREncoder struct{ err error }

func (f fakeQREncoder) DataURI(content string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "data:image/png;base64," + content, nil
}

type fakeDevices struct{}

func (fakeDevices) Detect(string) Device {
	return Device{Type: "mobile", Browser: "Chrome", OS: "Android"}
}

type fakeGeo struct {
	loc Location
	err error
}

func (f fakeGeo) Locate(context.Context, string) (Location, error) { return f.loc, f.err }

// --- Helpers ---

var testNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

type testDeps struct {
	links  *mockLinkRepo
	qrs    *mockQRRepo
	visits *mockVisitRepo
	stats  *mockStatsRepo
	geo    fakeGeo
	qr     fakeQREncoder
}

func newTestService(d testDeps) *Service {
	if d.links == nil {
		d.links = &mockLinkRepo{}
	}
	if d.qrs == nil {
		d.qrs = &mockQRRepo{}
	}
	if d.visits == nil {
		d.visits = &mockVisitRepo{}
	}
	if d.stats == nil {
		d.stats = &mockStatsRepo{}
	}

	svc := NewService(Deps{
		Links:   d.links,
		QRCodes: d.qrs,
		Visits:  d.visits,
		Stats:   d.stats,
		Codes:   fixedCode("abc123"),
		QR:      d.qr,
		Devices: fakeDevices{},
		Geo:     d.geo,
	}, Options{BaseURL: "https://sho.rt/"})
	svc.now = func() time.Time { return testNow }
	svc.newID = func() string { return "qr-1" }
	return svc
}

func ownedBy(owner int64, link Link) func(context.Context, string) (*Link, error) {
	return func(_ context.Context, key string) (*Link, error) {
		if key != link.Code && (link.Alias == "" || key != link.Alias) {
			return nil, ErrNotFound
		}
		l := link
		l.Owner = owner
		return &l, nil
	}
}

// --- Tests for validateAndNormalizeURL ---

func TestValidateAndNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"valid https", "https://example.com/path", "https://example.com/path", false},
		{"valid http", "http://example.com", "http://example.com", false},
		{"strips fragment", "https://example.com/page#section", "https://example.com/page", false},
		{"empty string", "", "", true},
		{"bad scheme ftp", "ftp://example.com", "", true},
		{"no scheme", "example.com", "", true},
		{"missing host", "https://", "", true},
		{"whitespace trimmed", "  https://example.com  ", "https://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateAndNormalizeURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDateOnly(t *testing.T) {
	input := time.Date(2025, 6, 15, 14, 30, 45, 123, time.UTC)
	got := dateOnly(input)
	want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("dateOnly(%v) = %v, want %v", input, got, want)
	}
}

// --- CreateLink ---

func TestCreateLink_HappyPath(t *testing.T) {
	var stored *Link
	var storedQR *QRCode
	lr := &mockLinkRepo{
		insertFn: func(_ context.Context, link *Link, qr *QRCode) error {
			stored, storedQR = link, qr
			return nil
		},
	}

	svc := newTestService(testDeps{links: lr})

	res, err := svc.CreateLink(context.Background(), CreateLinkInput{
		Owner:   7,
		LongURL: "https://example.com/page#top",
		Title:   "  Launch  ",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Link.Code != "abc123" {
		t.Errorf("got code %q, want abc123", res.Link.Code)
	}
	if res.Link.TargetURL != "https://example.com/page" {
		t.Errorf("got target %q", res.Link.TargetURL)
	}
	if res.Link.Title != "Launch" {
		t.Errorf("got title %q, want Launch", res.Link.Title)
	}
	if res.Link.Owner != 7 {
		t.Errorf("got owner %d, want 7", res.Link.Owner)
	}
	if !res.Link.ExpiresAt.Equal(testNow.Add(defaultLinkLifetime)) {
		t.Errorf("got expiration %v", res.Link.ExpiresAt)
	}
	if res.QRCode != nil || storedQR != nil {
		t.Error("expected no qr code when not requested")
	}
	if stored != res.Link {
		t.Error("expected the returned link to be the stored link")
	}
}

func TestCreateLink_WithQR(t *testing.T) {
	var storedQR *QRCode
	lr := &mockLinkRepo{
		insertFn: func(_ context.Context, _ *Link, qr *QRCode) error {
			storedQR = qr
			return nil
		},
	}

	svc := newTestService(testDeps{links: lr})

	res, err := svc.CreateLink(context.Background(), CreateLinkInput{
		Owner:      7,
		LongURL:    "https://example.com",
		Alias:      "promo",
		GenerateQR: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if storedQR == nil || res.QRCode == nil {
		t.Fatal("expected qr code to be stored with the link")
	}
	if storedQR.LinkCode != "abc123" || storedQR.CreatedBy != 7 || storedQR.ID != "qr-1" {
		t.Errorf("unexpected qr: %+v", storedQR)
	}
	want := "data:image/png;base64,https://sho.rt/promo?r=qr"
	if storedQR.Image != want {
		t.Errorf("got image %q, want %q", storedQR.Image, want)
	}
}

func TestCreateLink_InvalidURL(t *testing.T) {
	svc := newTestService(testDeps{})

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{LongURL: "not-a-url"})
	if !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got: %v", err)
	}
}

func TestCreateLink_AliasTaken(t *testing.T) {
	inserted := false
	lr := &mockLinkRepo{
		keyExistsFn: func(_ context.Context, key string) (bool, error) {
			return key == "promo", nil
		},
		insertFn: func(context.Context, *Link, *QRCode) error {
			inserted = true
			return nil
		},
	}

	svc := newTestService(testDeps{links: lr})

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{LongURL: "https://example.com", Alias: "promo"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
	if inserted {
		t.Error("expected no insert on alias conflict")
	}
}

func TestCreateLink_CodeCollisionRejected(t *testing.T) {
	attempts := 0
	lr := &mockLinkRepo{
		keyExistsFn: func(_ context.Context, key string) (bool, error) {
			attempts++
			return key == "abc123", nil
		},
		insertFn: func(context.Context, *Link, *QRCode) error {
			t.Fatal("insert should not be called")
			return nil
		},
	}

	svc := newTestService(testDeps{links: lr})

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{LongURL: "https://example.com"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected a single existence check, got %d", attempts)
	}
}

func TestCreateLink_InsertRaceSurfacesConflict(t *testing.T) {
	lr := &mockLinkRepo{
		insertFn: func(context.Context, *Link, *QRCode) error { return ErrConflict },
	}

	svc := newTestService(testDeps{links: lr})

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{LongURL: "https://example.com", Alias: "promo"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
}

func TestCreateLink_QREncodeFailure(t *testing.T) {
	lr := &mockLinkRepo{
		insertFn: func(context.Context, *Link, *QRCode) error {
			t.Fatal("insert should not be called")
			return nil
		},
	}

	svc := newTestService(testDeps{links: lr, qr: fakeQREncoder{err: errors.New("boom")}})

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{LongURL: "https://example.com", GenerateQR: true})
	if err == nil || !strings.Contains(err.Error(), "encode qr") {
		t.Fatalf("expected wrapped encode error, got: %v", err)
	}
}

// --- UpdateLink ---

func TestUpdateLink_AliasChangeRegeneratesQR(t *testing.T) {
	var prevAlias string
	var newImage string
	lr := &mockLinkRepo{
		findByKeyFn: ownedBy(7, Link{Code: "abc123", Alias: "old"}),
		updateFn: func(_ context.Context, _ *Link, previous string) error {
			prevAlias = previous
			return nil
		},
	}
	qrs := &mockQRRepo{
		findByLinkCodeFn: func(context.Context, string) (*QRCode, error) {
			return &QRCode{ID: "qr-9", LinkCode: "abc123"}, nil
		},
		updateImageFn: func(_ context.Context, id, image string, at time.Time) error {
			if id != "qr-9" || !at.Equal(testNow) {
				t.Errorf("unexpected update target %q at %v", id, at)
			}
			newImage = image
			return nil
		},
	}

	svc := newTestService(testDeps{links: lr, qrs: qrs})

	alias := "new"
	link, err := svc.UpdateLink(context.Background(), 7, "old", UpdateLinkInput{Alias: &alias})
	if err != nil {
		t.Fatal(err)
	}
	if link.Alias != "new" || prevAlias != "old" {
		t.Errorf("got alias %q (previous %q)", link.Alias, prevAlias)
	}
	if newImage != "data:image/png;base64,https://sho.rt/new?r=qr" {
		t.Errorf("got image %q", newImage)
	}
}

func TestUpdateLink_TitleOnlyKeepsQR(t *testing.T) {
	lr := &mockLinkRepo{
		findByKeyFn: ownedBy(7, Link{Code: "abc123", Title: "a"}),
		updateFn:    func(context.Context, *Link, string) error { return nil },
	}
	qrs := &mockQRRepo{
		findByLinkCodeFn: func(context.Context, string) (*QRCode, error) {
			t.Fatal("qr lookup should not happen when the path is unchanged")
			return nil, nil
		},
	}

	svc := newTestService(testDeps{links: lr, qrs: qrs})

	title := "b"
	link, err := svc.UpdateLink(context.Background(), 7, "abc123", UpdateLinkInput{Title: &title})
	if err != nil {
		t.Fatal(err)
	}
	if link.Title != "b" {
		t.Errorf("got title %q, want b", link.Title)
	}
}

func TestUpdateLink_AliasTaken(t *testing.T) {
	lr := &mockLinkRepo{
		findByKeyFn: ownedBy(7, Link{Code: "abc123"}),
		keyExistsFn: func(context.Context, string) (bool, error) { return true, nil },
		updateFn: func(context.Context, *Link, string) error {
			t.Fatal("update should not be called")
			return nil
		},
	}

	svc := newTestService(testDeps{links: lr})

	alias := "taken"
	_, err := svc.UpdateLink(context.Background(), 7, "abc123", UpdateLinkInput{Alias: &alias})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
}

func TestUpdateLink_OtherOwner(t *testing.T) {
	lr := &mockLinkRepo{findByKeyFn: ownedBy(8, Link{Code: "abc123"})}

	svc := newTestService(testDeps{links: lr})

	_, err := svc.UpdateLink(context.Background(), 7, "abc123", UpdateLinkInput{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

// --- DeleteLink ---

func TestDeleteLink(t *testing.T) {
	var deletedCode string
	lr := &mockLinkRepo{
		findByKeyFn: ownedBy(7, Link{Code: "abc123", Alias: "promo"}),
		deleteFn: func(_ context.Context, code string) (bool, error) {
			deletedCode = code
			return true, nil
		},
	}

	svc := newTestService(testDeps{links: lr})

	if err := svc.DeleteLink(context.Background(), 7, "promo"); err != nil {
		t.Fatal(err)
	}
	if deletedCode != "abc123" {
		t.Errorf("deleted %q, want abc123", deletedCode)
	}
}

func TestDeleteLink_NotFound(t *testing.T) {
	lr := &mockLinkRepo{
		findByKeyFn: ownedBy(7, Link{Code: "abc123"}),
		deleteFn:    func(context.Context, string) (bool, error) { return false, nil },
	}

	svc := newTestService(testDeps{links: lr})

	if err := svc.DeleteLink(context.Background(), 7, "abc123"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestDeleteLink_EmptyKey(t *testing.T) {
	svc := newTestService(testDeps{})

	if err := svc.DeleteLink(context.Background(), 7, " "); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty key, got: %v", err)
	}
}

// --- Resolve / RecordVisit ---

func TestResolve_EmptyKey(t *testing.T) {
	svc := newTestService(testDeps{})

	_, err := svc.Resolve(context.Background(), "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestResolve_ByAlias(t *testing.T) {
	lr := &mockLinkRepo{findByKeyFn: ownedBy(1, Link{Code: "abc123", Alias: "promo", TargetURL: "https://example.com"})}

	svc := newTestService(testDeps{links: lr})

	link, err := svc.Resolve(context.Background(), "promo")
	if err != nil {
		t.Fatal(err)
	}
	if link.TargetURL != "https://example.com" {
		t.Errorf("got target %q", link.TargetURL)
	}
}

func TestRecordVisit_LinkVisit(t *testing.T) {
	var recorded *analytics.VisitEvent
	vr := &mockVisitRepo{
		recordFn: func(_ context.Context, v *analytics.VisitEvent) error {
			recorded = v
			return nil
		},
	}

	svc := newTestService(testDeps{visits: vr, geo: fakeGeo{loc: Location{Country: "Brazil", City: "Recife"}}})

	err := svc.RecordVisit(context.Background(), VisitInput{
		Link:     &Link{Code: "abc123"},
		Kind:     analytics.KindLink,
		ClientIP: "203.0.113.5",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := analytics.VisitEvent{
		Kind:       analytics.KindLink,
		LinkCode:   "abc123",
		Country:    "Brazil",
		City:       "Recife",
		DeviceType: "mobile",
		Browser:    "Chrome",
		OS:         "Android",
		CreatedAt:  testNow,
	}
	if *recorded != want {
		t.Errorf("got %+v, want %+v", *recorded, want)
	}
}

func TestRecordVisit_QRScan(t *testing.T) {
	var recorded *analytics.VisitEvent
	vr := &mockVisitRepo{
		recordFn: func(_ context.Context, v *analytics.VisitEvent) error {
			recorded = v
			return nil
		},
	}
	qrs := &mockQRRepo{
		findByLinkCodeFn: func(context.Context, string) (*QRCode, error) {
			return &QRCode{ID: "qr-9"}, nil
		},
	}

	svc := newTestService(testDeps{visits: vr, qrs: qrs})

	err := svc.RecordVisit(context.Background(), VisitInput{Link: &Link{Code: "abc123"}, Kind: analytics.KindQR})
	if err != nil {
		t.Fatal(err)
	}
	if recorded.Kind != analytics.KindQR || recorded.QRID != "qr-9" {
		t.Errorf("got kind %q qr %q", recorded.Kind, recorded.QRID)
	}
}

func TestRecordVisit_QRScanWithoutImageFallsBackToLink(t *testing.T) {
	var recorded *analytics.VisitEvent
	vr := &mockVisitRepo{
		recordFn: func(_ context.Context, v *analytics.VisitEvent) error {
			recorded = v
			return nil
		},
	}

	svc := newTestService(testDeps{visits: vr})

	err := svc.RecordVisit(context.Background(), VisitInput{Link: &Link{Code: "abc123"}, Kind: analytics.KindQR})
	if err != nil {
		t.Fatal(err)
	}
	if recorded.Kind != analytics.KindLink || recorded.QRID != "" {
		t.Errorf("got kind %q qr %q, want plain link visit", recorded.Kind, recorded.QRID)
	}
}

func TestRecordVisit_GeoFailureStoresNothing(t *testing.T) {
	vr := &mockVisitRepo{
		recordFn: func(context.Context, *analytics.VisitEvent) error {
			t.Fatal("record should not be called")
			return nil
		},
	}

	svc := newTestService(testDeps{visits: vr, geo: fakeGeo{err: errors.New("timeout")}})

	err := svc.RecordVisit(context.Background(), VisitInput{Link: &Link{Code: "abc123"}})
	if err == nil || !strings.Contains(err.Error(), "geo lookup") {
		t.Fatalf("expected geo error, got: %v", err)
	}
}

// --- Details ---

func TestLinkDetails(t *testing.T) {
	lr := &mockLinkRepo{findByKeyFn: ownedBy(7, Link{Code: "abc123"})}
	qrs := &mockQRRepo{
		findByLinkCodeFn: func(context.Context, string) (*QRCode, error) {
			return &QRCode{ID: "qr-9"}, nil
		},
	}
	vr := &mockVisitRepo{
		listByLinkCodeFn: func(_ context.Context, code string) ([]analytics.VisitEvent, error) {
			if code != "abc123" {
				t.Errorf("listed visits for %q", code)
			}
			return []analytics.VisitEvent{
				{CreatedAt: testNow, Country: "US", City: "NYC"},
				{CreatedAt: testNow, Country: "US", City: "NYC"},
			}, nil
		},
	}

	svc := newTestService(testDeps{links: lr, qrs: qrs, visits: vr})

	d, err := svc.LinkDetails(context.Background(), 7, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if d.QRCode == nil || d.QRCode.ID != "qr-9" {
		t.Errorf("got qr %+v", d.QRCode)
	}
	if len(d.Summary.EngagementOverTime) != 1 || d.Summary.EngagementOverTime[0].Clicks != 2 {
		t.Errorf("got engagement %+v", d.Summary.EngagementOverTime)
	}
}

func TestLinkDetails_WithoutQR(t *testing.T) {
	lr := &mockLinkRepo{findByKeyFn: ownedBy(7, Link{Code: "abc123"})}
	vr := &mockVisitRepo{
		listByLinkCodeFn: func(context.Context, string) ([]analytics.VisitEvent, error) { return nil, nil },
	}

	svc := newTestService(testDeps{links: lr, visits: vr})

	d, err := svc.LinkDetails(context.Background(), 7, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if d.QRCode != nil {
		t.Errorf("expected nil qr, got %+v", d.QRCode)
	}
	if d.Summary.Locations == nil {
		t.Error("expected non-nil empty summary slices")
	}
}

func TestQRDetails_OtherOwner(t *testing.T) {
	qrs := &mockQRRepo{
		findByIDFn: func(context.Context, string) (*QRCode, error) {
			return &QRCode{ID: "qr-9", CreatedBy: 8}, nil
		},
	}

	svc := newTestService(testDeps{qrs: qrs})

	_, err := svc.QRDetails(context.Background(), 7, "qr-9")
	if !errors.Is(err, ErrQRNotFound) {
		t.Fatalf("expected ErrQRNotFound, got: %v", err)
	}
}

func TestQRDetails(t *testing.T) {
	lr := &mockLinkRepo{findByKeyFn: ownedBy(7, Link{Code: "abc123"})}
	qrs := &mockQRRepo{
		findByIDFn: func(context.Context, string) (*QRCode, error) {
			return &QRCode{ID: "qr-9", LinkCode: "abc123", CreatedBy: 7}, nil
		},
	}
	vr := &mockVisitRepo{
		listByQRIDFn: func(_ context.Context, id string) ([]analytics.VisitEvent, error) {
			return []analytics.VisitEvent{{Kind: analytics.KindQR, QRID: id, CreatedAt: testNow}}, nil
		},
	}

	svc := newTestService(testDeps{links: lr, qrs: qrs, visits: vr})

	d, err := svc.QRDetails(context.Background(), 7, "qr-9")
	if err != nil {
		t.Fatal(err)
	}
	if d.Link.Code != "abc123" {
		t.Errorf("got link %+v", d.Link)
	}
	if len(d.Summary.EngagementOverTime) != 1 {
		t.Errorf("got engagement %+v", d.Summary.EngagementOverTime)
	}
}

func TestListQRCodes_JoinsLinks(t *testing.T) {
	lr := &mockLinkRepo{
		listByOwnerFn: func(context.Context, int64) ([]Link, error) {
			return []Link{{Code: "a", TargetURL: "https://a.example"}, {Code: "b"}}, nil
		},
	}
	qrs := &mockQRRepo{
		listByOwnerFn: func(context.Context, int64) ([]QRCode, error) {
			return []QRCode{{ID: "1", LinkCode: "a"}, {ID: "2", LinkCode: "gone"}}, nil
		},
	}

	svc := newTestService(testDeps{links: lr, qrs: qrs})

	got, err := svc.ListQRCodes(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Link.TargetURL != "https://a.example" {
		t.Errorf("got %+v", got)
	}
}

// --- GetStats ---

func TestGetStats_InvalidRange(t *testing.T) {
	lr := &mockLinkRepo{findByKeyFn: ownedBy(7, Link{Code: "abc123"})}

	svc := newTestService(testDeps{links: lr})

	from := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	_, err := svc.GetStats(context.Background(), 7, "abc123", from, to)
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got: %v", err)
	}
}

func TestGetStats_GapFilling(t *testing.T) {
	lr := &mockLinkRepo{findByKeyFn: ownedBy(7, Link{Code: "abc123", Alias: "promo"})}
	sr := &mockStatsRepo{
		getDailyFn: func(_ context.Context, code string, _, _ time.Time) ([]DailyCount, error) {
			if code != "abc123" {
				t.Errorf("stats queried for %q, want the link code", code)
			}
			return []DailyCount{
				{Date: "2025-01-01", Count: 5},
				{Date: "2025-01-03", Count: 3},
			}, nil
		},
	}

	svc := newTestService(testDeps{links: lr, stats: sr})

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	counts, err := svc.GetStats(context.Background(), 7, "promo", from, to)
	if err != nil {
		t.Fatal(err)
	}

	if len(counts) != 3 {
		t.Fatalf("expected 3 days, got %d", len(counts))
	}
	if counts[0].Date != "2025-01-01" || counts[0].Count != 5 {
		t.Errorf("day 0: got %+v", counts[0])
	}
	if counts[1].Date != "2025-01-02" || counts[1].Count != 0 {
		t.Errorf("day 1 (gap): got %+v", counts[1])
	}
	if counts[2].Date != "2025-01-03" || counts[2].Count != 3 {
		t.Errorf("day 2: got %+v", counts[2])
	}
}

func TestGetStats_RangeTooLong(t *testing.T) {
	lr := &mockLinkRepo{findByKeyFn: ownedBy(7, Link{Code: "abc123"})}
	sr := &mockStatsRepo{
		getDailyFn: func(context.Context, string, time.Time, time.Time) ([]DailyCount, error) {
			t.Fatal("stats should not be queried")
			return nil, nil
		},
	}

	svc := newTestService(testDeps{links: lr, stats: sr})

	tests := []struct {
		name     string
		from, to time.Time
	}{
		{"one day over", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"whole calendar", time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetStats(context.Background(), 7, "abc123", tt.from, tt.to)
			if !errors.Is(err, ErrRangeTooLong) {
				t.Fatalf("expected ErrRangeTooLong, got: %v", err)
			}
			if !errors.Is(err, ErrInvalidRange) {
				t.Error("expected ErrRangeTooLong to wrap ErrInvalidRange")
			}
		})
	}
}

func TestGetStats_MaxRange(t *testing.T) {
	lr := &mockLinkRepo{findByKeyFn: ownedBy(7, Link{Code: "abc123"})}
	sr := &mockStatsRepo{
		getDailyFn: func(context.Context, string, time.Time, time.Time) ([]DailyCount, error) {
			return nil, nil
		},
	}

	svc := newTestService(testDeps{links: lr, stats: sr})

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, MaxStatsDays-1)

	counts, err := svc.GetStats(context.Background(), 7, "abc123", from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != MaxStatsDays {
		t.Errorf("expected %d days, got %d", MaxStatsDays, len(counts))
	}
}

// --- Reserved keys ---

func TestCreateLink_ReservedAlias(t *testing.T) {
	for _, alias := range []string{"health", "metrics", "url", "user", "qr-code", "auth"} {
		t.Run(alias, func(t *testing.T) {
			lr := &mockLinkRepo{
				insertFn: func(context.Context, *Link, *QRCode) error {
					t.Fatal("insert should not be called")
					return nil
				},
			}
			svc := newTestService(testDeps{links: lr})

			_, err := svc.CreateLink(context.Background(), CreateLinkInput{LongURL: "https://example.com", Alias: alias})
			if !errors.Is(err, ErrReservedAlias) {
				t.Fatalf("expected ErrReservedAlias, got: %v", err)
			}
		})
	}
}

func TestCreateLink_ReservedGeneratedCode(t *testing.T) {
	lr := &mockLinkRepo{
		insertFn: func(context.Context, *Link, *QRCode) error {
			t.Fatal("insert should not be called")
			return nil
		},
	}
	svc := newTestService(testDeps{links: lr})
	svc.codes = fixedCode("user")

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{LongURL: "https://example.com"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
}

func TestUpdateLink_ReservedAlias(t *testing.T) {
	lr := &mockLinkRepo{
		findByKeyFn: ownedBy(7, Link{Code: "abc123"}),
		updateFn: func(context.Context, *Link, string) error {
			t.Fatal("update should not be called")
			return nil
		},
	}

	svc := newTestService(testDeps{links: lr})

	alias := "metrics"
	_, err := svc.UpdateLink(context.Background(), 7, "abc123", UpdateLinkInput{Alias: &alias})
	if !errors.Is(err, ErrReservedAlias) {
		t.Fatalf("expected ErrReservedAlias, got: %v", err)
	}
}

func TestIsReservedKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"health", true},
		{"qr-code", true},
		{"", false},
		{"Health", false},
		{"healthy", false},
		{"abc123", false},
	}
	for _, tt := range tests {
		if got := IsReservedKey(tt.key); got != tt.want {
			t.Errorf("IsReservedKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
