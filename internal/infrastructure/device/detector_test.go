package device

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		ua         string
		wantType   string
		wantBrowse string
	}{
		{
			name:       "desktop chrome",
			ua:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			wantType:   TypeDesktop,
			wantBrowse: "Chrome",
		},
		{
			name:       "android phone",
			ua:         "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			wantType:   TypeMobile,
			wantBrowse: "Chrome",
		},
		{
			name:       "ipad",
			ua:         "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1",
			wantType:   TypeTablet,
			wantBrowse: "Safari",
		},
		{
			name:       "firefox desktop",
			ua:         "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			wantType:   TypeDesktop,
			wantBrowse: "Firefox",
		},
		{
			name:     "googlebot",
			ua:       "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			wantType: TypeBot,
		},
	}

	d := NewDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.ua)
			if got.Type != tt.wantType {
				t.Errorf("type: got %q, want %q", got.Type, tt.wantType)
			}
			if tt.wantBrowse != "" && got.Browser != tt.wantBrowse {
				t.Errorf("browser: got %q, want %q", got.Browser, tt.wantBrowse)
			}
		})
	}
}

func TestDetect_EmptyUserAgent(t *testing.T) {
	got := NewDetector().Detect("   ")
	if got.Type != "" || got.Browser != "" || got.OS != "" {
		t.Errorf("expected zero device, got %+v", got)
	}
}

func TestIsTablet(t *testing.T) {
	tests := []struct {
		ua   string
		want bool
	}{
		{"Mozilla/5.0 (Linux; Android 12; SM-X700) AppleWebKit/537.36 Chrome/120 Safari/537.36", true},
		{"Mozilla/5.0 (Linux; Android 12; SM-G991B) AppleWebKit/537.36 Chrome/120 Mobile Safari/537.36", false},
		{"Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X)", true},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64)", false},
	}

	for _, tt := range tests {
		if got := isTablet(tt.ua); got != tt.want {
			t.Errorf("isTablet(%q) = %v, want %v", tt.ua, got, tt.want)
		}
	}
}
