package wizard

import (
	"strings"
	"testing"
	"time"
)

var testLimits = Limits{
	MaxTitleLen:     255,
	MaxParticipants: 10000,
	MaxVideoBytes:   50 * 1024 * 1024,
	Cities:          []string{"Moscow", "Kazan"},
}

func TestTitle(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain title", "Jazz night", "Jazz night", false},
		{"trims whitespace", "  Jazz night  ", "Jazz night", false},
		{"empty rejected", "", "", true},
		{"whitespace only rejected", "   ", "", true},
		{"over limit rejected", strings.Repeat("x", 256), "", true},
		{"exactly at limit", strings.Repeat("x", 255), strings.Repeat("x", 255), false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := Title(tc.raw, testLimits)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Title(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestOptionalText(t *testing.T) {
	if got := OptionalText("-"); got != "" {
		t.Fatalf("skip token should map to empty, got %q", got)
	}
	if got := OptionalText(" - "); got != "" {
		t.Fatalf("padded skip token should map to empty, got %q", got)
	}
	if got := OptionalText("Main hall"); got != "Main hall" {
		t.Fatalf("text should pass through, got %q", got)
	}
}

func TestCity(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"first menu index", "1", "Moscow", false},
		{"second menu index", "2", "Kazan", false},
		{"index out of range", "3", "", true},
		{"zero index", "0", "", true},
		{"literal name", "Kazan", "Kazan", false},
		{"case insensitive name", "moscow", "Moscow", false},
		{"unknown city", "Berlin", "", true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := City(tc.raw, testLimits)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("City(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestDateTime(t *testing.T) {
	now := time.Date(2024, 12, 25, 12, 0, 0, 0, time.Local)

	testCases := []struct {
		name        string
		raw         string
		wantErr     bool
		errContains string
	}{
		{"valid same day", "25.12.2024 18:30", false, ""},
		{"bad format", "2024-12-25 18:30", true, "Invalid date format"},
		{"garbage", "tomorrow", true, "Invalid date format"},
		{"too soon", "25.12.2024 12:30", true, "at least 1 hour"},
		{"in the past", "24.12.2024 18:30", true, "at least 1 hour"},
		{"exactly a year ahead ok", "20.12.2025 12:00", false, ""},
		{"too far ahead", "26.12.2025 12:01", true, "365 days"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := DateTime(tc.raw, now)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tc.raw, got)
				}
				if tc.errContains != "" && !strings.Contains(err.Error(), tc.errContains) {
					t.Fatalf("error %q does not name the violated bound %q", err.Error(), tc.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestMaxParticipants(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"skip means unlimited", "-", 0, false},
		{"positive number", "50", 50, false},
		{"zero rejected", "0", 0, true},
		{"negative rejected", "-5", 0, true},
		{"not a number", "many", 0, true},
		{"at the cap", "10000", 10000, false},
		{"over the cap", "10001", 0, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := MaxParticipants(tc.raw, testLimits)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("MaxParticipants(%q) = %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}

func TestRegistrationRequired(t *testing.T) {
	if v, err := RegistrationRequired("1"); err != nil || !v {
		t.Fatalf("expected true for option 1, got %v %v", v, err)
	}
	if v, err := RegistrationRequired("2"); err != nil || v {
		t.Fatalf("expected false for option 2, got %v %v", v, err)
	}
	if _, err := RegistrationRequired("yes"); err == nil {
		t.Fatalf("expected error for free-form input")
	}
}

func TestValidateMedia(t *testing.T) {
	testCases := []struct {
		name    string
		in      MediaInput
		want    Media
		wantErr bool
	}{
		{"skip", MediaInput{Text: "-"}, Media{}, false},
		{"photo", MediaInput{PhotoFileID: "photo-1"}, Media{PhotoFileID: "photo-1"}, false},
		{"video within limit", MediaInput{VideoFileID: "vid-1", VideoBytes: 1024}, Media{VideoFileID: "vid-1"}, false},
		{"video too large", MediaInput{VideoFileID: "vid-1", VideoBytes: 51 * 1024 * 1024}, Media{}, true},
		{"free text rejected", MediaInput{Text: "here you go"}, Media{}, true},
		{"empty rejected", MediaInput{}, Media{}, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateMedia(tc.in, testLimits)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %+v", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ValidateMedia(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}
