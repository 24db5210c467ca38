package keyboard

import (
	"strings"
	"testing"
)

func TestEncodeCallback(t *testing.T) {
	testCases := []struct {
		name    string
		action  string
		data    string
		want    string
		wantErr bool
	}{
		{"action only", ActionEventsAll, "", ActionEventsAll, false},
		{"action with payload", ActionRegister, "42", "register:42", false},
		{"payload with separator", ActionPickCity, "Nizhny:Novgorod", "pick_city:Nizhny:Novgorod", false},
		{"too long", ActionEvent, strings.Repeat("x", 64), "", true},
		{"bare action too long", strings.Repeat("x", 65), "", "", true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := EncodeCallback(tc.action, tc.data)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("EncodeCallback = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDecodeCallback(t *testing.T) {
	testCases := []struct {
		name       string
		input      string
		wantAction string
		wantData   string
		wantErr    bool
	}{
		{"action only", "events_all", "events_all", "", false},
		{"action with payload", "register:42", "register", "42", false},
		{"payload keeps separators", "pick_city:Nizhny:Novgorod", "pick_city", "Nizhny:Novgorod", false},
		{"empty input", "", "", "", true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			action, data, err := DecodeCallback(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if action != tc.wantAction || data != tc.wantData {
				t.Fatalf("DecodeCallback(%q) = (%q, %q), want (%q, %q)", tc.input, action, data, tc.wantAction, tc.wantData)
			}
		})
	}
}

func TestDecodeCallbackScope(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		wantScope string
		wantRest  string
	}{
		{"scoped page", "all:2", "all", "2"},
		{"city scope", "city:7", "city", "7"},
		{"bare page", "3", "", "3"},
		{"empty", "", "", ""},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			scope, rest := DecodeCallbackScope(tc.input)
			if scope != tc.wantScope || rest != tc.wantRest {
				t.Fatalf("DecodeCallbackScope(%q) = (%q, %q), want (%q, %q)",
					tc.input, scope, rest, tc.wantScope, tc.wantRest)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	encoded, err := EncodeCallback(ActionConfirmDelete, "17")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	action, data, err := DecodeCallback(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if action != ActionConfirmDelete || data != "17" {
		t.Fatalf("round trip lost data: (%q, %q)", action, data)
	}
}
