package csp

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type failingSource struct{}

func (failingSource) Options(context.Context) (map[string]string, error) {
	return nil, errors.New("db is down")
}

func TestSettingsFromOptions(t *testing.T) {
	s := SettingsFromOptions(map[string]string{
		OptEnabled:            "yes",
		OptMode:               "enforce",
		OptEnableForLoggedIn:  "1",
		OptProcessStyles:      "on",
		OptUseStrictDynamic:   "0",
		OptUseUnsafeHashes:    "TRUE",
		OptCustomDirectives:   "img-src *",
		OptReportURI:          "  /csp  ",
		OptExcludedPaths:      "/a\n/b*",
		OptWhitelistedDomains: "https://cdn.example.com",
	})

	want := Settings{
		Enabled:            true,
		Mode:               ModeEnforce,
		EnableForLoggedIn:  true,
		ProcessStyles:      true,
		UseStrictDynamic:   false,
		UseUnsafeHashes:    true,
		CustomDirectives:   "img-src *",
		ReportURI:          "/csp",
		ExcludedPaths:      "/a\n/b*",
		WhitelistedDomains: "https://cdn.example.com",
	}
	if !reflect.DeepEqual(s, want) {
		t.Errorf("SettingsFromOptions()\n got: %+v\nwant: %+v", s, want)
	}
}

func TestSettingsDefaults(t *testing.T) {
	for name, opts := range map[string]map[string]string{
		"nil":   nil,
		"empty": {},
	} {
		if got := SettingsFromOptions(opts); !reflect.DeepEqual(got, DefaultSettings()) {
			t.Errorf("%s: got %+v, want defaults", name, got)
		}
	}

	d := DefaultSettings()
	if d.Enabled || d.Mode != ModeReportOnly || !d.UseStrictDynamic || d.ProcessStyles {
		t.Errorf("unexpected defaults: %+v", d)
	}

	if got := SettingsFromOptions(map[string]string{OptMode: "strict"}).Mode; got != ModeReportOnly {
		t.Errorf("unknown mode = %q, want report-only", got)
	}
}

func TestSettingsOptionsRoundTrip(t *testing.T) {
	s := DefaultSettings()
	s.Enabled = true
	s.Mode = ModeEnforce
	s.CustomDirectives = "img-src *"
	s.ExcludedPaths = "/checkout/*"

	opts := s.Options()
	if len(opts) != len(OptionKeys) {
		t.Fatalf("Options() has %d keys, want %d", len(opts), len(OptionKeys))
	}
	if got := SettingsFromOptions(opts); !reflect.DeepEqual(got, s) {
		t.Errorf("round trip\n got: %+v\nwant: %+v", got, s)
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines("  a \r\n\n\tb\n   \n")
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitLines() = %q, want %q", got, want)
	}
	if splitLines("") != nil {
		t.Error("empty text must give nil")
	}
}

func TestLoadSettings(t *testing.T) {
	ctx := context.Background()

	if got := LoadSettings(ctx, nil); !reflect.DeepEqual(got, DefaultSettings()) {
		t.Errorf("nil source: got %+v", got)
	}
	if got := LoadSettings(ctx, failingSource{}); !reflect.DeepEqual(got, DefaultSettings()) {
		t.Errorf("failing source: got %+v", got)
	}
	got := LoadSettings(ctx, StaticSource{OptEnabled: "1"})
	if !got.Enabled {
		t.Error("static source: enabled not applied")
	}
}

func TestStaticSourceReturnsCopy(t *testing.T) {
	src := StaticSource{OptEnabled: "1"}
	opts, _ := src.Options(context.Background())
	opts[OptEnabled] = "0"
	if src[OptEnabled] != "1" {
		t.Error("caller mutated the source")
	}
}
