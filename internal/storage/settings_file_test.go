package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"easycsp/internal/csp"
)

func TestFileSettingsMissingFile(t *testing.T) {
	s := NewFileSettings(filepath.Join(t.TempDir(), "nope.yml"))

	opts, err := s.Options(context.Background())
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if len(opts) != 0 {
		t.Errorf("missing file must give empty options, got %v", opts)
	}
	if got := csp.SettingsFromOptions(opts); !reflect.DeepEqual(got, csp.DefaultSettings()) {
		t.Errorf("missing file must give defaults, got %+v", got)
	}
}

func TestFileSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileSettings(filepath.Join(t.TempDir(), "csp.yml"))

	want := csp.DefaultSettings()
	want.Enabled = true
	want.Mode = csp.ModeEnforce
	want.ProcessStyles = true
	want.CustomDirectives = "img-src * data:\nconnect-src 'self'"
	want.ReportURI = "https://example.com/csp"
	want.ExcludedPaths = "/checkout/*\n/cart"
	want.WhitelistedDomains = "https://cdn.example.com"

	if err := s.Save(ctx, want.Options()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	opts, err := s.Options(ctx)
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if !reflect.DeepEqual(opts, want.Options()) {
		t.Errorf("options\n got: %v\nwant: %v", opts, want.Options())
	}
	if got := csp.SettingsFromOptions(opts); !reflect.DeepEqual(got, want) {
		t.Errorf("settings\n got: %+v\nwant: %+v", got, want)
	}
}

func TestFileSettingsPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csp.yml")
	if err := os.WriteFile(path, []byte("enabled: true\nmode: enforce\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	opts, err := NewFileSettings(path).Options(context.Background())
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	want := map[string]string{csp.OptEnabled: "1", csp.OptMode: "enforce"}
	if !reflect.DeepEqual(opts, want) {
		t.Errorf("got %v, want %v", opts, want)
	}

	s := csp.SettingsFromOptions(opts)
	if !s.UseStrictDynamic {
		t.Error("absent use_strict_dynamic must keep its default")
	}
}

func TestFileSettingsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csp.yml")
	if err := os.WriteFile(path, []byte("enabled: [\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileSettings(path).Options(context.Background()); err == nil {
		t.Error("expected a parse error")
	}
}
