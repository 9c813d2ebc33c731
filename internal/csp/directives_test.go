package csp

import (
	"strings"
	"testing"
)

func TestBuildHeaderValue(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Settings)
		nonce string
		want  string
	}{
		{
			name:  "defaults",
			mod:   func(*Settings) {},
			nonce: "ABC123",
			want:  "script-src 'strict-dynamic' 'nonce-ABC123' 'unsafe-inline' http: https:; object-src 'none'; base-uri 'none'",
		},
		{
			name: "strict-dynamic, unsafe-hashes and a domain",
			mod: func(s *Settings) {
				s.UseUnsafeHashes = true
				s.WhitelistedDomains = "https://cdn.example.com"
			},
			nonce: "ABC123",
			want:  "script-src 'strict-dynamic' 'nonce-ABC123' 'unsafe-inline' 'unsafe-hashes' https://cdn.example.com http: https:; object-src 'none'; base-uri 'none'",
		},
		{
			name: "no strict-dynamic",
			mod: func(s *Settings) {
				s.UseStrictDynamic = false
				s.WhitelistedDomains = "https://a.example\n\n  https://b.example  \n"
			},
			nonce: "N",
			want:  "script-src 'nonce-N' 'unsafe-inline' https://a.example https://b.example; object-src 'none'; base-uri 'none'",
		},
		{
			name: "styles",
			mod: func(s *Settings) {
				s.UseStrictDynamic = false
				s.ProcessStyles = true
				s.WhitelistedDomains = "https://cdn.example.com"
			},
			nonce: "N",
			want:  "script-src 'nonce-N' 'unsafe-inline' https://cdn.example.com; style-src 'nonce-N' 'unsafe-inline' https://cdn.example.com; object-src 'none'; base-uri 'none'",
		},
		{
			name: "custom directives and report-uri last",
			mod: func(s *Settings) {
				s.UseStrictDynamic = false
				s.CustomDirectives = "img-src * data:\r\n\n  connect-src 'self'  \n"
				s.ReportURI = "https://example.com/csp?x=1"
			},
			nonce: "N",
			want:  "script-src 'nonce-N' 'unsafe-inline'; object-src 'none'; base-uri 'none'; img-src * data:; connect-src 'self'; report-uri https://example.com/csp?x=1",
		},
		{
			name: "bad report-uri dropped",
			mod: func(s *Settings) {
				s.UseStrictDynamic = false
				s.ReportURI = "javascript:alert(1)"
			},
			nonce: "N",
			want:  "script-src 'nonce-N' 'unsafe-inline'; object-src 'none'; base-uri 'none'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mod(&s)
			got := BuildHeaderValue(tt.nonce, s)
			if got != tt.want {
				t.Errorf("BuildHeaderValue()\n got: %s\nwant: %s", got, tt.want)
			}
			if again := BuildHeaderValue(tt.nonce, s); again != got {
				t.Errorf("second call differs: %s", again)
			}
			if !strings.Contains(got, "'unsafe-inline'") {
				t.Error("'unsafe-inline' must always be present")
			}
		})
	}
}

func TestHeaderName(t *testing.T) {
	tests := map[Mode]string{
		ModeEnforce:    HeaderEnforce,
		"ENFORCE ":     HeaderEnforce,
		ModeReportOnly: HeaderReportOnly,
		"":             HeaderReportOnly,
		"block":        HeaderReportOnly,
	}
	for m, want := range tests {
		if got := HeaderName(m); got != want {
			t.Errorf("HeaderName(%q) = %q, want %q", m, got, want)
		}
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/csp", "https://example.com/csp"},
		{"  http://example.com/r  ", "http://example.com/r"},
		{"/csp-report", "/csp-report"},
		{"", ""},
		{"javascript:alert(1)", ""},
		{"data:text/html,x", ""},
		{"//evil.example/x", ""},
		{"relative/path", ""},
		{"https:///nohost", ""},
		{"https://example.com/a\"b'c<d>e", "https://example.com/abcde"},
	}
	for _, tt := range tests {
		if got := SanitizeURL(tt.in); got != tt.want {
			t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	// Попытка дописать директиву не должна пройти в заголовок.
	got := SanitizeURL("https://example.com/r; script-src *")
	if strings.ContainsAny(got, "; ") {
		t.Errorf("SanitizeURL kept a separator: %q", got)
	}
}
