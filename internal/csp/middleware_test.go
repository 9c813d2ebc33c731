package csp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const htmlPage = `<html><body><script>run()</script></body></html>`

func serve(t *testing.T, h http.Handler, cfg MiddlewareConfig, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	Middleware(NewProcessor(), cfg)(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func htmlHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", "999")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(body))
	})
}

func TestMiddlewareProcessesHTML(t *testing.T) {
	cfg := MiddlewareConfig{
		Source:      StaticSource{OptEnabled: "1", OptMode: "enforce"},
		AdminPrefix: "/admin",
	}
	rec := serve(t, htmlHandler(htmlPage), cfg, "/")

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	header := rec.Header().Get(HeaderEnforce)
	if header == "" {
		t.Fatal("CSP header missing")
	}
	m := attrNonce.FindStringSubmatch(rec.Body.String())
	if m == nil {
		t.Fatalf("no nonce in body: %s", rec.Body.String())
	}
	if !strings.Contains(header, "'nonce-"+m[1]+"'") {
		t.Errorf("header %q does not carry body nonce %q", header, m[1])
	}
	if rec.Header().Get("Content-Length") != "" {
		t.Error("stale Content-Length must be removed")
	}
}

func TestMiddlewareLeavesOtherResponses(t *testing.T) {
	cfg := MiddlewareConfig{Source: StaticSource{OptEnabled: "1"}, AdminPrefix: "/admin"}

	tests := []struct {
		name string
		h    http.Handler
		path string
		auth func(*http.Request) bool
	}{
		{
			name: "json",
			h: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"html":"<script>x()</script>"}`))
			}),
			path: "/",
		},
		{
			name: "compressed",
			h: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Header().Set("Content-Encoding", "gzip")
				_, _ = w.Write([]byte(htmlPage))
			}),
			path: "/",
		},
		{name: "admin", h: htmlHandler(htmlPage), path: "/admin/settings"},
		{name: "logged in", h: htmlHandler(htmlPage), path: "/", auth: func(*http.Request) bool { return true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			c.Authenticated = tt.auth
			rec := serve(t, tt.h, c, tt.path)
			if strings.Contains(rec.Body.String(), "nonce=") {
				t.Errorf("body rewritten: %s", rec.Body.String())
			}
			if rec.Header().Get(HeaderReportOnly) != "" || rec.Header().Get(HeaderEnforce) != "" {
				t.Error("CSP header must not be set")
			}
		})
	}
}

func TestMiddlewareSniffsContentType(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<!DOCTYPE html>` + htmlPage))
	})
	rec := serve(t, h, MiddlewareConfig{Source: StaticSource{OptEnabled: "1"}}, "/")
	if rec.Header().Get(HeaderReportOnly) == "" {
		t.Error("sniffed HTML must be processed")
	}
}

func TestMiddlewareFlushStreams(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>"))
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte("<script>late()</script></body></html>"))
	})
	rec := serve(t, h, MiddlewareConfig{Source: StaticSource{OptEnabled: "1"}}, "/")

	if !rec.Flushed {
		t.Error("flush not propagated")
	}
	if got := rec.Body.String(); got != "<html><body><script>late()</script></body></html>" {
		t.Errorf("streamed body changed: %s", got)
	}
	if rec.Header().Get(HeaderReportOnly) != "" {
		t.Error("header must not be set after streaming started")
	}
}

func TestMiddlewareReadsSettingsPerRequest(t *testing.T) {
	src := &switchSource{}
	cfg := MiddlewareConfig{Source: src}

	if rec := serve(t, htmlHandler(htmlPage), cfg, "/"); rec.Header().Get(HeaderReportOnly) != "" {
		t.Error("disabled: header set")
	}
	src.on = true
	if rec := serve(t, htmlHandler(htmlPage), cfg, "/"); rec.Header().Get(HeaderReportOnly) == "" {
		t.Error("enabled: header missing")
	}
}

type switchSource struct{ on bool }

func (s *switchSource) Options(context.Context) (map[string]string, error) {
	return map[string]string{OptEnabled: formatBool(s.on)}, nil
}

func TestIsAdminPath(t *testing.T) {
	tests := []struct {
		path, prefix string
		want         bool
	}{
		{"/admin", "/admin", true},
		{"/admin/settings", "/admin/", true},
		{"/administrator", "/admin", false},
		{"/", "/admin", false},
		{"/admin", "", false},
	}
	for _, tt := range tests {
		if got := isAdminPath(tt.path, tt.prefix); got != tt.want {
			t.Errorf("isAdminPath(%q, %q) = %v, want %v", tt.path, tt.prefix, got, tt.want)
		}
	}
}
