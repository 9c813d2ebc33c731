package view

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"easycsp/internal/core"
)

func TestNewParsesAllPages(t *testing.T) {
	tpl, err := New("/admin/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for name := range pages {
		if tpl.templates[name] == nil {
			t.Errorf("page %q not compiled", name)
		}
	}
}

func TestRender(t *testing.T) {
	tpl, err := New("/panel")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(core.WithUser(req.Context(), "admin"))
	rec := httptest.NewRecorder()
	if err := tpl.Render(rec, req, http.StatusTeapot, "home", "Главная", nil); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<title>Главная · easycsp</title>",
		`href="/panel/settings"`,
		"Выйти (admin)",
		`<script type="module">`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body does not contain %q", want)
		}
	}
	if strings.Contains(body, "nonce=") {
		t.Error("templates must not emit nonces themselves")
	}
}

func TestRenderUnknownPage(t *testing.T) {
	tpl, err := New("/admin")
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	if err := tpl.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "missing", "", nil); err == nil {
		t.Error("expected an error for an unknown page")
	}
	if rec.Body.Len() != 0 {
		t.Error("nothing must be written on error")
	}
}
