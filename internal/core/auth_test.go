package core

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testSessions(t *testing.T) *Sessions {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return NewSessions(Config{
		SessionKey:        "test-session-key",
		AdminUser:         "admin",
		AdminPasswordHash: string(hash),
	})
}

func TestAuthenticate(t *testing.T) {
	s := testSessions(t)

	tests := []struct {
		user, pass string
		want       bool
	}{
		{"admin", "s3cret", true},
		{"admin", "wrong", false},
		{"root", "s3cret", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := s.Authenticate(tt.user, tt.pass); got != tt.want {
			t.Errorf("Authenticate(%q, %q) = %v, want %v", tt.user, tt.pass, got, tt.want)
		}
	}

	noHash := NewSessions(Config{SessionKey: "k", AdminUser: "admin"})
	if noHash.Authenticate("admin", "") {
		t.Error("login must be disabled without a password hash")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := testSessions(t)

	rec := httptest.NewRecorder()
	if err := s.Issue(rec, "admin"); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	if got := s.User(req); got != "admin" {
		t.Errorf("User() = %q, want admin", got)
	}

	// Кука, подписанная другим ключом, не принимается.
	other := NewSessions(Config{SessionKey: "another-key"})
	if got := other.User(req); got != "" {
		t.Errorf("foreign key accepted: %q", got)
	}

	forged := httptest.NewRequest(http.MethodGet, "/", nil)
	forged.AddCookie(&http.Cookie{Name: SessionCookie, Value: "admin"})
	if got := s.User(forged); got != "" {
		t.Errorf("forged cookie accepted: %q", got)
	}
}

func TestSessionMiddlewareAndRequireUser(t *testing.T) {
	s := testSessions(t)

	var seen string
	h := s.Middleware(RequireUser("/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/settings", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("guest: status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?next=%2Fadmin%2Fsettings" {
		t.Errorf("Location = %q", loc)
	}

	login := httptest.NewRecorder()
	_ = s.Issue(login, "admin")
	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req.AddCookie(login.Result().Cookies()[0])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || seen != "admin" {
		t.Errorf("logged in: status %d, user %q", rec.Code, seen)
	}
}

func TestClear(t *testing.T) {
	rec := httptest.NewRecorder()
	testSessions(t).Clear(rec)
	c := rec.Result().Cookies()
	if len(c) != 1 || c[0].MaxAge >= 0 {
		t.Errorf("Clear must expire the cookie, got %+v", c)
	}
}
