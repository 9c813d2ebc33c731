// common.go
package middleware

import (
	"crypto/sha256"
	"net/http"
	"time"

	"easycsp/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
)

// UseCommon подключает общие middleware. Порядок важен:
// Compress стоит снаружи CSP-middleware, чтобы тот видел несжатый HTML.
func UseCommon(r chi.Router, cfg core.Config) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(core.TrustedScheme(cfg.TrustedProxies))
	r.Use(core.SecureHeaders(cfg))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.Compress(5, "text/html", "text/css", "application/json"))
}

// CSRF — gorilla/csrf для форм. Запросы без TLS помечаются как plaintext,
// иначе csrf требует Referer с https-источником.
func CSRF(cfg core.Config) func(http.Handler) http.Handler {
	key := sha256.Sum256([]byte(cfg.CSRFKey)) // 32-байтовый ключ из секрета любой длины
	protect := csrf.Protect(
		key[:],
		csrf.Secure(cfg.Secure),
		csrf.Path("/"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.MaxAge(int((12 * time.Hour).Seconds())),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			msg := "CSRF-токен недействителен"
			if reason := csrf.FailureReason(r); reason != nil {
				msg += ": " + reason.Error()
			}
			core.Fail(w, r, core.Forbidden(msg))
		})),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Scheme != "https" {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}
