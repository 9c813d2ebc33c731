package core

// security.go
import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders — заголовки безопасности, кроме CSP.
// CSP ставит csp.Middleware: политика зависит от nonce конкретного ответа.
func SecureHeaders(cfg Config) func(http.Handler) http.Handler {
	opts := secure.Options{
		FrameDeny:               true,
		ContentTypeNosniff:      true,
		ReferrerPolicy:          "strict-origin-when-cross-origin",
		PermissionsPolicy:       "camera=(), microphone=(), geolocation=(), payment=()",
		CrossOriginOpenerPolicy: "same-origin",
		SSLProxyHeaders:         map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:           !cfg.IsProd(),
	}
	// HSTS только для продакшена за HTTPS
	if cfg.Secure {
		opts.STSSeconds = 31536000
		opts.STSIncludeSubdomains = true
		opts.STSPreload = true
	}
	return secure.New(opts).Handler
}
