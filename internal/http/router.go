package httpx

import (
	"net/http"

	"easycsp/internal/core"
	"easycsp/internal/csp"
	"easycsp/internal/http/handler"
	"easycsp/internal/http/middleware"
	"easycsp/internal/storage"
	"easycsp/internal/view"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps — всё, что нужно роутеру; собирается в main.
type Deps struct {
	Config    core.Config
	Templates *view.Templates
	Sessions  *core.Sessions
	Store     storage.Store
	Processor *csp.Processor
}

// NewRouter создаёт chi-маршрутизатор: служебные маршруты без CSP,
// HTML-страницы — через сессию, CSRF и CSP-пайплайн.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	middleware.UseCommon(r, d.Config)

	h := handler.New(d.Templates, d.Sessions, d.Store, d.Config.AdminPrefix)

	// служебные
	r.Get("/healthz", handler.Health)
	r.Get("/readyz", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// страницы
	r.Group(func(r chi.Router) {
		r.Use(d.Sessions.Middleware)
		r.Use(middleware.CSRF(d.Config))
		r.Use(csp.Middleware(d.Processor, csp.MiddlewareConfig{
			Source:      d.Store,
			AdminPrefix: d.Config.AdminPrefix,
		}))

		r.Get("/", h.Home)
		r.Get("/about", h.About)
		r.Get("/login", h.LoginForm)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		// админка: CSP-пайплайн её всегда пропускает
		r.Route(d.Config.AdminPrefix, func(r chi.Router) {
			r.Use(core.RequireUser("/login"))
			r.Get("/settings", h.SettingsPage)
			r.Post("/settings", h.SettingsSave)
		})

		r.NotFound(h.NotFound)
	})

	return r
}
