package handler

// handler.go
import (
	"easycsp/internal/core"
	"easycsp/internal/storage"
	"easycsp/internal/view"
)

// Handlers — зависимости HTTP-обработчиков.
type Handlers struct {
	tpl         *view.Templates
	sessions    *core.Sessions
	store       storage.Store
	adminPrefix string
}

// New собирает обработчики; вызывается один раз при старте.
func New(tpl *view.Templates, sessions *core.Sessions, store storage.Store, adminPrefix string) *Handlers {
	return &Handlers{
		tpl:         tpl,
		sessions:    sessions,
		store:       store,
		adminPrefix: adminPrefix,
	}
}
