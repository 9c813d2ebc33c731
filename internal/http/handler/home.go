package handler

//home.go
import (
	"net/http"

	"easycsp/internal/core"
)

// Home — главная страница с inline-скриптами (module и JSON-LD)
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "home", "Главная", nil)
}

// render — рендер страницы с единой обработкой ошибки шаблона
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	if err := h.tpl.Render(w, r, status, name, title, data); err != nil {
		core.Fail(w, r, core.Internal("Ошибка отображения страницы", err))
	}
}
