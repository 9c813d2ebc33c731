package handler

// about.go
import "net/http"

// About — страница "О проекте"
func (h *Handlers) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "about", "О проекте", nil)
}

// NotFound — 404 с шаблоном: тоже HTML, тоже получает nonce
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "notfound", "Страница не найдена", nil)
}
