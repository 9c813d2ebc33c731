package handler

// login.go
import (
	"net/http"
	"strings"

	"easycsp/internal/core"
)

type loginView struct {
	Error string
	Next  string
}

// LoginForm — GET /login
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", "Вход", loginView{Next: safeNext(r.URL.Query().Get("next"))})
}

// Login — POST /login: bcrypt-проверка и сессионная кука
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		core.Fail(w, r, core.BadRequest("некорректная форма", err))
		return
	}

	user := strings.TrimSpace(r.PostForm.Get("username"))
	next := safeNext(r.PostForm.Get("next"))

	if !h.sessions.Authenticate(user, r.PostForm.Get("password")) {
		core.LogWarn("Неудачная попытка входа", map[string]interface{}{"user": user, "ip": r.RemoteAddr})
		h.render(w, r, http.StatusUnauthorized, "login", "Вход", loginView{Error: "Неверный логин или пароль", Next: next})
		return
	}

	if err := h.sessions.Issue(w, user); err != nil {
		core.Fail(w, r, err)
		return
	}
	core.LogInfo("Вход выполнен", map[string]interface{}{"user": user})

	if next == "" {
		next = h.adminPrefix + "/settings"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout — POST /logout
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// safeNext пропускает только локальные пути, чтобы не было open redirect
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}
