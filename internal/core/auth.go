package core

// auth.go - сессия администратора в подписанной куке
import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"
)

// SessionCookie — имя сессионной куки.
const SessionCookie = "easycsp_session"

const sessionMaxAge = 7 * 24 * time.Hour

type sessionData struct {
	User     string
	IssuedAt int64
}

// Sessions выдаёт и проверяет подписанную и зашифрованную куку.
// Наличие валидной куки = пользователь вошёл (для CSP это «logged-in»).
type Sessions struct {
	codec        *securecookie.SecureCookie
	secure       bool
	user         string
	passwordHash []byte
}

// NewSessions строит менеджер сессий из Config. Ключи выводятся из SESSION_KEY.
func NewSessions(cfg Config) *Sessions {
	hashKey := derive32("hash:" + cfg.SessionKey)
	blockKey := derive32("block:" + cfg.SessionKey)
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(sessionMaxAge.Seconds()))
	return &Sessions{
		codec:        codec,
		secure:       cfg.Secure,
		user:         cfg.AdminUser,
		passwordHash: []byte(cfg.AdminPasswordHash),
	}
}

// Authenticate сверяет логин и пароль администратора. Без хеша вход отключён.
func (s *Sessions) Authenticate(user, password string) bool {
	if len(s.passwordHash) == 0 || s.user == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.user)) == 1
	passOK := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	return userOK && passOK
}

// Issue ставит сессионную куку.
func (s *Sessions) Issue(w http.ResponseWriter, user string) error {
	encoded, err := s.codec.Encode(SessionCookie, sessionData{User: user, IssuedAt: time.Now().Unix()})
	if err != nil {
		return Internal("не удалось создать сессию", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear удаляет куку.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// User — пользователь из куки или "" (нет куки, подделка, истекла).
func (s *Sessions) User(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	var data sessionData
	if err := s.codec.Decode(SessionCookie, c.Value, &data); err != nil {
		return ""
	}
	return data.User
}

// Middleware кладёт пользователя из куки в контекст запроса.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := s.User(r); user != "" {
			r = r.WithContext(WithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser перенаправляет гостей на страницу входа.
func RequireUser(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserFromContext(r.Context()) == "" {
				http.Redirect(w, r, loginPath+"?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// derive32 — 32-байтовый ключ из секрета
func derive32(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}
