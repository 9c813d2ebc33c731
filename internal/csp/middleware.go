package csp

// middleware.go
import (
	"bytes"
	"net/http"
	"strings"

	"easycsp/internal/core"
)

// MiddlewareConfig — чем middleware наполняет RequestContext и откуда берёт настройки.
type MiddlewareConfig struct {
	Source        Source                   // настройки читаются заново на каждый запрос
	AdminPrefix   string                   // например "/admin"
	Authenticated func(*http.Request) bool // по умолчанию — пользователь из сессии в контексте
}

// Middleware буферизует HTML-ответ и прогоняет его через Processor до отправки заголовков.
// Сжатие (middleware.Compress) должно стоять снаружи, иначе сюда придёт gzip.
func Middleware(p *Processor, cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.Authenticated == nil {
		cfg.Authenticated = func(r *http.Request) bool { return core.UserFromContext(r.Context()) != "" }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bw := &bufferedWriter{w: w, status: http.StatusOK}
			next.ServeHTTP(bw, r)
			if bw.streaming {
				return // handler сделал Flush: заголовки и тело уже у клиента
			}

			body := bw.buf.Bytes()
			if isHTMLResponse(w.Header(), bw.status, body) {
				s := LoadSettings(r.Context(), cfg.Source)
				rc := RequestContext{
					IsAdmin:         isAdminPath(r.URL.Path, cfg.AdminPrefix),
					IsAuthenticated: cfg.Authenticated(r),
					Path:            r.URL.Path,
				}
				in := string(body)
				out := p.ProcessOutput(in, s, rc, headerSink{h: w.Header()})
				if out != in {
					w.Header().Del("Content-Length")
					body = []byte(out)
				}
			}

			w.WriteHeader(bw.status)
			if len(body) > 0 {
				_, _ = w.Write(body)
			}
		})
	}
}

// headerSink пишет в ещё не отправленные заголовки ответа.
type headerSink struct{ h http.Header }

func (headerSink) HeadersSent() bool { return false }

func (s headerSink) SetHeader(name, value string) { s.h.Set(name, value) }

// bufferedWriter копит тело, пока handler не вызовет Flush.
type bufferedWriter struct {
	w           http.ResponseWriter
	buf         bytes.Buffer
	status      int
	wroteHeader bool
	streaming   bool
}

func (b *bufferedWriter) Header() http.Header { return b.w.Header() }

func (b *bufferedWriter) WriteHeader(code int) {
	if b.streaming {
		return
	}
	if code >= 100 && code < 200 {
		b.w.WriteHeader(code) // 1xx уходят сразу и не фиксируют статус
		return
	}
	if b.wroteHeader {
		return
	}
	b.status = code
	b.wroteHeader = true
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.streaming {
		return b.w.Write(p)
	}
	if !b.wroteHeader {
		b.WriteHeader(http.StatusOK)
	}
	return b.buf.Write(p)
}

// Flush переводит ответ в потоковый режим: всё накопленное уходит без обработки.
func (b *bufferedWriter) Flush() {
	if !b.streaming {
		b.streaming = true
		b.w.WriteHeader(b.status)
		if b.buf.Len() > 0 {
			_, _ = b.w.Write(b.buf.Bytes())
			b.buf.Reset()
		}
	}
	if f, ok := b.w.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap нужен http.ResponseController.
func (b *bufferedWriter) Unwrap() http.ResponseWriter { return b.w }

func isHTMLResponse(h http.Header, status int, body []byte) bool {
	if len(body) == 0 || status == http.StatusNoContent || status == http.StatusNotModified {
		return false
	}
	if h.Get("Content-Encoding") != "" {
		return false
	}
	ct := h.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "text/html")
}

func isAdminPath(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
