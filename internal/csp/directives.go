package csp

// directives.go
import (
	"net/url"
	"strings"
)

const (
	HeaderEnforce    = "Content-Security-Policy"
	HeaderReportOnly = "Content-Security-Policy-Report-Only"
)

// HeaderName — имя заголовка для режима.
func HeaderName(m Mode) string {
	if ParseMode(string(m)) == ModeEnforce {
		return HeaderEnforce
	}
	return HeaderReportOnly
}

// Directives собирает политику по порядку: script-src, [style-src],
// object-src, base-uri, пользовательские директивы, [report-uri].
// Результат детерминирован для одинаковых (nonce, s).
func Directives(nonce string, s Settings) []string {
	domains := s.WhitelistedDomainList()

	out := []string{"script-src " + strings.Join(ScriptSources(nonce, s.UseStrictDynamic, s.UseUnsafeHashes, domains), " ")}
	if s.ProcessStyles {
		out = append(out, "style-src "+strings.Join(StyleSources(nonce, domains), " "))
	}
	out = append(out, "object-src 'none'", "base-uri 'none'")
	out = append(out, s.CustomDirectiveList()...)
	if uri := SanitizeURL(s.ReportURI); uri != "" {
		out = append(out, "report-uri "+uri)
	}
	return out
}

// BuildHeaderValue — директивы, склеенные через "; ".
func BuildHeaderValue(nonce string, s Settings) string {
	return strings.Join(Directives(nonce, s), "; ")
}

// ScriptSources — источники script-src.
// 'unsafe-inline' добавляется всегда: браузеры с поддержкой nonce его игнорируют,
// старые без неё продолжают исполнять inline-скрипты.
// http: и https: — запасной вариант для браузеров без 'strict-dynamic'.
func ScriptSources(nonce string, strictDynamic, unsafeHashes bool, domains []string) []string {
	src := make([]string, 0, 6+len(domains))
	if strictDynamic {
		src = append(src, "'strict-dynamic'")
	}
	src = append(src, nonceSource(nonce), "'unsafe-inline'")
	if unsafeHashes {
		src = append(src, "'unsafe-hashes'")
	}
	src = append(src, domains...)
	if strictDynamic {
		src = append(src, "http:", "https:")
	}
	return src
}

// StyleSources — источники style-src.
func StyleSources(nonce string, domains []string) []string {
	src := make([]string, 0, 2+len(domains))
	src = append(src, nonceSource(nonce), "'unsafe-inline'")
	return append(src, domains...)
}

func nonceSource(nonce string) string {
	return "'nonce-" + nonce + "'"
}

// SanitizeURL оставляет абсолютный http(s) URL или путь от корня.
// Всё, что может сломать заголовок (пробелы, ';', ',', кавычки, управляющие символы), вырезается.
func SanitizeURL(raw string) string {
	raw = strings.Map(func(r rune) rune {
		switch {
		case r <= 0x20, r == 0x7f:
			return -1
		case r == ';', r == ',', r == '"', r == '\'', r == '<', r == '>', r == '\\':
			return -1
		}
		return r
	}, raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return ""
		}
	case "":
		if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
			return ""
		}
	default:
		return ""
	}
	return u.String()
}
