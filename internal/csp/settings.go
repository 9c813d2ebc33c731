package csp

// settings.go
import (
	"context"
	"strings"

	"easycsp/internal/core"
)

// Mode — режим отправки политики.
type Mode string

const (
	ModeEnforce    Mode = "enforce"
	ModeReportOnly Mode = "report-only"
)

// Ключи настроек в хранилище (admin-форма, MySQL, YAML).
const (
	OptEnabled            = "enabled"
	OptMode               = "mode"
	OptEnableForLoggedIn  = "enable_for_logged_in"
	OptProcessStyles      = "process_styles"
	OptUseStrictDynamic   = "use_strict_dynamic"
	OptUseUnsafeHashes    = "use_unsafe_hashes"
	OptCustomDirectives   = "custom_directives"
	OptReportURI          = "report_uri"
	OptExcludedPaths      = "excluded_paths"
	OptWhitelistedDomains = "whitelisted_domains"
)

// OptionKeys — все известные ключи в порядке формы.
var OptionKeys = []string{
	OptEnabled,
	OptMode,
	OptEnableForLoggedIn,
	OptProcessStyles,
	OptUseStrictDynamic,
	OptUseUnsafeHashes,
	OptCustomDirectives,
	OptReportURI,
	OptExcludedPaths,
	OptWhitelistedDomains,
}

// ParseMode возвращает режим; неизвестное значение даёт report-only.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeEnforce:
		return ModeEnforce
	default:
		return ModeReportOnly
	}
}

// Settings — неизменяемый снимок настроек на один запрос.
// Текстовые поля хранятся как есть, построчно разбираются при использовании.
type Settings struct {
	Enabled            bool
	Mode               Mode
	EnableForLoggedIn  bool
	ProcessStyles      bool
	UseStrictDynamic   bool
	UseUnsafeHashes    bool
	CustomDirectives   string
	ReportURI          string
	ExcludedPaths      string
	WhitelistedDomains string
}

// DefaultSettings — значения по умолчанию: выключено, report-only, strict-dynamic включён.
func DefaultSettings() Settings {
	return Settings{
		Enabled:           false,
		Mode:              ModeReportOnly,
		EnableForLoggedIn: false,
		ProcessStyles:     false,
		UseStrictDynamic:  true,
		UseUnsafeHashes:   false,
	}
}

// CustomDirectiveList — непустые строки custom_directives.
func (s Settings) CustomDirectiveList() []string { return splitLines(s.CustomDirectives) }

// ExcludedPathList — непустые строки excluded_paths.
func (s Settings) ExcludedPathList() []string { return splitLines(s.ExcludedPaths) }

// WhitelistedDomainList — непустые строки whitelisted_domains.
func (s Settings) WhitelistedDomainList() []string { return splitLines(s.WhitelistedDomains) }

// Options переводит снимок обратно в key/value (для сохранения из админки).
func (s Settings) Options() map[string]string {
	return map[string]string{
		OptEnabled:            formatBool(s.Enabled),
		OptMode:               string(ParseMode(string(s.Mode))),
		OptEnableForLoggedIn:  formatBool(s.EnableForLoggedIn),
		OptProcessStyles:      formatBool(s.ProcessStyles),
		OptUseStrictDynamic:   formatBool(s.UseStrictDynamic),
		OptUseUnsafeHashes:    formatBool(s.UseUnsafeHashes),
		OptCustomDirectives:   s.CustomDirectives,
		OptReportURI:          s.ReportURI,
		OptExcludedPaths:      s.ExcludedPaths,
		OptWhitelistedDomains: s.WhitelistedDomains,
	}
}

// Source — хранилище настроек (Configuration Accessor).
// Options возвращает текущие значения; отсутствующий ключ означает значение по умолчанию.
type Source interface {
	Options(ctx context.Context) (map[string]string, error)
}

// SettingsFromOptions накладывает значения из хранилища на значения по умолчанию.
func SettingsFromOptions(opts map[string]string) Settings {
	s := DefaultSettings()
	if opts == nil {
		return s
	}
	s.Enabled = optBool(opts, OptEnabled, s.Enabled)
	if v, ok := opts[OptMode]; ok {
		s.Mode = ParseMode(v)
	}
	s.EnableForLoggedIn = optBool(opts, OptEnableForLoggedIn, s.EnableForLoggedIn)
	s.ProcessStyles = optBool(opts, OptProcessStyles, s.ProcessStyles)
	s.UseStrictDynamic = optBool(opts, OptUseStrictDynamic, s.UseStrictDynamic)
	s.UseUnsafeHashes = optBool(opts, OptUseUnsafeHashes, s.UseUnsafeHashes)
	s.CustomDirectives = opts[OptCustomDirectives]
	s.ReportURI = strings.TrimSpace(opts[OptReportURI])
	s.ExcludedPaths = opts[OptExcludedPaths]
	s.WhitelistedDomains = opts[OptWhitelistedDomains]
	return s
}

// LoadSettings читает снимок из источника. Ошибка источника не фатальна:
// она логируется, а запрос обрабатывается с настройками по умолчанию.
func LoadSettings(ctx context.Context, src Source) Settings {
	if src == nil {
		return DefaultSettings()
	}
	opts, err := src.Options(ctx)
	if err != nil {
		core.LogError("csp: ошибка чтения настроек", map[string]interface{}{"error": err.Error()})
		return DefaultSettings()
	}
	return SettingsFromOptions(opts)
}

// StaticSource — фиксированный набор значений (тесты, запуск без хранилища).
type StaticSource map[string]string

func (s StaticSource) Options(context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

// ParseBool понимает 1/true/on/yes как true, всё остальное — false.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func optBool(opts map[string]string, key string, def bool) bool {
	v, ok := opts[key]
	if !ok {
		return def
	}
	return ParseBool(v)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// splitLines режет по \n, обрезает пробелы (и \r) и выкидывает пустые строки.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			out = append(out, t)
		}
	}
	return out
}
