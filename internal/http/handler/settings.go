package handler

// settings.go — админ-форма настроек CSP
import (
	"html"
	"net/http"
	"strings"

	"easycsp/internal/core"
	"easycsp/internal/csp"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// SettingsForm — поля формы после санитизации.
type SettingsForm struct {
	Enabled            bool
	Mode               string `validate:"oneof=enforce report-only"`
	EnableForLoggedIn  bool
	ProcessStyles      bool
	UseStrictDynamic   bool
	UseUnsafeHashes    bool
	CustomDirectives   string `validate:"max=8000"`
	ReportURI          string `validate:"omitempty,max=2048,reporturi"`
	ExcludedPaths      string `validate:"max=8000"`
	WhitelistedDomains string `validate:"max=8000"`
}

type settingsView struct {
	Action  string
	Form    SettingsForm
	Errors  map[string]string
	Saved   bool
	Preview string
}

var (
	validate  = newValidator()
	stripTags = bluemonday.StrictPolicy()
)

func newValidator() *validator.Validate {
	v := validator.New()
	// report-uri: то, что переживёт SanitizeURL (абсолютный http(s) или путь от корня)
	_ = v.RegisterValidation("reporturi", func(fl validator.FieldLevel) bool {
		return csp.SanitizeURL(fl.Field().String()) != ""
	})
	return v
}

// SettingsPage — GET {admin}/settings
func (h *Handlers) SettingsPage(w http.ResponseWriter, r *http.Request) {
	s := csp.LoadSettings(r.Context(), h.store)
	h.renderSettings(w, r, http.StatusOK, settingsView{
		Form:  formFromSettings(s),
		Saved: r.URL.Query().Get("saved") == "1",
	})
}

// SettingsSave — POST {admin}/settings
func (h *Handlers) SettingsSave(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if err := r.ParseForm(); err != nil {
		core.Fail(w, r, core.BadRequest("некорректная форма", err))
		return
	}

	f := SanitizeSettingsForm(r.PostForm.Get)
	if errs := validateSettings(f); len(errs) > 0 {
		core.LogWarn("Настройки CSP не прошли валидацию", map[string]interface{}{"errors": errs})
		h.renderSettings(w, r, http.StatusUnprocessableEntity, settingsView{Form: f, Errors: errs})
		return
	}

	if err := h.store.Save(r.Context(), f.Settings().Options()); err != nil {
		core.Fail(w, r, core.Internal("не удалось сохранить настройки", err))
		return
	}
	core.LogInfo("Настройки CSP обновлены", map[string]interface{}{
		"user":    core.UserFromContext(r.Context()),
		"enabled": f.Enabled,
		"mode":    f.Mode,
	})
	http.Redirect(w, r, h.adminPrefix+"/settings?saved=1", http.StatusSeeOther)
}

func (h *Handlers) renderSettings(w http.ResponseWriter, r *http.Request, status int, v settingsView) {
	v.Action = h.adminPrefix + "/settings"
	if len(v.Errors) == 0 {
		v.Preview = csp.HeaderName(csp.ParseMode(v.Form.Mode)) + ": " + csp.BuildHeaderValue("{nonce}", v.Form.Settings())
	}
	h.render(w, r, status, "settings", "Настройки CSP", v)
}

// SanitizeSettingsForm приводит сырые значения формы к допустимым:
// чекбоксы — bool, режим — из списка (иначе report-only), textarea — без тегов, URL — только http(s) или путь.
func SanitizeSettingsForm(get func(string) string) SettingsForm {
	rawURI := strings.TrimSpace(get(csp.OptReportURI))
	uri := csp.SanitizeURL(rawURI)
	if uri == "" {
		// пусть валидатор покажет ошибку на исходном значении
		uri = sanitizeLine(rawURI)
	}
	return SettingsForm{
		Enabled:            csp.ParseBool(get(csp.OptEnabled)),
		Mode:               string(csp.ParseMode(get(csp.OptMode))),
		EnableForLoggedIn:  csp.ParseBool(get(csp.OptEnableForLoggedIn)),
		ProcessStyles:      csp.ParseBool(get(csp.OptProcessStyles)),
		UseStrictDynamic:   csp.ParseBool(get(csp.OptUseStrictDynamic)),
		UseUnsafeHashes:    csp.ParseBool(get(csp.OptUseUnsafeHashes)),
		CustomDirectives:   sanitizeTextarea(get(csp.OptCustomDirectives)),
		ReportURI:          uri,
		ExcludedPaths:      sanitizeTextarea(get(csp.OptExcludedPaths)),
		WhitelistedDomains: sanitizeTextarea(get(csp.OptWhitelistedDomains)),
	}
}

// Settings — снимок для сохранения и предпросмотра.
func (f SettingsForm) Settings() csp.Settings {
	return csp.Settings{
		Enabled:            f.Enabled,
		Mode:               csp.ParseMode(f.Mode),
		EnableForLoggedIn:  f.EnableForLoggedIn,
		ProcessStyles:      f.ProcessStyles,
		UseStrictDynamic:   f.UseStrictDynamic,
		UseUnsafeHashes:    f.UseUnsafeHashes,
		CustomDirectives:   f.CustomDirectives,
		ReportURI:          f.ReportURI,
		ExcludedPaths:      f.ExcludedPaths,
		WhitelistedDomains: f.WhitelistedDomains,
	}
}

func formFromSettings(s csp.Settings) SettingsForm {
	return SettingsForm{
		Enabled:            s.Enabled,
		Mode:               string(s.Mode),
		EnableForLoggedIn:  s.EnableForLoggedIn,
		ProcessStyles:      s.ProcessStyles,
		UseStrictDynamic:   s.UseStrictDynamic,
		UseUnsafeHashes:    s.UseUnsafeHashes,
		CustomDirectives:   s.CustomDirectives,
		ReportURI:          s.ReportURI,
		ExcludedPaths:      s.ExcludedPaths,
		WhitelistedDomains: s.WhitelistedDomains,
	}
}

func validateSettings(f SettingsForm) map[string]string {
	errs := map[string]string{}
	err := validate.Struct(f)
	if err == nil {
		return errs
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		core.LogError("Unexpected validation error", map[string]interface{}{"error": err.Error()})
		errs["form"] = "Ошибка валидации"
		return errs
	}
	for _, e := range verrs {
		switch e.Field() {
		case "Mode":
			errs[csp.OptMode] = "Неизвестный режим"
		case "ReportURI":
			switch e.Tag() {
			case "max":
				errs[csp.OptReportURI] = "Слишком длинный URL"
			default:
				errs[csp.OptReportURI] = "Нужен абсолютный http(s) URL или путь от корня"
			}
		case "CustomDirectives":
			errs[csp.OptCustomDirectives] = "Слишком длинный текст"
		case "ExcludedPaths":
			errs[csp.OptExcludedPaths] = "Слишком длинный текст"
		case "WhitelistedDomains":
			errs[csp.OptWhitelistedDomains] = "Слишком длинный текст"
		default:
			errs[e.Field()] = "Некорректное значение"
		}
	}
	return errs
}

// sanitizeTextarea убирает теги построчно, нормализует переводы строк и выбрасывает пустые строки.
// bluemonday экранирует кавычки, а в директивах они нужны ('self', 'none'), поэтому Unescape.
func sanitizeTextarea(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if l := sanitizeLine(line); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

func sanitizeLine(line string) string {
	return strings.TrimSpace(html.UnescapeString(stripTags.Sanitize(line)))
}
