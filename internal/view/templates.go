package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"easycsp/internal/core"

	"github.com/gorilla/csrf"
)

//go:embed templates
var files embed.FS

// Templates — скомпилированные страницы: layout + page.
type Templates struct {
	templates   map[string]*template.Template
	adminPrefix string
}

// PageData — данные для всех шаблонов.
// Nonce в шаблонах не нужен: его проставляет CSP-middleware на выходе.
type PageData struct {
	Title       string
	CSRFField   template.HTML // скрытое поле gorilla/csrf; пусто вне защищённых маршрутов
	User        string        // вошедший пользователь или ""
	AdminPrefix string        // для ссылки на настройки в меню
	Data        any
}

const layoutFile = "templates/layout.gohtml"

var pages = map[string]string{
	"home":     "templates/pages/home.gohtml",
	"about":    "templates/pages/about.gohtml",
	"login":    "templates/pages/login.gohtml",
	"settings": "templates/pages/settings.gohtml",
	"notfound": "templates/pages/404.gohtml",
}

// New парсит layout один раз и клонирует его под каждую страницу.
func New(adminPrefix string) (*Templates, error) {
	layoutTpl, err := template.New("layout").ParseFS(files, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга layout: %w", err)
	}

	t := &Templates{
		templates:   make(map[string]*template.Template, len(pages)),
		adminPrefix: strings.TrimSuffix(adminPrefix, "/"),
	}
	for name, pagePath := range pages {
		tpl := template.Must(layoutTpl.Clone())
		if _, err := tpl.ParseFS(files, pagePath); err != nil {
			return nil, fmt.Errorf("ошибка парсинга шаблона %q: %w", name, err)
		}
		if tpl.Lookup("base") == nil {
			return nil, fmt.Errorf("в шаблонах отсутствует define \"base\" для страницы %s", name)
		}
		t.templates[name] = tpl
	}
	return t, nil
}

// Render рендерит страницу в буфер, затем в ответ: при ошибке шаблона
// клиент не получит половину страницы.
func (t *Templates) Render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) error {
	tpl, ok := t.templates[name]
	if !ok {
		return fmt.Errorf("шаблон не найден: %s", name)
	}

	page := PageData{
		Title:       title,
		CSRFField:   csrf.TemplateField(r),
		User:        core.UserFromContext(r.Context()),
		AdminPrefix: t.adminPrefix,
		Data:        data,
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "base", page); err != nil {
		core.LogError("Ошибка рендеринга шаблона", map[string]interface{}{
			"template": name,
			"error":    err.Error(),
		})
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
