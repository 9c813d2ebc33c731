package storage

// settings_file.go
import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"easycsp/internal/core"
	"easycsp/internal/csp"

	"gopkg.in/yaml.v3"
)

// FileSettings — настройки CSP в YAML-файле. Отсутствующий файл = все значения по умолчанию.
type FileSettings struct {
	path string
	mu   sync.Mutex
}

func NewFileSettings(path string) *FileSettings {
	return &FileSettings{path: path}
}

// fileDoc — формат файла. Указатели: отсутствующий ключ не перетирает значение по умолчанию.
type fileDoc struct {
	Enabled            *bool   `yaml:"enabled,omitempty"`
	Mode               *string `yaml:"mode,omitempty"`
	EnableForLoggedIn  *bool   `yaml:"enable_for_logged_in,omitempty"`
	ProcessStyles      *bool   `yaml:"process_styles,omitempty"`
	UseStrictDynamic   *bool   `yaml:"use_strict_dynamic,omitempty"`
	UseUnsafeHashes    *bool   `yaml:"use_unsafe_hashes,omitempty"`
	CustomDirectives   *string `yaml:"custom_directives,omitempty"`
	ReportURI          *string `yaml:"report_uri,omitempty"`
	ExcludedPaths      *string `yaml:"excluded_paths,omitempty"`
	WhitelistedDomains *string `yaml:"whitelisted_domains,omitempty"`
}

func (s *FileSettings) Options(context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение %s: %w", s.path, err)
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("разбор %s: %w", s.path, err)
	}
	return doc.options(), nil
}

// Save перезаписывает файл целиком через временный файл и rename.
func (s *FileSettings) Save(_ context.Context, opts map[string]string) error {
	data, err := yaml.Marshal(docFromOptions(opts))
	if err != nil {
		return fmt.Errorf("кодирование настроек: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".csp-*.yml")
	if err != nil {
		return fmt.Errorf("временный файл: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("запись настроек: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("закрытие временного файла: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("замена %s: %w", s.path, err)
	}

	core.LogInfo("Настройки CSP сохранены", map[string]interface{}{"backend": "file", "path": s.path})
	return nil
}

func (d fileDoc) options() map[string]string {
	out := map[string]string{}
	putBool := func(key string, v *bool) {
		if v != nil {
			out[key] = boolString(*v)
		}
	}
	putString := func(key string, v *string) {
		if v != nil {
			out[key] = *v
		}
	}
	putBool(csp.OptEnabled, d.Enabled)
	putString(csp.OptMode, d.Mode)
	putBool(csp.OptEnableForLoggedIn, d.EnableForLoggedIn)
	putBool(csp.OptProcessStyles, d.ProcessStyles)
	putBool(csp.OptUseStrictDynamic, d.UseStrictDynamic)
	putBool(csp.OptUseUnsafeHashes, d.UseUnsafeHashes)
	putString(csp.OptCustomDirectives, d.CustomDirectives)
	putString(csp.OptReportURI, d.ReportURI)
	putString(csp.OptExcludedPaths, d.ExcludedPaths)
	putString(csp.OptWhitelistedDomains, d.WhitelistedDomains)
	return out
}

func docFromOptions(opts map[string]string) fileDoc {
	var d fileDoc
	getBool := func(key string) *bool {
		v, ok := opts[key]
		if !ok {
			return nil
		}
		b := csp.ParseBool(v)
		return &b
	}
	getString := func(key string) *string {
		v, ok := opts[key]
		if !ok {
			return nil
		}
		return &v
	}
	d.Enabled = getBool(csp.OptEnabled)
	d.Mode = getString(csp.OptMode)
	d.EnableForLoggedIn = getBool(csp.OptEnableForLoggedIn)
	d.ProcessStyles = getBool(csp.OptProcessStyles)
	d.UseStrictDynamic = getBool(csp.OptUseStrictDynamic)
	d.UseUnsafeHashes = getBool(csp.OptUseUnsafeHashes)
	d.CustomDirectives = getString(csp.OptCustomDirectives)
	d.ReportURI = getString(csp.OptReportURI)
	d.ExcludedPaths = getString(csp.OptExcludedPaths)
	d.WhitelistedDomains = getString(csp.OptWhitelistedDomains)
	return d
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
