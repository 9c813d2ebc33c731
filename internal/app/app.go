package app

// internal/app/app.go
import (
	"context"
	"fmt"
	"net/http"

	"easycsp/internal/core"
	"easycsp/internal/csp"
	httpx "easycsp/internal/http"
	"easycsp/internal/storage"
	"easycsp/internal/view"

	"github.com/jmoiron/sqlx"
)

// App — собранное приложение: обработчик и ресурсы, которые нужно закрыть.
type App struct {
	Handler   http.Handler
	Processor *csp.Processor
	db        *sqlx.DB
}

// New — главный конструктор: хранилище настроек, шаблоны, сессии, CSP-пайплайн, роутер.
// hooks — внешние переопределения решения «пропустить CSP».
func New(ctx context.Context, cfg core.Config, hooks ...csp.SkipHook) (*App, error) {
	store, db, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tpl, err := view.New(cfg.AdminPrefix)
	if err != nil {
		_ = storage.Close(db)
		return nil, fmt.Errorf("шаблоны: %w", err)
	}

	processor := csp.NewProcessor(csp.WithSkipEvaluator(csp.NewSkipEvaluator(hooks...)))

	handler := httpx.NewRouter(httpx.Deps{
		Config:    cfg,
		Templates: tpl,
		Sessions:  core.NewSessions(cfg),
		Store:     store,
		Processor: processor,
	})

	if cfg.AdminPasswordHash == "" {
		core.LogWarn("ADMIN_PASSWORD_HASH не задан: вход в админку отключён", nil)
	}

	return &App{Handler: handler, Processor: processor, db: db}, nil
}

// Close освобождает ресурсы (пул MySQL).
func (a *App) Close() error {
	return storage.Close(a.db)
}

// newStore выбирает бэкенд настроек и оборачивает его кешем.
func newStore(ctx context.Context, cfg core.Config) (storage.Store, *sqlx.DB, error) {
	switch cfg.SettingsBackend {
	case "mysql":
		db, err := storage.NewDB(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("mysql: %w", err)
		}
		if err := storage.NewMigrations(db).Run(ctx); err != nil {
			_ = storage.Close(db)
			return nil, nil, fmt.Errorf("миграции: %w", err)
		}
		return storage.NewCachedStore(storage.NewMySQLSettings(db), cfg.SettingsCacheTTL), db, nil
	default:
		core.LogInfo("Настройки CSP из файла", map[string]interface{}{"path": cfg.SettingsFile})
		return storage.NewCachedStore(storage.NewFileSettings(cfg.SettingsFile), cfg.SettingsCacheTTL), nil, nil
	}
}
