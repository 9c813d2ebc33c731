package storage

import (
	"context"
	"strings"
	"time"

	"easycsp/internal/core"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// NewDB создаёт пул подключений к MySQL и проверяет подключение.
func NewDB(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "mysql", dsn)
	if err != nil {
		core.LogError("ошибка подключения к MySQL", map[string]interface{}{
			"error": err.Error(),
			"dsn":   SanitizeDSN(dsn),
		})
		return nil, err
	}

	// Настройки пула: настроек CSP мало, нагрузка — одно чтение на запрос (или реже, с кешем)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			core.LogError("ошибка закрытия MySQL пула после неуспешного ping", map[string]interface{}{
				"error": cerr.Error(),
			})
		}
		core.LogError("ошибка проверки подключения MySQL", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	core.LogInfo("MySQL подключение успешно", map[string]interface{}{
		"dsn": SanitizeDSN(dsn),
	})
	return db, nil
}

// Close корректно закрывает пул подключений
func Close(db *sqlx.DB) error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		core.LogError("ошибка закрытия MySQL пула", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	core.LogInfo("MySQL пул закрыт", nil)
	return nil
}

// SanitizeDSN прячет пароль в DSN вида user:pass@tcp(host)/db для логов
func SanitizeDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	creds := dsn[:at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return creds[:colon] + ":***" + dsn[at:]
	}
	return dsn
}
