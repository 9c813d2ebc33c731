package storage

// settings_mysql.go
import (
	"context"
	"fmt"

	"easycsp/internal/core"

	"github.com/jmoiron/sqlx"
)

// Store — источник настроек CSP, который умеет и сохранять (для админки).
type Store interface {
	Options(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, opts map[string]string) error
}

// MySQLSettings — настройки в таблице csp_settings (name -> value).
type MySQLSettings struct {
	db *sqlx.DB
}

func NewMySQLSettings(db *sqlx.DB) *MySQLSettings {
	return &MySQLSettings{db: db}
}

type settingRow struct {
	Name  string `db:"name"`
	Value string `db:"value"`
}

// Options — все сохранённые значения; отсутствующие ключи дадут значения по умолчанию.
func (s *MySQLSettings) Options(ctx context.Context) (map[string]string, error) {
	const q = `SELECT name, value FROM csp_settings`

	var rows []settingRow
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("чтение csp_settings: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Value
	}
	return out, nil
}

// Save записывает значения одной транзакцией (upsert).
func (s *MySQLSettings) Save(ctx context.Context, opts map[string]string) error {
	const q = `
		INSERT INTO csp_settings (name, value) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value)`

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for name, value := range opts {
		if _, err := tx.ExecContext(ctx, q, name, value); err != nil {
			return fmt.Errorf("сохранение %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit csp_settings: %w", err)
	}

	core.LogInfo("Настройки CSP сохранены", map[string]interface{}{"backend": "mysql", "keys": len(opts)})
	return nil
}
