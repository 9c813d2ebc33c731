package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"easycsp/internal/core"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations применяет встроенные SQL-миграции по порядку имён (001, 002...)
type Migrations struct {
	db *sqlx.DB
	fs fs.FS
}

// NewMigrations создаёт мигратор
func NewMigrations(db *sqlx.DB) *Migrations {
	return &Migrations{db: db, fs: migrationFiles}
}

// Run выполняет все ещё не применённые миграции
func (m *Migrations) Run(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("таблица миграций: %w", err)
	}

	files, err := fs.Glob(m.fs, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("ошибка поиска миграций: %w", err)
	}
	sort.Strings(files)

	applied := 0
	for _, file := range files {
		ok, err := m.runMigration(ctx, file)
		if err != nil {
			return fmt.Errorf("ошибка миграции %s: %w", file, err)
		}
		if ok {
			applied++
		}
	}

	core.LogInfo("Миграции завершены успешно", map[string]interface{}{
		"files":   len(files),
		"applied": applied,
	})
	return nil
}

func (m *Migrations) createMigrationsTable(ctx context.Context) error {
	const q = `
		CREATE TABLE IF NOT EXISTS migrations (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`
	_, err := m.db.ExecContext(ctx, q)
	return err
}

// runMigration возвращает true, если миграция применена сейчас
func (m *Migrations) runMigration(ctx context.Context, file string) (bool, error) {
	name := path.Base(file)

	var count int
	if err := m.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM migrations WHERE name = ?", name); err != nil {
		return false, fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	sqlBytes, err := fs.ReadFile(m.fs, file)
	if err != nil {
		return false, fmt.Errorf("ошибка чтения файла: %w", err)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO migrations (name) VALUES (?)", name); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}

	core.LogInfo("Миграция применена", map[string]interface{}{"file": name})
	return true, nil
}
