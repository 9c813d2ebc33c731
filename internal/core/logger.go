package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger — дневные файлы: основной лог и отдельный лог ошибок.
type Logger struct {
	mainLogger  zerolog.Logger
	errorLogger zerolog.Logger
	mainFile    *os.File
	errorFile   *os.File
	mu          sync.Mutex
}

var (
	globalMu     sync.Mutex
	globalLogger *Logger
	cleanupOnce  sync.Once
)

// InitDailyLog открывает dir/DD-MM-YYYY.log и dir/errors-DD-MM-YYYY.log.
// Повторный вызов (ротация) закрывает предыдущие файлы.
// console дублирует записи в stderr в читаемом виде (для dev).
func InitDailyLog(dir string, console bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("создание каталога логов %s: %w", dir, err)
	}

	dateStr := time.Now().Format("02-01-2006")
	mainFile, err := os.OpenFile(filepath.Join(dir, dateStr+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("открытие основного лог-файла: %w", err)
	}
	errorFile, err := os.OpenFile(filepath.Join(dir, "errors-"+dateStr+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_ = mainFile.Close()
		return fmt.Errorf("открытие файла ошибок: %w", err)
	}

	var mainOut, errOut io.Writer = mainFile, errorFile
	if console {
		cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
		mainOut = zerolog.MultiLevelWriter(mainFile, cw)
		errOut = zerolog.MultiLevelWriter(errorFile, cw)
	}

	l := &Logger{
		mainLogger:  zerolog.New(mainOut).With().Timestamp().Logger(),
		errorLogger: zerolog.New(errOut).With().Timestamp().Logger(),
		mainFile:    mainFile,
		errorFile:   errorFile,
	}

	globalMu.Lock()
	prev := globalLogger
	globalLogger = l
	globalMu.Unlock()
	prev.close()

	// Очистка старых логов — один раз за жизнь процесса
	cleanupOnce.Do(func() { go cleanupOldLogs(dir, 7) })
	return nil
}

func current() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalLogger
}

func LogInfo(msg string, fields map[string]interface{}) {
	l := current()
	if l == nil {
		return // логгер не инициализирован или закрыт
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	write(l.mainLogger.Info(), msg, fields)
}

func LogWarn(msg string, fields map[string]interface{}) {
	l := current()
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	write(l.mainLogger.Warn(), msg, fields)
}

// LogError пишет и в лог ошибок, и в основной лог.
func LogError(msg string, fields map[string]interface{}) {
	l := current()
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	write(l.errorLogger.Error(), msg, fields)
	write(l.mainLogger.Error(), msg, fields)
}

func write(event *zerolog.Event, msg string, fields map[string]interface{}) {
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func cleanupOldLogs(dir string, days int) {
	files, err := os.ReadDir(dir)
	if err != nil {
		LogError("Не удалось прочитать каталог логов", map[string]interface{}{"dir": dir, "error": err.Error()})
		return
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(dir, file.Name())
			if err := os.Remove(path); err != nil {
				LogError("Не удалось удалить старый лог", map[string]interface{}{"path": path, "error": err.Error()})
			}
		}
	}
}

func (l *Logger) close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	consoleLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if err := l.mainFile.Close(); err != nil {
		consoleLogger.Error().Msgf("Закрытие mainFile: %v", err)
	}
	if err := l.errorFile.Close(); err != nil {
		consoleLogger.Error().Msgf("Закрытие errorFile: %v", err)
	}
}

// Close закрывает файлы; после этого Log* ничего не делают.
func Close() {
	globalMu.Lock()
	l := globalLogger
	globalLogger = nil
	globalMu.Unlock()
	l.close()
}
