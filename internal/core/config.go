package core

//config.go

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config — настройки процесса из переменных окружения.
// Настройки самой CSP (enabled, mode, ...) живут отдельно, в хранилище настроек.
type Config struct {
	AppName           string        // Имя приложения
	Addr              string        // Адрес HTTP-сервера (например, ":8080")
	Env               string        // Среда выполнения (dev, prod)
	Secure            bool          // HTTPS: Secure-куки, HSTS
	LogDir            string        // Каталог для дневных логов
	CSRFKey           string        // Ключ для CSRF-защиты админ-формы
	SessionKey        string        // Ключ подписи сессионной куки
	AdminUser         string        // Логин администратора
	AdminPasswordHash string        // bcrypt-хеш пароля; пусто — вход отключён
	AdminPrefix       string        // Префикс админки, её CSP не трогает
	TrustedProxies    []string      // IP/CIDR прокси, которым верим в X-Forwarded-Proto
	SettingsBackend   string        // file | mysql
	SettingsFile      string        // YAML с настройками CSP
	MySQLDSN          string        // DSN для mysql-бэкенда
	SettingsCacheTTL  time.Duration // Кеш чтения настроек; 0 — без кеша
	ShutdownTimeout   time.Duration // Таймаут для graceful shutdown
	ReadHeaderTimeout time.Duration // Таймаут чтения заголовков HTTP-запроса
	ReadTimeout       time.Duration // Таймаут чтения HTTP-запроса
	WriteTimeout      time.Duration // Таймаут записи HTTP-ответа
	IdleTimeout       time.Duration // Таймаут простоя соединения
	RequestTimeout    time.Duration // Таймаут обработки запроса в middleware
}

// Load загружает конфигурацию из переменных окружения со значениями по умолчанию.
func Load() (Config, error) {
	cfg := Config{
		AppName:           getEnv("APP_NAME", "easycsp"),
		Addr:              getEnv("HTTP_ADDR", ":8080"),
		Env:               getEnv("APP_ENV", "dev"),
		Secure:            getEnv("SECURE", "") == "true",
		LogDir:            getEnv("LOG_DIR", "logs"),
		CSRFKey:           getEnv("CSRF_KEY", ""),
		SessionKey:        getEnv("SESSION_KEY", ""),
		AdminUser:         getEnv("ADMIN_USER", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminPrefix:       getEnv("ADMIN_PREFIX", "/admin"),
		TrustedProxies:    getEnvList("TRUSTED_PROXIES"),
		SettingsBackend:   strings.ToLower(getEnv("SETTINGS_BACKEND", "file")),
		SettingsFile:      getEnv("SETTINGS_FILE", "csp.yml"),
		MySQLDSN:          getEnv("MYSQL_DSN", ""),
		SettingsCacheTTL:  getEnvDuration("SETTINGS_CACHE_TTL", 5*time.Second),
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		ReadHeaderTimeout: getEnvDuration("READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       getEnvDuration("READ_TIMEOUT", 10*time.Second),
		WriteTimeout:      getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:       getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
	}

	// В dev ключи можно не задавать: генерируем на время жизни процесса.
	if cfg.CSRFKey == "" {
		cfg.CSRFKey = generateRandomKey()
	}
	if cfg.SessionKey == "" {
		cfg.SessionKey = generateRandomKey()
	}

	return cfg, cfg.Validate()
}

// Validate проверяет то, без чего запускаться нельзя.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: HTTP_ADDR пуст")
	}
	switch c.SettingsBackend {
	case "file":
		if c.SettingsFile == "" {
			return fmt.Errorf("config: SETTINGS_FILE пуст")
		}
	case "mysql":
		if c.MySQLDSN == "" {
			return fmt.Errorf("config: MYSQL_DSN обязателен для SETTINGS_BACKEND=mysql")
		}
	default:
		return fmt.Errorf("config: неизвестный SETTINGS_BACKEND %q", c.SettingsBackend)
	}
	if c.IsProd() {
		if len(c.CSRFKey) < 32 || len(c.SessionKey) < 32 {
			return fmt.Errorf("config: CSRF_KEY и SESSION_KEY в продакшене должны быть не короче 32 символов")
		}
	}
	return nil
}

// IsProd — продакшен-среда.
func (c Config) IsProd() bool { return c.Env == "prod" }

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

// getEnvList — значения через запятую
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// getEnvDuration возвращает значение длительности из переменной окружения или значение по умолчанию
func getEnvDuration(key string, def time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		LogError("Неверный формат длительности", map[string]interface{}{"key": key, "value": val, "error": err.Error()})
		return def
	}
	return d
}

// generateRandomKey создаёт случайный 32-байтовый ключ в формате base64
func generateRandomKey() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		LogError("Ошибка генерации ключа", map[string]interface{}{"error": err.Error()})
		return "fallback-key-please-change-fallback-key"
	}
	return base64.StdEncoding.EncodeToString(b)
}
