package main

//main.go
import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"easycsp/internal/app"
	"easycsp/internal/core"
)

func main() {
	// 1) Конфиг и логи
	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("ERROR: %v", err)
	}
	if err := core.InitDailyLog(cfg.LogDir, !cfg.IsProd()); err != nil {
		log.Fatalf("ERROR: логи: %v", err)
	}
	log.Printf("INFO: Secure=%v, Env=%s, Settings=%s", cfg.Secure, cfg.Env, cfg.SettingsBackend)

	// 2) Контекст для фоновых задач (ротация логов)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startLogRotation(ctx, cfg.LogDir, !cfg.IsProd())

	// 3) Сборка приложения: хранилище настроек, CSP-пайплайн, роутер
	application, err := app.New(ctx, cfg)
	if err != nil {
		core.LogError("Ошибка инициализации приложения", map[string]interface{}{"error": err.Error()})
		core.Close()
		log.Fatalf("ERROR: %v", err)
	}

	// 4) HTTP-сервер с таймаутами
	srv := core.Server(cfg, application.Handler)

	// 5) Перехват сигналов
	sigs, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6) Запуск сервера
	errCh := runServer(srv, cfg)

	// 7) Ожидаем сигнал завершения или падение сервера
	select {
	case <-sigs.Done():
		waitShutdown(srv, cfg)
	case err := <-errCh:
		core.LogError("Ошибка работы сервера", map[string]interface{}{"error": err.Error()})
	}

	// 8) Закрытие ресурсов
	if cerr := application.Close(); cerr != nil {
		core.LogError("Ошибка закрытия ресурсов", map[string]interface{}{"error": cerr.Error()})
	}
	core.Close()
}

// startLogRotation — ротация раз в сутки
func startLogRotation(ctx context.Context, dir string, console bool) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := core.InitDailyLog(dir, console); err != nil {
					fmt.Fprintf(os.Stderr, "ротация логов: %v\n", err)
				}
			}
		}
	}()
}

// runServer — запуск (ListenAndServe) в горутине
func runServer(srv *http.Server, cfg core.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		core.LogInfo("http: сервер запущен", map[string]interface{}{"addr": cfg.Addr, "env": cfg.Env, "app": cfg.AppName})
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// waitShutdown — graceful shutdown с таймаутом
func waitShutdown(srv *http.Server, cfg core.Config) {
	core.LogInfo("http: начат процесс завершения", nil)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		core.LogError("Ошибка завершения сервера", map[string]interface{}{"error": err.Error()})
		return
	}
	core.LogInfo("http: завершение выполнено", nil)
}
