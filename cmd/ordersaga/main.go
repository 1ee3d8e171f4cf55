package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/ordersaga/internal/app"
	"github.com/davicafu/ordersaga/internal/config"
	"github.com/davicafu/ordersaga/pkg/logger"
)

// ---------------- Main ----------------
func main() {
	logger.Init()          // inicializa zap
	log := logger.Logger() // obtiene logger estructurado
	defer log.Sync()       // flush buffers al salir

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Configuración malformada => abortar antes de tocar el broker.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Configuración inválida", zap.Error(err))
	}

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("No se pudo cablear la aplicación", zap.Error(err))
	}
	defer application.Close()

	application.StartConsumers(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: application.Router,
	}

	go func() {
		log.Info("🚀 HTTP escuchando", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Servidor HTTP caído", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Señal de apagado recibida, cerrando...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Apagado HTTP con errores", zap.Error(err))
	}

	log.Info("✅ Proceso terminado limpiamente")
}
