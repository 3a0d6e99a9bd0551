package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/c14220110/rekap-billing/config"
	"github.com/c14220110/rekap-billing/internal/laporan/controllers"
	"github.com/c14220110/rekap-billing/internal/laporan/repository"
	"github.com/c14220110/rekap-billing/internal/laporan/services"
	"github.com/c14220110/rekap-billing/internal/routes"
	"github.com/c14220110/rekap-billing/pkg/logger"
	"github.com/c14220110/rekap-billing/pkg/storage/mariadb"
	"github.com/c14220110/rekap-billing/pkg/storage/redisstore"
	"github.com/c14220110/rekap-billing/ws"
)

func main() {
	cfg := config.LoadConfig()

	zlog, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, "rekap-billing")
	if err != nil {
		log.Fatalf("gagal membuat logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := mariadb.Connect(cfg)
	if err != nil {
		zlog.Fatal("koneksi database gagal", zap.Error(err))
	}
	defer db.Close()

	source := matchSetSource(ctx, cfg, zlog)

	hub := ws.NewHub(zlog.Named("ws"))
	go hub.Run(ctx)

	repo := repository.NewKunjunganRepository(db, zlog.Named("repository"))
	laporanService := services.NewLaporanService(repo, source, cfg.Location(), hub, zlog.Named("laporan"))
	laporanController := controllers.NewLaporanController(laporanService, zlog.Named("http"))

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zlog.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))

	routes.Init(e, laporanController, hub, cfg.JWTSecret)

	go func() {
		zlog.Info("server berjalan", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server berhenti", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown server gagal", zap.Error(err))
	}
}

// matchSetSource memakai Redis bila tersedia, selain itu folder lokal.
func matchSetSource(ctx context.Context, cfg *config.Config, zlog *zap.Logger) services.MatchSetSource {
	client := redisstore.NewClient(cfg)
	if client != nil {
		err := redisstore.Ping(ctx, client)
		if err == nil {
			zlog.Info("match-set disimpan di redis", zap.String("addr", cfg.RedisAddr))
			return services.NewRedisMatchSetSource(client, cfg.MatchSetTTL)
		}
		zlog.Warn("redis tidak tersedia, match-set memakai folder lokal", zap.Error(err))
		redisstore.Close(client)
	}
	return services.NewDirMatchSetSource(cfg.MatchSetDir)
}
