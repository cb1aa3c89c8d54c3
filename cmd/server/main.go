package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/eshop/storefront/internal/adapter/handler"
	"github.com/eshop/storefront/internal/adapter/notify"
	"github.com/eshop/storefront/internal/adapter/storage"
	"github.com/eshop/storefront/internal/config"
	"github.com/eshop/storefront/internal/core/service"
	"github.com/eshop/storefront/pkg/logx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load config")
	}
	logx.Init(cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to connect mysql")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logx.Fatal().Err(err).Msg("failed to ping mysql")
	}
	logx.Info().Msg("connected to mysql")

	// Redis
	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to connect redis")
	}
	logx.Info().Msg("connected to redis")

	// Adapters
	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	redisAdapter := storage.NewRedisAdapter(rdb, sessionTTL)
	mysqlAdapter := storage.NewMySQLAdapter(db)
	mailer := notify.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
	announcer := notify.NewTwitterAnnouncer(cfg.Twitter.APIKey, cfg.Twitter.APISecret, cfg.Twitter.AccessToken, cfg.Twitter.AccessSecret)

	// Services
	announceService := service.NewAnnounceService(announcer, cfg.AnnounceQueueSize)
	authService := service.NewAuthService(mysqlAdapter, redisAdapter)
	cartService := service.NewCartService(redisAdapter, mysqlAdapter)
	checkoutService := service.NewCheckoutService(cartService, mysqlAdapter, mailer, cfg.SMTP.Sender)
	vendorService := service.NewVendorService(mysqlAdapter, mysqlAdapter, announceService)
	reviewService := service.NewReviewService(mysqlAdapter, mysqlAdapter)
	catalogService := service.NewCatalogService(mysqlAdapter, mysqlAdapter, mysqlAdapter)

	// Announcement worker pool
	var wg sync.WaitGroup
	for i := 0; i < cfg.AnnounceWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			announceService.Worker(id)
		}(i)
	}
	logx.Info().Int("workers", cfg.AnnounceWorkers).Msg("started announcement workers")

	// HTTP server
	httpHandler := handler.NewHTTPHandler(
		authService,
		catalogService,
		cartService,
		checkoutService,
		vendorService,
		reviewService,
		mysqlAdapter,
	)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logx.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logx.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logx.Info().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logx.Info().Msg("HTTP server stopped")

	announceService.Close()
	wg.Wait()
	logx.Info().Msg("announcement workers stopped")

	rdb.Close()
	db.Close()
	logx.Info().Msg("connections closed")
}
