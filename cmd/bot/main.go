package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/solimsadek-max/NCP/config"
	"github.com/solimsadek-max/NCP/db"
	"github.com/solimsadek-max/NCP/internal/bot"
	"github.com/solimsadek-max/NCP/internal/kvstore"
	"github.com/solimsadek-max/NCP/internal/models"
	"github.com/solimsadek-max/NCP/internal/repository"
	"github.com/solimsadek-max/NCP/internal/service"
	"github.com/solimsadek-max/NCP/internal/worker"
	"github.com/solimsadek-max/NCP/utils"
)

func main() {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		utils.InitLogger("info").Fatal("Failed to load config: ", err)
	}
	logger := utils.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore := openStore(cfg, logger)
	defer closeStore()

	var telegramBot *bot.Bot
	notify := func(user *models.User, level int, expiredAt time.Time) {
		if telegramBot != nil {
			telegramBot.NotifyExpired(user, level, expiredAt)
		}
	}

	svc, err := service.NewService(ctx, repo, service.Config{
		MinDeposit:           decimal.NewFromFloat(cfg.MinDeposit),
		DefaultMinWithdrawal: decimal.NewFromFloat(cfg.DefaultMinWithdrawal),
		DefaultWithdrawPin:   cfg.DefaultWithdrawPin,
		TaskCooldown:         cfg.TaskCooldown,
		AdminPhone:           cfg.AdminPhone,
	}, logger, service.WithExpiryNotifier(notify))
	if err != nil {
		logger.Fatal("Failed to create service: ", err)
	}

	client, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal("Failed to create bot API: ", err)
	}
	telegramBot = bot.NewBot(client, svc, logger, &cfg)

	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.Handler(),
	}
	go func() {
		logger.Infof("Metrics server listening on %s", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Metrics server stopped: %v", err)
		}
	}()

	sweeper := worker.NewExpirySweeper(svc, cfg.ExpirySweepInterval, logger)
	go sweeper.Run(ctx)

	telegramBot.Start(ctx, client)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Metrics server shutdown: %v", err)
	}
	logger.Info("Shutdown complete")
}

// openStore connects the configured backend and returns it with its closer.
func openStore(cfg config.Config, logger *utils.Logger) (service.Repository, func()) {
	switch cfg.Storage {
	case config.StorageRedis:
		rdb, err := db.ConnectRedis(cfg.RedisURL, logger)
		if err != nil {
			logger.Fatal(err)
		}
		return kvstore.NewStore(rdb, logger), func() {
			if err := rdb.Close(); err != nil {
				logger.Warnf("Failed to close redis: %v", err)
			}
		}

	default:
		database, err := db.ConnectDb(cfg.DB_URL, logger)
		if err != nil {
			logger.Fatal(err)
		}
		if err := db.Migrate(database, logger); err != nil {
			logger.Fatal(err)
		}
		return repository.NewRepository(database, logger), func() {
			if sqlDB, err := database.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
	}
}
