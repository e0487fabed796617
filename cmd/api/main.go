package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/cineops/ledger-api/internal/application/catalog"
	"github.com/cineops/ledger-api/internal/application/ledger"
	"github.com/cineops/ledger-api/internal/infrastructure/notify"
	"github.com/cineops/ledger-api/internal/infrastructure/postgres"
	httpRouter "github.com/cineops/ledger-api/internal/interfaces/http"
	"github.com/cineops/ledger-api/pkg/config"
	"github.com/cineops/ledger-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repos atados al pool (lecturas y operaciones de una sola sentencia).
	skuRepo := postgres.NewSKURepository(pool)
	bomRepo := postgres.NewBOMRepository(pool)
	recordRepo := postgres.NewInventoryRecordRepository(pool)
	batchRepo := postgres.NewBatchRepository(pool)
	ticketRepo := postgres.NewTicketRepository(pool)
	txnRepo := postgres.NewTransactionRepository(pool)
	alertRepo := postgres.NewAlertRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Colaborador de notificaciones de alertas según configuración.
	var notifier ledger.AlertNotifier
	switch cfg.Notify.Mode {
	case "webhook":
		notifier = notify.NewWebhookNotifier(cfg.Notify.WebhookURL)
	case "redis":
		redisNotifier := notify.NewRedisNotifier(cfg.Notify.RedisAddr, cfg.Notify.RedisChannel)
		defer redisNotifier.Close()
		notifier = redisNotifier
	default:
		notifier = notify.NopNotifier{}
	}

	retry := ledger.RetryPolicy{
		MaxAttempts:     uint64(cfg.Ledger.MaxRetries),
		InitialInterval: cfg.Ledger.RetryBackoff,
	}
	reservationUC := ledger.NewReservationUseCase(txRunner, bomRepo, skuRepo, alertRepo, notifier, retry, log)
	receiveUC := ledger.NewReceiveStockUseCase(txRunner, skuRepo, notifier, log)
	availabilityUC := ledger.NewAvailabilityUseCase(recordRepo, ticketRepo, alertRepo)
	catalogUC := catalog.NewCatalogUseCase(skuRepo, bomRepo)

	// Auditoría de arranque: reproducir el log y reportar deriva. El replay
	// nunca corrige estado; solo deja evidencia en los logs.
	if cfg.Ledger.ReplayAudit {
		replayUC := ledger.NewReplayUseCase(txnRepo, recordRepo, batchRepo, log)
		report, err := replayUC.Replay(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("replay del log de transacciones")
		}
		log.Info().
			Int("transactions", report.Transactions).
			Int("duplicates", report.Duplicates).
			Int("drifts", len(report.Drifts)).
			Msg("auditoría de replay completada")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Cine Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ReservationUC:  reservationUC,
		ReceiveUC:      receiveUC,
		AvailabilityUC: availabilityUC,
		CatalogUC:      catalogUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
