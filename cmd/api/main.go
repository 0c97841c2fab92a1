package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/warehouse-monitoring/docs"
	"github.com/jhoicas/warehouse-monitoring/internal/application/inventory"
	"github.com/jhoicas/warehouse-monitoring/internal/domain/repository"
	"github.com/jhoicas/warehouse-monitoring/internal/infrastructure/kafka"
	"github.com/jhoicas/warehouse-monitoring/internal/infrastructure/memory"
	"github.com/jhoicas/warehouse-monitoring/internal/infrastructure/postgres"
	"github.com/jhoicas/warehouse-monitoring/internal/infrastructure/rediscache"
	httpRouter "github.com/jhoicas/warehouse-monitoring/internal/interfaces/http"
	"github.com/jhoicas/warehouse-monitoring/internal/interfaces/stream"
	"github.com/jhoicas/warehouse-monitoring/pkg/config"
	"github.com/jhoicas/warehouse-monitoring/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// storage repositorios y runner del driver elegido (postgres | memory).
type storage struct {
	txRunner   inventory.TxRunner
	stockRepo  repository.StockRepository
	recordRepo repository.MovementRecordRepository
	ping       func(ctx context.Context) error
	close      func()
}

// @title                       Warehouse Monitoring API
// @version                     1.0
// @description                 Ledger de stock por bodega y correlación de movimientos consumidos de Kafka.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Ledger.StorageDriver).
		Bool("dedupe_deliveries", cfg.Ledger.DedupeDeliveries).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	// Interfaz nil explícita cuando Redis está deshabilitado.
	var cache inventory.MovementCache
	var rdb *goredis.Client
	if cfg.Redis.Enabled() {
		rdb, err = rediscache.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer rdb.Close()
		cache = rediscache.NewMovementCache(rdb, cfg.Redis.TTL)
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("caché de movimientos habilitada")
	}

	reconcileUC := inventory.NewReconcileUseCase(store.txRunner, cache).WithLogger(log.Named("reconcile"))
	stockQueryUC := inventory.NewStockQueryUseCase(store.stockRepo)
	movementQueryUC := inventory.NewMovementQueryUseCase(store.recordRepo, cache).WithLogger(log.Named("movements"))

	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		handler := stream.NewMovementHandler(reconcileUC, cfg.Ledger.DedupeDeliveries, log.Named("stream"))
		consumer = kafka.NewConsumer(kafka.NewReader(cfg.Kafka), handler, log.Named("consumer"),
			kafka.WithStateObserver(stream.ObserveConsumerState))
		stream.ObserveConsumerState(kafka.StateStopped)
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
		Title:    docs.SwaggerInfo.Title,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		consumerState := "disabled"
		if consumer != nil {
			consumerState = consumer.State().String()
		}
		status, code := "ok", fiber.StatusOK
		if err := store.ping(c.UserContext()); err != nil {
			status, code = "degraded", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"service":  cfg.App.Name,
			"storage":  cfg.Ledger.StorageDriver,
			"consumer": consumerState,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if err := httpRouter.Router(app, httpRouter.RouterDeps{
		StockQuery:    stockQueryUC,
		MovementQuery: movementQueryUC,
		JWTSecret:     cfg.JWT.Secret,
		JWTIssuer:     cfg.JWT.Issuer,
		RateLimit:     cfg.HTTP.RateLimit,
	}); err != nil {
		log.Fatal().Err(err).Msg("configurar rutas")
	}

	if consumer != nil {
		go func() {
			// Run recibe un contexto propio: el apagado pasa siempre por Stop (drenado).
			if err := consumer.Run(context.Background()); err != nil && !errors.Is(err, kafka.ErrAlreadyRunning) {
				log.Error().Err(err).Msg("kafka consumer terminó con error")
				stop()
			}
		}()
		log.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Str("group_id", cfg.Kafka.GroupID).
			Msg("kafka consumer arrancado")
	}

	go func() {
		addr := cfg.HTTP.Addr()
		log.Info().Str("addr", addr).Msg("servidor HTTP escuchando")
		if err := app.Listen(addr); err != nil {
			log.Error().Err(err).Msg("servidor HTTP")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("apagando")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if consumer != nil {
		if err := consumer.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("drenado del consumer")
		}
		if err := consumer.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar kafka reader")
		}
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor HTTP")
	}
	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Ledger.StorageDriver == "memory" {
		log.Warn().Msg("almacenamiento en memoria: el ledger se pierde al reiniciar")
		mem := memory.NewStore()
		return &storage{
			txRunner:   mem,
			stockRepo:  mem.StockRepository(),
			recordRepo: mem.MovementRecordRepository(),
			ping:       func(context.Context) error { return nil },
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &storage{
		txRunner:   postgres.NewTxRunner(pool),
		stockRepo:  postgres.NewStockRepository(pool),
		recordRepo: postgres.NewMovementRecordRepository(pool),
		ping:       pool.Ping,
		close:      pool.Close,
	}, nil
}
