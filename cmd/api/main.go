package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/pharmacy-register/internal/application/register"
	"github.com/jhoicas/pharmacy-register/internal/application/usecase"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
	"github.com/jhoicas/pharmacy-register/internal/domain/repository"
	"github.com/jhoicas/pharmacy-register/internal/infrastructure/memory"
	"github.com/jhoicas/pharmacy-register/internal/infrastructure/metrics"
	"github.com/jhoicas/pharmacy-register/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/pharmacy-register/internal/interfaces/http"
	"github.com/jhoicas/pharmacy-register/pkg/config"
	"github.com/jhoicas/pharmacy-register/pkg/logger"
)

// backend repositorios y runner de transacciones del store elegido.
type backend struct {
	entries  repository.RegisterEntryRepository
	products repository.ProductRepository
	txRunner register.TxRunner
	close    func()
}

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
		Str("store", cfg.Register.Store).
		Str("recalc_strategy", cfg.Register.RecalcStrategy).
		Msg("iniciando aplicación")

	strategy, err := register.ParseStrategy(cfg.Register.RecalcStrategy)
	if err != nil {
		log.Fatal().Err(err).Msg("estrategia de recálculo")
	}

	ctx := context.Background()
	var be backend
	switch cfg.Register.Store {
	case "memory":
		be = memoryBackend(ctx, cfg, log)
	default:
		be = postgresBackend(ctx, cfg, log)
	}
	defer be.close()

	registry := metrics.New("pharmacy_register")
	recordUC := register.NewRecordEntryUseCase(be.txRunner, strategy, registry, log.Component("register"))
	queryUC := register.NewQueryUseCase(be.entries, be.products)
	saleUC := register.NewSaleCompletionUseCase(be.txRunner, recordUC)
	receiptUC := register.NewStockReceiptUseCase(be.txRunner, recordUC)
	productUC := usecase.NewProductUseCase(be.products)

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
		Title:    "Pharmacy Controlled Drugs Register API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Register.Store})
	})
	app.Get("/metrics", adaptor.HTTPHandler(registry.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:   productUC,
		RecordEntry: recordUC,
		Query:       queryUC,
		SaleHook:    saleUC,
		ReceiptHook: receiptUC,
		JWTSecret:   cfg.JWT.Secret,
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

func postgresBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) backend {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	applied, err := postgres.Migrate(ctx, pool)
	if err != nil {
		pool.Close()
		log.Fatal().Err(err).Msg("migraciones")
	}
	if len(applied) > 0 {
		log.Info().Strs("migrations", applied).Msg("migraciones aplicadas")
	}
	return backend{
		entries:  postgres.NewRegisterEntryRepository(pool),
		products: postgres.NewProductRepository(pool),
		txRunner: postgres.NewTxRunner(pool),
		close:    pool.Close,
	}
}

// memoryBackend store volátil para desarrollo; los datos se pierden al reiniciar.
func memoryBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) backend {
	store := memory.NewStore()
	if id := cfg.Register.BootstrapUserID; id != "" {
		now := time.Now()
		err := memory.NewUserRepository(store).Create(ctx, &entity.User{
			ID:        id,
			Name:      "bootstrap",
			Role:      entity.RoleAdmin,
			Status:    entity.UserStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("usuario bootstrap")
		}
		log.Info().Str("user_id", id).Msg("usuario bootstrap creado")
	}
	log.Warn().Msg("store en memoria: el registro no se persiste")
	return backend{
		entries:  memory.NewEntryRepository(store),
		products: memory.NewProductRepository(store),
		txRunner: memory.NewTxRunner(store),
		close:    func() {},
	}
}
