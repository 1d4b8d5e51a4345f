package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AngelMagaquian/laintapp-api/config"
	matchingrepo "github.com/AngelMagaquian/laintapp-api/internal/repositories/matching"
	notmatchingrepo "github.com/AngelMagaquian/laintapp-api/internal/repositories/notmatching"
	providerrepo "github.com/AngelMagaquian/laintapp-api/internal/repositories/provider"
	taxesrepo "github.com/AngelMagaquian/laintapp-api/internal/repositories/taxesdeductions"
	"github.com/AngelMagaquian/laintapp-api/pkg/database"
	"github.com/AngelMagaquian/laintapp-api/pkg/events"
	"github.com/AngelMagaquian/laintapp-api/pkg/kafka"
	"github.com/AngelMagaquian/laintapp-api/pkg/logger"
	"github.com/AngelMagaquian/laintapp-api/pkg/matching"
	"github.com/AngelMagaquian/laintapp-api/pkg/middleware"
	"github.com/AngelMagaquian/laintapp-api/pkg/routes/health"
	matchingroutes "github.com/AngelMagaquian/laintapp-api/pkg/routes/matching"
	providerroutes "github.com/AngelMagaquian/laintapp-api/pkg/routes/provider"
	settlementroutes "github.com/AngelMagaquian/laintapp-api/pkg/routes/settlement"
	taxesroutes "github.com/AngelMagaquian/laintapp-api/pkg/routes/taxesdeductions"
	"github.com/AngelMagaquian/laintapp-api/pkg/settlement"
	"github.com/AngelMagaquian/laintapp-api/pkg/startup"
	"github.com/AngelMagaquian/laintapp-api/pkg/tracing"
	"github.com/AngelMagaquian/laintapp-api/pkg/tracing/exporters"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, flush := logger.New(cfg.LogLevel, cfg.PrettyLogs)
	defer flush()

	ctx := context.Background()

	if cfg.TracingEnabled {
		shutdown, err := setupTracing(ctx, cfg)
		if err != nil {
			log.WithError(err).Error("Failed to set up tracing")
			os.Exit(1)
		}
		defer shutdown(ctx)
	}

	pg := &postgresDependency{cfg: cfg, log: log}
	broker := &kafkaDependency{cfg: cfg, log: log}

	boot := startup.New(log, cfg.StartupMaxAttempts)
	boot.Add(pg)
	boot.Add(broker)
	if err := boot.Start(ctx); err != nil {
		log.WithError(err).Error("Failed to start dependencies")
		os.Exit(1)
	}
	defer boot.Stop(ctx)

	db := pg.db
	dbInstance := database.NewDatabaseInstance(db, log)
	emitter := events.NewEmitter(broker.producer, log)

	matchingRepo := matchingrepo.NewRepository(dbInstance, log)
	notMatchingRepo := notmatchingrepo.NewRepository(dbInstance, log)
	providerRepo := providerrepo.NewRepository(dbInstance, log)
	taxesRepo := taxesrepo.NewRepository(dbInstance, log)

	engine := matching.NewEngine(log, matching.EngineConfig{
		StrictExclusivity: cfg.StrictExclusivity,
		WalletCardTypes:   cfg.WalletCardTypes,
	})
	matchingService := matching.NewService(log, engine, matchingRepo, notMatchingRepo, providerRepo, emitter)
	resolver := settlement.NewResolver(log, matchingRepo, taxesRepo, emitter)

	if err := registerDependencies(log, matchingService, resolver, matchingRepo, notMatchingRepo, providerRepo, taxesRepo); err != nil {
		log.WithError(err).Error("Failed to register dependencies")
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.Use(middleware.Context())
	e.Use(middleware.Logger(log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	if cfg.TracingEnabled {
		e.Use(otelecho.Middleware(cfg.AppName))
	}
	e.HTTPErrorHandler = middleware.Error(log)

	api := e.Group("/api/v1")
	matchingroutes.Register(api.Group("/matching"))
	settlementroutes.Register(api.Group("/settlement"))
	providerroutes.Register(api.Group("/providers"))
	taxesroutes.Register(api.Group("/taxes-deductions"))

	checker := health.NewChecker(db, version)
	checker.RegisterRoutes(e)
	checker.SetReady(true)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil {
			log.WithError(err).Info("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	checker.SetReady(false)
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to shut down HTTP server cleanly")
	}
}

// postgresDependency connects to Postgres and applies pending migrations.
type postgresDependency struct {
	cfg *config.Config
	log ectologger.Logger
	db  *sqlx.DB
}

func (d *postgresDependency) Name() string        { return "postgres" }
func (d *postgresDependency) DependsOn() []string { return nil }

func (d *postgresDependency) Start(ctx context.Context) error {
	db, err := connectDatabase(d.cfg)
	if err != nil {
		return err
	}
	if err := runMigrations(d.cfg, db, d.log); err != nil {
		db.Close()
		return err
	}
	d.db = db
	return nil
}

func (d *postgresDependency) Stop(ctx context.Context) error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// kafkaDependency builds the event producer when Kafka is enabled. A nil
// producer leaves the event emitter as a no-op.
type kafkaDependency struct {
	cfg      *config.Config
	log      ectologger.Logger
	producer *kafka.Producer
}

func (d *kafkaDependency) Name() string        { return "kafka" }
func (d *kafkaDependency) DependsOn() []string { return nil }

func (d *kafkaDependency) Start(ctx context.Context) error {
	if !d.cfg.KafkaEnabled {
		return nil
	}
	d.producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      d.cfg.KafkaBrokers,
		Topic:        d.cfg.KafkaOutputTopic,
		BatchSize:    d.cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(d.cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: d.cfg.KafkaRequiredAcks,
		Compression:  d.cfg.KafkaCompression,
	}, d.log)
	return nil
}

func (d *kafkaDependency) Stop(ctx context.Context) error {
	if d.producer == nil {
		return nil
	}
	return d.producer.Close()
}

func connectDatabase(cfg *config.Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
		cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)

	db, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	return db, nil
}

func runMigrations(cfg *config.Config, db *sqlx.DB, log ectologger.Logger) error {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return err
	}

	ms := database.NewMigrationService(log, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})

	return ms.Migrate(cfg.DatabaseName, driver)
}

func setupTracing(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
		Endpoint: cfg.TracingEndpoint,
		Protocol: cfg.TracingProtocol,
		Insecure: true,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	return tp.Shutdown, nil
}

func registerDependencies(
	log ectologger.Logger,
	matchingService *matching.Service,
	resolver *settlement.Resolver,
	matchingRepo *matchingrepo.Repository,
	notMatchingRepo *notmatchingrepo.Repository,
	providerRepo *providerrepo.Repository,
	taxesRepo *taxesrepo.Repository,
) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, log); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*matching.Service](container, matchingService); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*settlement.Resolver](container, resolver); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*matchingrepo.Repository](container, matchingRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*notmatchingrepo.Repository](container, notMatchingRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*providerrepo.Repository](container, providerRepo); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[*taxesrepo.Repository](container, taxesRepo)
}
