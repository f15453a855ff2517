package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sleeptracker/backend/internal/audit"
	auditrepo "sleeptracker/backend/internal/audit/repository"
	"sleeptracker/backend/internal/config"
	"sleeptracker/backend/internal/db"
	"sleeptracker/backend/internal/db/migrate"
	healthhandler "sleeptracker/backend/internal/health/handler"
	"sleeptracker/backend/internal/logger"
	policyengine "sleeptracker/backend/internal/policy/engine"
	"sleeptracker/backend/internal/rest"
	"sleeptracker/backend/internal/server"
	"sleeptracker/backend/internal/server/interceptors"
	sleeprepo "sleeptracker/backend/internal/sleeplog/repository"
	sleepservice "sleeptracker/backend/internal/sleeplog/service"
	"sleeptracker/backend/internal/telemetry"
	telemetryotel "sleeptracker/backend/internal/telemetry/otel"
	"sleeptracker/backend/internal/telemetry/producer"
	userrepo "sleeptracker/backend/internal/user/repository"
	userservice "sleeptracker/backend/internal/user/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}

// stores groups the repositories for one backend (Postgres or in-memory).
type stores struct {
	db        *sql.DB
	sleepLogs sleeprepo.Repository
	users     userrepo.Repository
	audit     auditrepo.Repository
}

func openStores(ctx context.Context, cfg *config.Config, zl *zap.Logger) (*stores, error) {
	if cfg.DatabaseURL == "" {
		zl.Warn("DATABASE_URL not set; using in-memory stores")
		return &stores{
			sleepLogs: sleeprepo.NewMemoryRepository(),
			users:     userrepo.NewMemoryRepository(),
			audit:     auditrepo.NewMemoryRepository(),
		}, nil
	}
	if cfg.MigrateOnStart {
		if err := migrate.Run(cfg.DatabaseURL, migrate.Up); err != nil {
			return nil, err
		}
		zl.Info("migrations applied")
	}
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &stores{
		db:        conn,
		sleepLogs: sleeprepo.NewPostgresRepository(conn),
		users:     userrepo.NewPostgresRepository(conn),
		audit:     auditrepo.NewPostgresRepository(conn),
	}, nil
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx := context.Background()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg, zl)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer st.db.Close()
	}

	policyText, err := policyengine.LoadPolicyFile(cfg.SleepPolicyFile)
	if err != nil {
		return err
	}
	evaluator, err := policyengine.NewOPAEvaluator(ctx, policyText, zl)
	if err != nil {
		return err
	}

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Config{
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.Env,
	})
	if err != nil {
		return err
	}
	providers.SetGlobal()
	sleepMetrics, err := telemetryotel.NewSleepMetrics(providers.MeterProvider)
	if err != nil {
		return err
	}

	kafkaProducer, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		return err
	}
	emitters := telemetry.Fanout{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	if kafkaProducer != nil {
		emitters = append(emitters, kafkaProducer)
		zl.Info("telemetry to kafka enabled", zap.String("topic", cfg.TelemetryKafkaTopic))
	}

	auditor := audit.NewLogger(st.audit, interceptors.ClientIP, zl)
	users := userservice.NewUserService(st.users, zl).WithAudit(auditor)
	sleeps := sleepservice.NewSleepLogService(st.sleepLogs, users, loc, zl,
		sleepservice.WithPolicy(evaluator, policyengine.Settings{
			OnePerDay:              cfg.OneSessionPerDay,
			UpdatesUseCreateWindow: cfg.UpdatesUseCreateWindow,
		}),
		sleepservice.WithAudit(auditor),
		sleepservice.WithEmitter(emitters),
		sleepservice.WithMetrics(sleepMetrics),
		sleepservice.WithPageSizes(cfg.DefaultPageSize),
	)

	var pinger healthhandler.Pinger
	if st.db != nil {
		pinger = st.db
	}
	health := healthhandler.NewServer(pinger, evaluator, zl)

	grpcServer := server.NewGRPCServer(server.Deps{
		SleepLogs:           sleeps,
		Users:               users,
		AuditRepo:           st.audit,
		Auditor:             auditor,
		Emitter:             emitters,
		HealthPinger:        pinger,
		HealthPolicyChecker: evaluator,
		Log:                 zl,
	})
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	serveErr := make(chan error, 2)
	go func() {
		zl.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr), zap.String("timezone", loc.String()))
		serveErr <- grpcServer.Serve(lis)
	}()

	var httpServer *http.Server
	if cfg.HTTPAddr != "" {
		httpServer = &http.Server{
			Addr: cfg.HTTPAddr,
			Handler: rest.NewRouter(rest.Deps{
				SleepLogs: sleeps,
				Users:     users,
				Health:    health,
				Auditor:   auditor,
				Emitter:   emitters,
				Log:       zl,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			zl.Info("REST gateway listening", zap.String("addr", cfg.HTTPAddr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	var runErr error
	select {
	case <-quit:
	case runErr = <-serveErr:
		zl.Error("server stopped unexpectedly", zap.Error(runErr))
	}

	zl.Info("shutting down")
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			zl.Warn("REST gateway shutdown", zap.Error(err))
		}
		cancel()
	}
	grpcServer.GracefulStop()

	// Let in-flight async telemetry emits finish before closing their sinks.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := kafkaProducer.Close(); err != nil {
		zl.Warn("kafka producer close", zap.Error(err))
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		zl.Warn("otel shutdown", zap.Error(err))
	}
	zl.Info("server stopped")
	return runErr
}
