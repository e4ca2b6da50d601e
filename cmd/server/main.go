package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/planner/api/handler"
	"github.com/fastygo/planner/internal/aggregate"
	"github.com/fastygo/planner/internal/alert"
	"github.com/fastygo/planner/internal/clock"
	"github.com/fastygo/planner/internal/config"
	"github.com/fastygo/planner/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/planner/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/planner/internal/infrastructure/redis"
	"github.com/fastygo/planner/internal/middleware"
	"github.com/fastygo/planner/internal/router"
	"github.com/fastygo/planner/internal/services/lifecycle"
	"github.com/fastygo/planner/pkg/httpcontext"
	"github.com/fastygo/planner/pkg/logger"
	"github.com/fastygo/planner/repository"
	boltRepo "github.com/fastygo/planner/repository/bolt"
	"github.com/fastygo/planner/repository/postgres"
	redisRepo "github.com/fastygo/planner/repository/redis"
	"github.com/fastygo/planner/usecase"
	profileUC "github.com/fastygo/planner/usecase/profile"
	scheduleUC "github.com/fastygo/planner/usecase/schedule"
	taskUC "github.com/fastygo/planner/usecase/task"
)

// stores bundles what a driver provides to the use cases.
type stores struct {
	tasks    repository.TaskStore
	profiles repository.ProfileRepository
	probes   []monitor.Probe
	size     monitor.SizeFunc
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Service:     cfg.AppName,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, stop := manager.WatchSignals(context.Background())
	defer stop()

	clk := clock.System{}

	var st stores
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		st = openPostgres(appCtx, cfg, clk, manager, zapLogger)
	default:
		st = openBolt(cfg, clk, manager, zapLogger)
	}
	zapLogger.Info("task store ready", zap.String("driver", cfg.Store.Driver))

	mon := monitor.New(st.probes, st.size, cfg.Monitor.Interval, zapLogger)
	mon.Start()
	manager.RegisterFunc("monitor", mon.Stop)

	dispatcher := usecase.NewDispatcher(cfg.Schedule.MutationTimeout, zapLogger)
	manager.Register("mutations", dispatcher.Close)

	profileUseCase := profileUC.New(st.profiles, nil, zapLogger)
	taskUseCase := taskUC.New(st.tasks, dispatcher, clk, zapLogger)
	scheduleService := scheduleUC.NewService(
		st.tasks,
		profileUseCase.Resolver(),
		profileUseCase,
		clk,
		scheduleUC.Options{
			Alert: alert.Options{
				Grace:    cfg.Schedule.AlertGrace,
				Interval: cfg.Schedule.AlertInterval,
			},
			PreviewOrder:         aggregate.ParsePreviewOrder(cfg.Schedule.WeekPreviewOrder),
			FirstSnapshotTimeout: cfg.Schedule.FirstSnapshotTimeout,
		},
		zapLogger,
	)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Schedule: apiHandler.NewScheduleHandler(appCtx, scheduleService, clk, ctxAdapter, zapLogger),
		Profile:  apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:     apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, cfg.Store.Driver, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
		// Event streams outlive any fixed write deadline.
		WriteTimeout: 0,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, clk clock.Clock, manager *lifecycle.Manager, zapLogger *zap.Logger) stores {
	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.RegisterFunc("postgres", pool.Close)

	redisClient, err := redisInfra.NewClient(ctx, cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.RegisterCloser("redis", redisClient)

	feed := redisRepo.NewChangeFeed(redisClient, cfg.Redis.ChannelPrefix, zapLogger)
	return stores{
		tasks:    postgres.NewTaskRepository(pool, feed, clk, zapLogger),
		profiles: postgres.NewProfileRepository(pool),
		probes: []monitor.Probe{
			{Name: "postgresql", Check: pgInfra.Ping(pool)},
			{Name: "redis", Check: redisInfra.Ping(redisClient)},
		},
	}
}

func openBolt(cfg *config.Config, clk clock.Clock, manager *lifecycle.Manager, zapLogger *zap.Logger) stores {
	db, err := boltRepo.Open(cfg.Bolt.Path)
	if err != nil {
		zapLogger.Fatal("failed to open bolt store", zap.Error(err), zap.String("path", cfg.Bolt.Path))
	}
	manager.RegisterCloser("bolt", db)

	return stores{
		tasks:    boltRepo.NewTaskStore(db, clk, zapLogger),
		profiles: boltRepo.NewProfileStore(db),
		probes: []monitor.Probe{
			{Name: "bolt", Check: func(context.Context) error { return db.Ping() }},
		},
		size: db.TaskCount,
	}
}
