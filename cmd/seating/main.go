package main

import (
	"context"
	"embed"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/appetiteclub/apt/seed"
	"github.com/jonboulle/clockwork"

	"github.com/appetiteclub/seating/internal/memory"
	"github.com/appetiteclub/seating/internal/mongo"
	"github.com/appetiteclub/seating/internal/notify"
	"github.com/appetiteclub/seating/internal/seating"
)

//go:embed seed.json
var seedFS embed.FS

const (
	appNamespace = "SEATING"
	appName      = "seating"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup with error: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	seedCtx, cancelSeeds := context.WithCancel(ctx)
	defer cancelSeeds()

	lifecycle := []interface{}{}

	repos, tracker, store, err := setupRepos(ctx, config, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup repositories: %v", appName, appVersion, err)
	}
	if store != nil {
		lifecycle = append(lifecycle, apt.LifecycleHooks{OnStop: store.Stop})
	}

	sinks, closers, err := setupSinks(ctx, config, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot setup event sinks: %v", appName, appVersion, err)
	}

	broadcaster := notify.NewBroadcaster(logger)
	sinks = append(sinks, notify.Sink{Name: "stream", Publisher: broadcaster})

	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		BufferSize:     config.GetIntOrDef("events.buffer", notify.DefaultBufferSize),
		PublishTimeout: config.GetDurationOrDef("events.timeout", notify.DefaultPublishTimeout),
	}, logger, sinks...)

	dispatcherLifecycle := apt.LifecycleHooks{
		OnStart: dispatcher.Start,
		OnStop: func(ctx context.Context) error {
			err := dispatcher.Stop(ctx)
			for _, c := range closers {
				if cerr := c.Close(); cerr != nil {
					logger.Error("cannot close event sink", "error", cerr)
				}
			}
			_ = broadcaster.Stop(ctx)
			return err
		},
	}
	lifecycle = append(lifecycle, dispatcherLifecycle)

	clock := clockwork.NewRealClock()

	engine, err := seating.NewEngine(seating.EngineDeps{
		Repos:    repos,
		Notifier: dispatcher,
		Clock:    clock,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("%s(%s) cannot create engine: %v", appName, appVersion, err)
	}

	reaper := seating.NewReaper(engine.Queue, seating.ReaperConfig{
		Interval: config.GetDurationOrDef("queue.reap.interval", defaultReapInterval),
		Timeout:  config.GetDurationOrDef("queue.reap.timeout", seating.DefaultStaleCallTimeout),
	}, clock, logger)
	lifecycle = append(lifecycle, reaper)

	handler := seating.NewHandler(engine, config, logger)
	streamHandler := notify.NewSSEHandler(broadcaster, logger)

	var seedingFunc func(ctx context.Context) error
	if config.GetBoolOrFalse("seeding.demo") {
		logger.Info("Demo seeding enabled for seating service")
		seedingFunc = seating.DemoSeedingFunc(seedCtx, engine, tracker, seedFS, logger)
	} else {
		seedingFunc = seating.SeedingFunc(seedCtx, engine.Tables, tracker, seedFS, logger)
	}

	seedHooks := apt.LifecycleHooks{
		OnStart: seedingFunc,
		OnStop:  seating.StopFunc(cancelSeeds),
	}
	lifecycle = append(lifecycle, seedHooks)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true,
		// Event stream connections stay open far longer than any request timeout.
		DisableTimeout: true,
	})
	stack = append(stack, middleware.InternalOnly())

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler, streamHandler),
		apt.WithLifecycle(lifecycle...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		if store != nil {
			_ = store.Stop(context.Background())
		}
		log.Fatalf("%s(%s) stopped with error: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}

// setupRepos builds the repositories for the configured driver. The memory
// driver keeps state only for the life of the process.
func setupRepos(ctx context.Context, config *apt.Config, logger apt.Logger) (seating.Repos, seed.Tracker, *mongo.Store, error) {
	driver := config.GetStringOrDef("db.driver", "memory")
	if driver != "mongo" {
		logger.Info("Using in-memory repositories", "driver", driver)
		repos := seating.Repos{
			TableRepo:       memory.NewTableRepo(),
			ReservationRepo: memory.NewReservationRepo(),
			QueueRepo:       memory.NewQueueRepo(),
		}
		return repos, memory.NewSeedTracker(), nil, nil
	}

	store := mongo.NewStore(config, logger)
	if err := store.Start(ctx); err != nil {
		return seating.Repos{}, nil, nil, err
	}

	db := store.GetDatabase()
	repos := seating.Repos{
		TableRepo:       mongo.NewTableRepo(db),
		ReservationRepo: mongo.NewReservationRepo(db),
		QueueRepo:       mongo.NewQueueRepo(db),
	}
	return repos, seed.NewMongoTracker(db), store, nil
}
