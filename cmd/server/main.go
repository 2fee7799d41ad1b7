package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"kesher/internal/connection"
	connectionhandler "kesher/internal/connection/handler"
	"kesher/internal/identity"
	"kesher/internal/notification"
	"kesher/internal/platform/config"
	"kesher/internal/platform/httpserver"
	"kesher/internal/platform/logger"
	"kesher/internal/platform/metrics"
	"kesher/internal/platform/postgres"
	platformredis "kesher/internal/platform/redis"
	"kesher/internal/profileedit"
	profileedithandler "kesher/internal/profileedit/handler"
	"kesher/internal/shadchan"
	shadchanhandler "kesher/internal/shadchan/handler"
	"kesher/internal/suppression"
	suppressionhandler "kesher/internal/suppression/handler"
	httptransport "kesher/internal/transport/http"
	"kesher/internal/user"
	"kesher/internal/visibility"
	visibilityhandler "kesher/internal/visibility/handler"
	"kesher/pkg/platform/tx"
)

type stores struct {
	users        user.Store
	connections  connection.Store
	visibility   visibility.Store
	profileEdits profileedit.Store
	suppressions suppression.Store
}

// main wires dependencies and keeps the lifecycle small. Business logic lives
// in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	st := buildStores(db)
	if db == nil {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	} else {
		defer db.Close()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var visCache visibility.Cache = visibility.NoopCache{}
	if redisClient != nil {
		visCache = visibility.NewRedisCache(redisClient, log)
		defer redisClient.Close()
	}

	publisher := notification.NewPublisher(log, m)
	dispatcher, closeDispatcher, err := buildDispatcher(ctx, cfg, log)
	if err != nil {
		log.Error("kafka connection failed", "error", err)
		os.Exit(1)
	}
	defer closeDispatcher()
	worker := notification.NewWorker(dispatcher, publisher.Events(), log)

	connectionSvc := connection.NewService(st.connections, st.users, publisher, m, log)
	visibilitySvc := visibility.NewService(st.visibility, visCache, st.users, publisher, m, log)
	profileEditSvc := profileedit.NewService(st.profileEdits, st.users, buildTxRunner(db), publisher, m, log)
	suppressionSvc := suppression.NewService(st.suppressions, log)
	shadchanSvc := shadchan.NewService(st.connections, st.users, m, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Connections:  connectionhandler.New(connectionSvc, log),
		Visibility:   visibilityhandler.New(visibilitySvc, log),
		ProfileEdits: profileedithandler.New(profileEditSvc, log),
		Suppressions: suppressionhandler.New(suppressionSvc, log),
		Shadchan:     shadchanhandler.New(shadchanSvc, log),

		JWTValidator:      identity.NewJWTService(cfg.JWTSigningKey),
		ShadchanTokenHash: cfg.ShadchanTokenHash,
		Logger:            log,
		Metrics:           m,
		Health: func() error {
			if db != nil {
				return db.Ping()
			}
			return nil
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting kesher", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := worker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func buildStores(db *sql.DB) stores {
	if db == nil {
		return stores{
			users:        user.NewInMemoryStore(),
			connections:  connection.NewInMemoryStore(),
			visibility:   visibility.NewInMemoryStore(),
			profileEdits: profileedit.NewInMemoryStore(),
			suppressions: suppression.NewInMemoryStore(),
		}
	}
	return stores{
		users:        user.NewPostgres(db),
		connections:  connection.NewPostgres(db),
		visibility:   visibility.NewPostgres(db),
		profileEdits: profileedit.NewPostgres(db),
		suppressions: suppression.NewPostgres(db),
	}
}

func buildTxRunner(db *sql.DB) tx.Runner {
	if db == nil {
		return tx.Passthrough{}
	}
	return tx.SQL{DB: db}
}

func buildDispatcher(ctx context.Context, cfg config.Server, log *slog.Logger) (notification.Dispatcher, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return notification.LogDispatcher{Logger: log}, func() {}, nil
	}
	kafka, err := notification.NewKafkaDispatcher(ctx, cfg.Kafka, log)
	if err != nil {
		return nil, nil, err
	}
	return kafka, kafka.Close, nil
}
