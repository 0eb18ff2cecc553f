// Command server runs the case resolution workflow engine: the HTTP API plus
// the notification outbox worker.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	bailgateway "casefile/internal/bail/gateway"
	bailhandler "casefile/internal/bail/handler"
	bailservice "casefile/internal/bail/service"
	bailstore "casefile/internal/bail/store"
	caseshandler "casefile/internal/cases/handler"
	casesservice "casefile/internal/cases/service"
	casesstore "casefile/internal/cases/store"
	interrogationshandler "casefile/internal/interrogations/handler"
	interrogationsservice "casefile/internal/interrogations/service"
	interrogationsstore "casefile/internal/interrogations/store"
	"casefile/internal/jwttoken"
	"casefile/internal/notify/kafka"
	"casefile/internal/notify/outbox"
	"casefile/internal/notify/worker"
	"casefile/internal/platform/config"
	"casefile/internal/platform/httpserver"
	"casefile/internal/platform/logger"
	"casefile/internal/platform/metrics"
	"casefile/internal/platform/postgres"
	"casefile/internal/platform/ratelimit"
	platformredis "casefile/internal/platform/redis"
	roleshandler "casefile/internal/roles/handler"
	rolesservice "casefile/internal/roles/service"
	rolesstore "casefile/internal/roles/store"
	submissionshandler "casefile/internal/submissions/handler"
	submissionsservice "casefile/internal/submissions/service"
	submissionsstore "casefile/internal/submissions/store"
	suspectscache "casefile/internal/suspects/cache"
	suspectshandler "casefile/internal/suspects/handler"
	suspectsservice "casefile/internal/suspects/service"
	suspectsstore "casefile/internal/suspects/store"
	tipoffshandler "casefile/internal/tipoffs/handler"
	tipoffsservice "casefile/internal/tipoffs/service"
	tipoffsstore "casefile/internal/tipoffs/store"
	httptransport "casefile/internal/transport/http"
	"casefile/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var (
		db     *sql.DB
		runner tx.Runner = tx.PassthroughRunner{}

		rolesStore         rolesservice.Store
		casesStore         casesservice.Store
		suspectsStore      suspectsservice.Store
		submissionsStore   submissionsservice.Store
		interrogationStore interrogationsservice.Store
		tipsStore          tipoffsservice.Store
		bailStore          bailservice.Store
		outboxStore        outbox.Store
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		runner = tx.SQLRunner{DB: db}

		rolesStore = rolesstore.NewPostgres(db)
		casesStore = casesstore.NewPostgres(db)
		suspectsStore = suspectsstore.NewPostgres(db)
		submissionsStore = submissionsstore.NewPostgres(db)
		interrogationStore = interrogationsstore.NewPostgres(db)
		tipsStore = tipoffsstore.NewPostgres(db)
		bailStore = bailstore.NewPostgres(db)
		outboxStore = outbox.NewPostgresStore(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		rolesStore = rolesstore.NewInMemory()
		casesStore = casesstore.NewInMemory()
		suspectsStore = suspectsstore.NewInMemory()
		submissionsStore = submissionsstore.NewInMemory()
		interrogationStore = interrogationsstore.NewInMemory()
		tipsStore = tipoffsstore.NewInMemory()
		bailStore = bailstore.NewInMemory()
		outboxStore = outbox.NewMemoryStore()
	}
	sink := outbox.NewSink(outboxStore)

	authority := rolesservice.NewAuthority(rolesStore)

	suspectOpts := []suspectsservice.Option{suspectsservice.WithMetrics(m)}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var limiter ratelimit.Limiter
	if redisClient != nil {
		defer redisClient.Close()
		cache := suspectscache.NewWantedList(redisClient, config.WantedListCacheTTL, log)
		suspectOpts = append(suspectOpts, suspectsservice.WithCache(cache))
		limiter = ratelimit.NewRedis(redisClient)
	} else {
		limiter = ratelimit.NewInMemory()
	}
	if cfg.RateLimit.PublicLimit <= 0 {
		limiter = nil
	}

	suspectsSvc := suspectsservice.New(suspectsStore, authority, casesStore, suspectOpts...)
	interrogationsSvc := interrogationsservice.New(interrogationStore, casesStore, suspectsStore, authority, sink, runner,
		interrogationsservice.WithMetrics(m))
	casesSvc := casesservice.New(casesStore, authority, sink, runner,
		casesservice.WithMetrics(m),
		casesservice.WithTrialEligibility(interrogationsSvc))
	submissionsSvc := submissionsservice.New(submissionsStore, casesStore, suspectsStore, authority, sink, runner,
		submissionsservice.WithMetrics(m))
	tipsSvc := tipoffsservice.New(tipsStore, suspectsStore, casesStore, authority, sink, runner,
		tipoffsservice.WithMetrics(m))
	paymentGateway := bailgateway.NewHTTPClient(cfg.Gateway)
	bailSvc := bailservice.New(bailStore, suspectsStore, casesStore, authority, paymentGateway, sink, runner,
		bailservice.WithMetrics(m))

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "casefile")

	suspectsHandler := suspectshandler.New(suspectsSvc, log)
	tipsHandler := tipoffshandler.New(tipsSvc, log)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Validator: tokens,
		Handlers: []httptransport.Registrar{
			roleshandler.New(authority, log),
			caseshandler.New(casesSvc, log),
			suspectsHandler,
			submissionshandler.New(submissionsSvc, log),
			interrogationshandler.New(interrogationsSvc, log),
			tipsHandler,
			bailhandler.New(bailSvc, log),
		},
		PublicHandlers: []httptransport.PublicRegistrar{
			suspectsHandler,
			tipsHandler,
		},
		PublicLimiter: limiter,
		PublicLimit:   cfg.RateLimit.PublicLimit,
		PublicWindow:  cfg.RateLimit.PublicWindow,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := kafka.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		w := worker.New(outboxStore, publisher, log, cfg.Kafka.PollInterval)
		g.Go(func() error {
			return w.Run(gctx)
		})
	} else {
		log.Warn("no kafka brokers configured, notifications stay in the outbox")
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
