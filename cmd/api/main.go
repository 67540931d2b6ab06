package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-coffee-orders/internal/admin"
	"github.com/ariefcatur/go-coffee-orders/internal/config"
	"github.com/ariefcatur/go-coffee-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-coffee-orders/internal/kafka"
	"github.com/ariefcatur/go-coffee-orders/internal/logx"
	"github.com/ariefcatur/go-coffee-orders/internal/notify"
	"github.com/ariefcatur/go-coffee-orders/internal/postgres"
	"github.com/ariefcatur/go-coffee-orders/internal/redisx"
	"github.com/ariefcatur/go-coffee-orders/internal/shop"
	"github.com/ariefcatur/go-coffee-orders/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logx.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("api exited", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	bus := shop.NewBus()
	var (
		producers []*kafkax.Producer
		inbox     httpx.Inbox
	)
	if len(cfg.KafkaBrokers) > 0 {
		// producers outlive ctx so queued events are flushed after the signal
		pPlaced := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderPlaced, 1024, log)
		pStatus := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderStatusChanged, 1024, log)
		for _, p := range []*kafkax.Producer{pPlaced, pStatus} {
			p.Start(context.Background())
			producers = append(producers, p)
		}
		bus.Subscribe(kafkax.NewPublisher(pPlaced, pStatus, cfg.ServiceName, log))
		log.Info("kafka publishing enabled", zap.Strings("brokers", cfg.KafkaBrokers))

		// the notifier delivers into redis; the api only reads inboxes back
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		inbox = &notify.Service{Redis: rdb, ServiceName: cfg.ServiceName, Log: log}
	}

	repo := shop.NewRepo(store)
	catalog := shop.DefaultCatalog()
	engine := shop.NewEngine(catalog, shop.DefaultRewards(), repo, log, shop.WithBus(bus))
	adminSvc := admin.NewService(repo, catalog, bus, log)

	router := httpx.NewRouter(log, cfg.CORSOrigins...)
	(&httpx.ShopHandler{
		Engine:   engine,
		Sessions: httpx.NewSessions(engine, cfg.SessionIdleTTL),
		Limiter:  httpx.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		Inbox:    inbox,
	}).Register(router)
	(&httpx.AdminHandler{Admin: adminSvc}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	err = g.Wait()

	for _, p := range producers {
		p.Close()
	}
	for _, p := range producers {
		p.WaitClosed()
	}
	return err
}

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (storage.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return storage.NewMemory(), func() {}, nil
	case config.BackendRedis:
		rdb := redisx.New(cfg.RedisAddr)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		log.Info("redis store ready", zap.String("addr", cfg.RedisAddr))
		return redisx.NewStore(rdb, cfg.TabSessionTTL), func() { _ = rdb.Close() }, nil
	case config.BackendPostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.ServiceName)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		s := postgres.NewStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("postgres store ready")
		return s, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
