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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"conveyo/internal/audit"
	auditmemory "conveyo/internal/audit/store/memory"
	auditpostgres "conveyo/internal/audit/store/postgres"
	"conveyo/internal/compliance"
	compliancehandler "conveyo/internal/compliance/handler"
	"conveyo/internal/escrow"
	escrowhandler "conveyo/internal/escrow/handler"
	escrowmetrics "conveyo/internal/escrow/metrics"
	escrowservice "conveyo/internal/escrow/service"
	"conveyo/internal/legal"
	legalhandler "conveyo/internal/legal/handler"
	legalmetrics "conveyo/internal/legal/metrics"
	legalservice "conveyo/internal/legal/service"
	"conveyo/internal/notify"
	"conveyo/internal/platform/config"
	"conveyo/internal/platform/httpserver"
	"conveyo/internal/platform/kafka"
	"conveyo/internal/platform/logger"
	"conveyo/internal/platform/postgres"
	platformredis "conveyo/internal/platform/redis"
	"conveyo/internal/platform/token"
	taxhandler "conveyo/internal/tax/handler"
	id "conveyo/pkg/domain"
	"conveyo/pkg/platform/lock"
	"conveyo/pkg/platform/sentinel"
)

// main wires storage, messaging, and the domain services, then runs the HTTP
// server, the expiry sweeper, and the audit relay until shutdown.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. Empty DSN selects the in-memory stores.
	var (
		legalStore      legal.Store
		escrowStore     escrow.Store
		auditStore      audit.Store
		complianceStore compliance.Store
		outbox          audit.OutboxSource
		db              *sql.DB
	)
	if cfg.Postgres.DSN != "" {
		var err error
		db, err = postgres.Open(cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		pool, err := postgres.OpenPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		legalStore = legal.NewPostgresStore(db)
		escrowStore = escrow.NewPostgresStore(pool)
		complianceStore = compliance.NewPostgresStore(db)
		pgAudit := auditpostgres.New(db)
		auditStore = pgAudit
		outbox = pgAudit
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		legalStore = legal.NewInMemoryStore()
		escrowStore = escrow.NewInMemoryStore()
		complianceStore = compliance.NewInMemoryStore()
		auditStore = auditmemory.NewInMemoryStore()
	}
	auditor := audit.NewPublisher(auditStore)

	// Reservation serialization. Redis when configured, otherwise the
	// in-process sharded guard (single-instance deployments only).
	var guard lock.Guard
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		guard = lock.NewRedis(redisClient.Client, cfg.Legal.CommandTimeout)
		log.Info("using redis reservation guard")
	} else {
		guard = lock.NewSharded(cfg.Legal.CommandTimeout)
	}

	// Messaging. Without brokers notifications go to the log and the audit
	// outbox simply accumulates until a relay drains it.
	producer, err := kafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	var router notify.Router = notify.NewLogRouter(log)
	if producer != nil {
		defer producer.Close()
		router = notify.NewKafkaRouter(producer, cfg.Kafka.NotificationTopic)
	}

	ledger := escrowservice.NewLedger(
		escrowStore,
		boundGuard{store: legalStore},
		guard,
		auditor,
		log,
		escrowmetrics.New(),
	)
	legalSvc := legalservice.New(
		legalStore,
		complianceStore,
		ledger,
		auditor,
		router,
		guard,
		log,
		legalmetrics.New(),
		legalservice.Config{ReservationTTL: cfg.Legal.ReservationTTL},
	)

	jwtValidator := token.NewValidator(cfg.Server.JWTSigningKey)

	r := chi.NewRouter()
	legalhandler.New(legalSvc, log, jwtValidator).Register(r)
	escrowhandler.New(ledger, legalSvc, log, jwtValidator).Register(r)
	taxhandler.New(log, jwtValidator).Register(r)
	compliancehandler.New(complianceStore, log, jwtValidator).Register(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Server.Addr, r)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting conveyo", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Legal.ReservationTTL > 0 {
		group.Go(func() error {
			return runSweeper(ctx, legalSvc, cfg.Legal.SweepInterval, log)
		})
	}
	if outbox != nil && producer != nil {
		relay := audit.NewRelay(outbox, producer, cfg.Kafka.AuditTopic, time.Second, log)
		group.Go(func() error {
			if err := relay.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runSweeper cancels reservations that sat unsigned past their TTL.
func runSweeper(ctx context.Context, svc *legalservice.Service, interval time.Duration, log *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			swept, err := svc.SweepExpired(ctx)
			if err != nil {
				log.Warn("expiry sweep failed", "error", err)
				continue
			}
			if swept > 0 {
				log.Info("expired reservations cancelled", "count", swept)
			}
		}
	}
}

// boundGuard answers the escrow ledger's release guard straight from the
// reservation store, keeping construction order free of cycles.
type boundGuard struct {
	store legal.Store
}

func (g boundGuard) IsLegallyBound(ctx context.Context, reservationID id.ReservationID) (bool, error) {
	reservation, err := g.store.Load(ctx, reservationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return reservation.Status.AtLeast(legal.StatusLegallyBound), nil
}
