// Command server wires the banking core behind its HTTP surface: postgres
// (or in-memory) persistence, redis (or in-memory) sessions, the audit
// ledger with optional Kafka fan-out, and graceful shutdown. Business logic
// lives in the internal service packages.
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

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"corebank/internal/audit"
	auditstore "corebank/internal/audit/store"
	"corebank/internal/identity/lockout"
	"corebank/internal/identity/password"
	identityservice "corebank/internal/identity/service"
	"corebank/internal/identity/session"
	identitystore "corebank/internal/identity/store"
	"corebank/internal/identity/token"
	"corebank/internal/notify"
	"corebank/internal/platform/config"
	"corebank/internal/platform/httpserver"
	"corebank/internal/platform/logger"
	"corebank/internal/platform/metrics"
	platformredis "corebank/internal/platform/redis"
	"corebank/internal/provisioning/credential"
	provisioningservice "corebank/internal/provisioning/service"
	provisioningstore "corebank/internal/provisioning/store"
	httptransport "corebank/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence. Without a DSN everything runs in memory, which is enough
	// for local development and the test suite.
	var (
		staffStore    identitystore.StaffStore
		adminStore    identitystore.AdminStore
		auditStore    audit.Store
		workflowStore provisioningstore.Store
		lockoutStore  lockout.Store
		db            *sql.DB
		pool          *pgxpool.Pool
	)
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		pool, err = pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		staffStore = identitystore.NewPostgresStaffStore(db)
		adminStore = identitystore.NewPostgresAdminStore(db)
		auditStore = auditstore.NewPostgresStore(db)
		workflowStore = provisioningstore.NewPostgresStore(pool)
		lockoutStore = lockout.NewPostgresStore(db)
		log.Info("using postgres persistence")
	} else {
		staffStore = identitystore.NewInMemoryStaffStore()
		adminStore = identitystore.NewInMemoryAdminStore()
		auditStore = auditstore.NewInMemoryStore()
		workflowStore = provisioningstore.NewInMemoryStore()
		lockoutStore = lockout.NewInMemoryStore()
		log.Warn("no postgres DSN configured, using in-memory persistence")
	}

	// Sessions: redis when configured, otherwise process-local.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var sessionStore session.Store
	if redisClient != nil {
		defer redisClient.Close()
		sessionStore = session.NewRedisStore(redisClient.Client)
		log.Info("using redis session store")
	} else {
		sessionStore = session.NewInMemoryStore()
	}
	sessions := session.NewManager(sessionStore, cfg.SessionTimeout,
		session.WithLogger(log), session.WithMetrics(m))

	// Audit ledger, with Kafka fan-out when brokers are configured.
	recorderOpts := []audit.Option{audit.WithLogger(log), audit.WithMetrics(m)}
	var publisher *audit.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err = audit.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		recorderOpts = append(recorderOpts, audit.WithOutbox(256))
		log.Info("audit fan-out enabled", "topic", cfg.Kafka.AuditTopic)
	}
	recorder := audit.NewRecorder(auditStore, recorderOpts...)

	tokens := token.NewJWTService(cfg.JWTSigningKey, "corebank")
	hasher := password.NewBcryptHasher()
	identity := identityservice.New(staffStore, adminStore, sessions, tokens, hasher, cfg.SessionTimeout,
		identityservice.WithLogger(log),
		identityservice.WithMetrics(m),
		identityservice.WithLedger(recorder),
		identityservice.WithLockout(lockout.NewGuard(lockoutStore, lockout.DefaultPolicy())),
	)

	creds, err := credential.New(cfg.CredentialPrefix, nil)
	if err != nil {
		return err
	}
	workflow := provisioningservice.New(workflowStore, creds,
		provisioningservice.WithLogger(log),
		provisioningservice.WithMetrics(m),
		provisioningservice.WithLedger(recorder),
		provisioningservice.WithNotifier(notify.NewLogNotifier(log)),
	)

	if err := seedSuperAdmin(ctx, cfg.SeedAdmin, adminStore, hasher, log); err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Identity:      identity,
		IdentityAdmin: identity,
		Workflow:      workflow,
		Ledger:        recorder,
		Tokens:        tokens,
		Logger:        log,
		Health: func() error {
			if db != nil {
				if err := db.Ping(); err != nil {
					return err
				}
			}
			if redisClient != nil {
				return redisClient.Health(context.Background())
			}
			return nil
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting corebank server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if publisher != nil {
		worker := audit.NewWorker(publisher, recorder.Outbox(), log)
		group.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
