// Command server wires the ledger core, role authority, forensic hub, and
// upgrade manager behind the HTTP surface. Stores fall back to in-memory
// implementations when no backing service is configured, so a bare binary is
// runnable for local work.
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

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"sentinelguard/internal/authtoken"
	"sentinelguard/internal/forensic"
	"sentinelguard/internal/forensic/cooldown"
	forensicmem "sentinelguard/internal/forensic/store/memory"
	forensicpg "sentinelguard/internal/forensic/store/postgres"
	"sentinelguard/internal/ledger"
	ledgermem "sentinelguard/internal/ledger/store/memory"
	ledgerpg "sentinelguard/internal/ledger/store/postgres"
	"sentinelguard/internal/platform/config"
	"sentinelguard/internal/platform/httpserver"
	"sentinelguard/internal/platform/logger"
	"sentinelguard/internal/platform/metrics"
	platformredis "sentinelguard/internal/platform/redis"
	"sentinelguard/internal/policy"
	"sentinelguard/internal/policy/allowlist"
	"sentinelguard/internal/reputation"
	"sentinelguard/internal/roles"
	rolesmem "sentinelguard/internal/roles/store/memory"
	rolespg "sentinelguard/internal/roles/store/postgres"
	httptransport "sentinelguard/internal/transport/http"
	"sentinelguard/internal/upgrade"
	"sentinelguard/pkg/domain"
	dErrors "sentinelguard/pkg/domainerrors"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var (
		recordStore   forensic.RecordStore   = forensicmem.NewInMemoryStore()
		cooldownStore forensic.CooldownStore = cooldown.NewInMemoryStore()
		roleStore     roles.Store            = rolesmem.NewInMemoryStore()
		balanceStore  ledger.BalanceStore    = ledgermem.NewInMemoryStore()
		allowStore    allowlist.Store        = allowlist.NewInMemoryStore()
	)

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}

		forensicStore := forensicpg.New(db)
		if err := forensicStore.EnsureSchema(ctx); err != nil {
			return err
		}
		rolesStore := rolespg.New(db)
		if err := rolesStore.EnsureSchema(ctx); err != nil {
			return err
		}
		balancesStore := ledgerpg.New(db)
		if err := balancesStore.EnsureSchema(ctx); err != nil {
			return err
		}
		recordStore, roleStore, balanceStore = forensicStore, rolesStore, balancesStore
		log.Info("using postgres-backed stores")
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		cooldownStore = cooldown.NewRedisStore(redisClient.Client, cfg.CooldownWindow)
		allowStore = allowlist.NewRedisStore(redisClient.Client)
		log.Info("using redis-backed cooldown and allowlist stores")
	}

	hub, err := forensic.New(recordStore, cooldownStore,
		forensic.WithCooldownWindow(cfg.CooldownWindow),
		forensic.WithLogger(log))
	if err != nil {
		return err
	}

	roleSvc, err := roles.New(roleStore,
		roles.WithRecorder(hub),
		roles.WithLogger(log))
	if err != nil {
		return err
	}
	if cfg.BootstrapAdmin != "" {
		err := roleSvc.Seed(ctx, domain.Address(cfg.BootstrapAdmin))
		switch {
		case err == nil:
			log.Info("bootstrap admin seeded", slog.String("account", cfg.BootstrapAdmin))
		case dErrors.Is(err, dErrors.CodeUnauthorized):
			log.Info("role table already seeded, skipping bootstrap admin")
		default:
			return err
		}
	}

	block := ledger.NewRegistry().Attach(cfg.StorageNamespace)
	if block.SupplyCap().IsZero() {
		cap, err := domain.ParseAmount(cfg.SupplyCap)
		if err != nil {
			return err
		}
		block.SetSupplyCap(cap)
	}

	var notifier ledger.TransferNotifier = reputation.NopNotifier{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier, err := reputation.NewKafka(ctx, cfg.KafkaBrokers,
			reputation.WithLogger(log))
		if err != nil {
			return err
		}
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
		log.Info("reputation notifier connected", slog.Any("brokers", cfg.KafkaBrokers))
	}

	ledgerSvc, err := ledger.New(block, balanceStore, roleSvc,
		ledger.WithRecorder(hub),
		ledger.WithMetrics(m),
		ledger.WithNotifier(notifier),
		ledger.WithLogger(log))
	if err != nil {
		return err
	}
	// The storage block is rebuilt on every start while balances may persist;
	// re-prime the tracked supply from the store before serving.
	if err := ledgerSvc.RestoreSupply(ctx); err != nil {
		return err
	}
	if err := ledgerSvc.VerifySupply(ctx); err != nil {
		return err
	}
	log.Info("total supply restored", slog.Any("supply", ledgerSvc.TotalSupply()))

	upgradeOpts := []upgrade.Option{
		upgrade.WithRecorder(hub),
		upgrade.WithLogger(log),
	}
	var approvals *upgrade.MultiApprovalAuthorizer
	if len(cfg.UpgradeApprovers) > 0 {
		approvers := make([]domain.Address, 0, len(cfg.UpgradeApprovers))
		for _, a := range cfg.UpgradeApprovers {
			approvers = append(approvers, domain.Address(a))
		}
		approvals, err = upgrade.NewMultiApproval(block, approvers, cfg.UpgradeThreshold)
		if err != nil {
			return err
		}
		upgradeOpts = append(upgradeOpts, upgrade.WithAuthorizer(approvals, "multi-approval"))
	}
	upgrades, err := upgrade.New(block, roleSvc, domain.Address(cfg.InitialLogic), upgradeOpts...)
	if err != nil {
		return err
	}

	allowPolicy, err := allowlist.New(allowStore)
	if err != nil {
		return err
	}

	tokens := authtoken.NewJWTService(cfg.JWTSigningKey, "sentinelguard", "sentinelguard-api")
	handlerOpts := []httptransport.Option{
		httptransport.WithLogger(log),
		httptransport.WithApprovals(approvals),
		httptransport.WithPolicies(map[string]policy.TransferPolicy{
			"allowlist": allowPolicy,
		}),
	}
	if cfg.TokenSecretHash != "" {
		handlerOpts = append(handlerOpts,
			httptransport.WithTokenIssuing(tokens, cfg.TokenSecretHash, cfg.TokenTTL))
	}
	handler := httptransport.NewHandler(ledgerSvc, roleSvc, hub, upgrades, tokens, handlerOpts...)

	srv := httpserver.New(cfg.Addr, handler.Router())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting sentinelguard", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
