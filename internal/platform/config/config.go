package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. Stores fall back to in-memory
// implementations when the corresponding URL is unset, so a bare binary is
// runnable for local work.
type Server struct {
	Addr          string
	JWTSigningKey string

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string

	// StorageNamespace selects the namespaced storage slot the core attaches
	// to. Changing it between versions is a deployment defect, not a runtime
	// toggle.
	StorageNamespace string

	// BootstrapAdmin is granted the admin role on first start when the role
	// table is empty.
	BootstrapAdmin string

	SupplyCap      string
	CooldownWindow time.Duration

	// TokenSecretHash is the bcrypt hash of the token-issuing secret. The
	// token endpoint stays disabled while it is unset.
	TokenSecretHash string
	TokenTTL        time.Duration

	// UpgradeApprovers and UpgradeThreshold configure the multi-approval
	// upgrade authorizer. With no approvers configured, upgrades stay
	// fail-closed: every execute attempt is denied.
	UpgradeApprovers []string
	UpgradeThreshold int
	InitialLogic     string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:             envOr("SENTINEL_ADDR", ":8080"),
		JWTSigningKey:    envOr("SENTINEL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		DatabaseURL:      os.Getenv("SENTINEL_DATABASE_URL"),
		RedisURL:         os.Getenv("SENTINEL_REDIS_URL"),
		StorageNamespace: envOr("SENTINEL_STORAGE_NAMESPACE", "sentinelguard.storage.core.v1"),
		BootstrapAdmin:   os.Getenv("SENTINEL_BOOTSTRAP_ADMIN"),
		SupplyCap:        envOr("SENTINEL_SUPPLY_CAP", "1000000000"),
		CooldownWindow:   time.Minute,
		TokenSecretHash:  os.Getenv("SENTINEL_TOKEN_SECRET_HASH"),
		TokenTTL:         time.Hour,
		UpgradeThreshold: 2,
		InitialLogic:     envOr("SENTINEL_INITIAL_LOGIC", "sentinelguard-core-v1"),
	}

	if brokers := os.Getenv("SENTINEL_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if approvers := os.Getenv("SENTINEL_UPGRADE_APPROVERS"); approvers != "" {
		cfg.UpgradeApprovers = strings.Split(approvers, ",")
	}
	if threshold := os.Getenv("SENTINEL_UPGRADE_THRESHOLD"); threshold != "" {
		if n, err := strconv.Atoi(threshold); err == nil && n > 0 {
			cfg.UpgradeThreshold = n
		}
	}
	if window := os.Getenv("SENTINEL_COOLDOWN_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil && d > 0 {
			cfg.CooldownWindow = d
		}
	}
	if ttl := os.Getenv("SENTINEL_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			cfg.TokenTTL = d
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
