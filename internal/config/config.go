package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultMetricsAddr = ":9090"

	defaultCheckRunConcurrency = 50
	defaultCheckRunMaxAttempts = 3
	defaultCheckRunBackoffBase = time.Second
	defaultCheckRunBackoffMax  = 30 * time.Second
	defaultCheckRunMaxDuration = 15 * time.Minute

	defaultEmployeeSyncSchedule    = "0 7 * * *"
	defaultEmployeeSyncMaxDuration = 30 * time.Minute
	defaultTaskReviewSchedule      = "0 */12 * * *"

	defaultPolicyMigrationOrgBatch    = 20
	defaultPolicyMigrationPolicyBatch = 50
	defaultPolicyMigrationTxTimeout   = 30 * time.Second

	defaultVaultMount = "secret"
)

const (
	CredentialsSourceAPI   = "api"
	CredentialsSourceVault = "vault"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string
	MetricsAddr string

	InternalAPIURL   string
	InternalAPIToken string
	RedisURL         string
	// WorkerID names this worker's reserved-jobs list in Redis. It must be
	// stable across restarts; defaults to the hostname.
	WorkerID string

	CheckRunConcurrency int
	CheckRunMaxAttempts int
	CheckRunBackoffBase time.Duration
	CheckRunBackoffMax  time.Duration
	CheckRunMaxDuration time.Duration

	EmployeeSyncSchedule    string
	EmployeeSyncMaxDuration time.Duration
	TaskReviewSchedule      string

	PolicyMigrationOrgBatch    int
	PolicyMigrationPolicyBatch int
	PolicyMigrationTxTimeout   time.Duration

	CredentialsSource string
	VaultAddr         string
	VaultToken        string
	VaultNamespace    string
	VaultMount        string
}

type LoadOptions struct {
	RequireDatabaseURL bool
}

func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: true})
}

func LoadOptionalDB() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPAddr:    getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr: getenvDefault("METRICS_ADDR", defaultMetricsAddr),

		InternalAPIURL:   strings.TrimRight(strings.TrimSpace(os.Getenv("INTERNAL_API_URL")), "/"),
		InternalAPIToken: strings.TrimSpace(os.Getenv("INTERNAL_API_TOKEN")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		WorkerID:         strings.TrimSpace(os.Getenv("WORKER_ID")),

		CheckRunConcurrency: getenvIntDefault("CHECK_RUN_CONCURRENCY", defaultCheckRunConcurrency),
		CheckRunMaxAttempts: getenvIntDefault("CHECK_RUN_MAX_ATTEMPTS", defaultCheckRunMaxAttempts),
		CheckRunBackoffBase: getenvDurationDefault("CHECK_RUN_BACKOFF_BASE", defaultCheckRunBackoffBase),
		CheckRunBackoffMax:  getenvDurationDefault("CHECK_RUN_BACKOFF_MAX", defaultCheckRunBackoffMax),
		CheckRunMaxDuration: getenvDurationDefault("CHECK_RUN_MAX_DURATION", defaultCheckRunMaxDuration),

		EmployeeSyncSchedule:    getenvDefault("EMPLOYEE_SYNC_SCHEDULE", defaultEmployeeSyncSchedule),
		EmployeeSyncMaxDuration: getenvDurationDefault("EMPLOYEE_SYNC_MAX_DURATION", defaultEmployeeSyncMaxDuration),
		TaskReviewSchedule:      getenvDefault("TASK_REVIEW_SCHEDULE", defaultTaskReviewSchedule),

		PolicyMigrationOrgBatch:    getenvIntDefault("POLICY_MIGRATION_ORG_BATCH", defaultPolicyMigrationOrgBatch),
		PolicyMigrationPolicyBatch: getenvIntDefault("POLICY_MIGRATION_POLICY_BATCH", defaultPolicyMigrationPolicyBatch),
		PolicyMigrationTxTimeout:   getenvDurationDefault("POLICY_MIGRATION_TX_TIMEOUT", defaultPolicyMigrationTxTimeout),

		CredentialsSource: strings.ToLower(strings.TrimSpace(getenvDefault("CREDENTIALS_SOURCE", CredentialsSourceAPI))),
		VaultAddr:         strings.TrimSpace(os.Getenv("VAULT_ADDR")),
		VaultToken:        strings.TrimSpace(os.Getenv("VAULT_TOKEN")),
		VaultNamespace:    strings.TrimSpace(os.Getenv("VAULT_NAMESPACE")),
		VaultMount:        getenvDefault("VAULT_MOUNT", defaultVaultMount),
	}

	if cfg.WorkerID == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.WorkerID = host
		}
	}

	if cfg.CheckRunBackoffMax < cfg.CheckRunBackoffBase {
		cfg.CheckRunBackoffMax = cfg.CheckRunBackoffBase
	}

	switch cfg.CredentialsSource {
	case CredentialsSourceAPI, CredentialsSourceVault:
	default:
		return cfg, errors.New("CREDENTIALS_SOURCE must be one of: api, vault")
	}

	if opts.RequireDatabaseURL && cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
