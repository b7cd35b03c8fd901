package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"storagechat/pkg/logger"
)

type Config struct {
	Port string

	WebhookURL  string
	WaitlistURL string
	Facilities  []string

	StatusTypingDelay     time.Duration
	StatusAlmostDoneDelay time.Duration
	QuickActionFlash      time.Duration
	QuickActionDelay      time.Duration

	SessionTTL             time.Duration
	SessionCleanupInterval time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	MaxRequestSize int
	IdempotencyTTL time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	Log *logger.Logger
}

func Load(serviceName string) *Config {
	cfg := &Config{
		Port: getEnvStr(EnvPort, DefaultPort),

		WebhookURL:  getEnvStr(EnvWebhookURL, ""),
		WaitlistURL: getEnvStr(EnvWaitlistURL, DefaultWaitlistURL),
		Facilities:  getEnvList(EnvFacilities, DefaultFacilities),

		StatusTypingDelay:     getEnvDuration(EnvStatusTypingDelay, DefaultStatusTypingDelay),
		StatusAlmostDoneDelay: getEnvDuration(EnvStatusAlmostDoneDelay, DefaultStatusAlmostDoneDelay),
		QuickActionFlash:      getEnvDuration(EnvQuickActionFlash, DefaultQuickActionFlash),
		QuickActionDelay:      getEnvDuration(EnvQuickActionDelay, DefaultQuickActionDelay),

		SessionTTL:             getEnvDuration(EnvSessionTTL, DefaultSessionTTL),
		SessionCleanupInterval: getEnvDuration(EnvSessionCleanupInterval, DefaultSessionCleanupInterval),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		KafkaBrokers: getEnvList(EnvKafkaBrokers, ""),
		KafkaTopic:   getEnvStr(EnvKafkaTopic, DefaultKafkaTopic),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.WebhookURL == "" {
		errors = append(errors, "WebhookURL cannot be empty")
	} else if !isHTTPURL(cfg.WebhookURL) {
		errors = append(errors, fmt.Sprintf("WebhookURL must be an absolute http(s) URL, got: %s", redactURL(cfg.WebhookURL)))
	}
	if cfg.WaitlistURL != "" && !isHTTPURL(cfg.WaitlistURL) {
		errors = append(errors, fmt.Sprintf("WaitlistURL must be an absolute http(s) URL, got: %s", cfg.WaitlistURL))
	}
	if len(cfg.Facilities) == 0 {
		errors = append(errors, "Facilities must list at least one facility")
	}

	if cfg.StatusTypingDelay <= 0 {
		errors = append(errors, fmt.Sprintf("StatusTypingDelay must be positive, got: %s", cfg.StatusTypingDelay))
	}
	if cfg.StatusAlmostDoneDelay <= 0 {
		errors = append(errors, fmt.Sprintf("StatusAlmostDoneDelay must be positive, got: %s", cfg.StatusAlmostDoneDelay))
	}
	if cfg.QuickActionFlash <= 0 {
		errors = append(errors, fmt.Sprintf("QuickActionFlash must be positive, got: %s", cfg.QuickActionFlash))
	}
	if cfg.QuickActionDelay < 0 {
		errors = append(errors, fmt.Sprintf("QuickActionDelay cannot be negative, got: %s", cfg.QuickActionDelay))
	}

	if cfg.SessionTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SessionTTL must be positive, got: %s", cfg.SessionTTL))
	}
	if cfg.SessionCleanupInterval <= 0 {
		errors = append(errors, fmt.Sprintf("SessionCleanupInterval must be positive, got: %s", cfg.SessionCleanupInterval))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout < 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout cannot be negative, got: %s", cfg.RequestTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}

	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		errors = append(errors, "KafkaTopic cannot be empty when KafkaBrokers is set")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"webhook_url", redactURL(cfg.WebhookURL),
		"waitlist_url", cfg.WaitlistURL,
		"facilities", cfg.Facilities,
		"status_typing_delay", cfg.StatusTypingDelay,
		"status_almost_done_delay", cfg.StatusAlmostDoneDelay,
		"quick_action_flash", cfg.QuickActionFlash,
		"quick_action_delay", cfg.QuickActionDelay,
		"session_ttl", cfg.SessionTTL,
		"session_cleanup_interval", cfg.SessionCleanupInterval,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"kafka_enabled", len(cfg.KafkaBrokers) > 0,
		"kafka_topic", cfg.KafkaTopic,
	)
}

// redactURL keeps scheme and host; webhook paths embed the automation's secret id.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	if u.Path == "" || u.Path == "/" {
		return u.Scheme + "://" + u.Host
	}
	return u.Scheme + "://" + u.Host + "/***"
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnvStr(key, fallback)
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
