package config

const (
	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvWebhookURL  = "WEBHOOK_URL"
	EnvWaitlistURL = "WAITLIST_URL"
	EnvFacilities  = "FACILITIES"

	EnvStatusTypingDelay     = "STATUS_TYPING_DELAY"
	EnvStatusAlmostDoneDelay = "STATUS_ALMOST_DONE_DELAY"
	EnvQuickActionFlash      = "QUICK_ACTION_FLASH"
	EnvQuickActionDelay      = "QUICK_ACTION_DELAY"

	EnvSessionTTL             = "SESSION_TTL"
	EnvSessionCleanupInterval = "SESSION_CLEANUP_INTERVAL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvKafkaBrokers = "KAFKA_BROKERS"
	EnvKafkaTopic   = "KAFKA_TOPIC"
)
