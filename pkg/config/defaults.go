package config

import "time"

const (
	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultWaitlistURL = "https://forms.office.com/r/FBLuyQjwgG"
	DefaultFacilities  = "Deegan Marine,45 Fieldings Way,780 South Road"

	DefaultStatusTypingDelay     = 2000 * time.Millisecond
	DefaultStatusAlmostDoneDelay = 3000 * time.Millisecond
	DefaultQuickActionFlash      = 1500 * time.Millisecond
	DefaultQuickActionDelay      = 1500 * time.Millisecond

	DefaultSessionTTL             = 2 * time.Hour
	DefaultSessionCleanupInterval = 5 * time.Minute

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	// Zero disables the per-request deadline; webhook calls finish on the transport's own signal.
	DefaultRequestTimeout = 0
	DefaultMaxRequestSize = 64 * 1024
	DefaultIdempotencyTTL = 10 * time.Minute

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 5 * time.Minute
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultKafkaTopic = "storagechat.events"
)
