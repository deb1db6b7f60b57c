package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 60 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// External call timeouts
const (
	CaptchaVerifyTimeout = 10 * time.Second
	EmailSendTimeout     = 15 * time.Second
)

// Rate limit policies for the public endpoints
const (
	SubmitRequestLimit  = 3
	SubmitRequestWindow = 24 * time.Hour

	ValidateCodeLimit  = 5
	ValidateCodeWindow = 15 * time.Minute

	LoginLimit  = 5
	LoginWindow = time.Minute
)
