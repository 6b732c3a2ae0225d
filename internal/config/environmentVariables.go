package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5
	RateLimiterEnabled          = false //kept off like upstream; flip when exposed publicly

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":8000"

	//job requests buffer limit
	BufferLimit = 100

	//max accepted upload / download size
	MaxDocumentBytes = 50 << 20 //50mb

	//remote document download
	FetchTimeout      = 120 * time.Second
	FetchMaxRedirects = 5

	//webhook delivery - exactly one attempt, no retries
	WebhookTimeout = 30 * time.Second

	//extraction heuristics - behavioral contracts, do not tune
	ModeSamplePages   = 5
	TextualPageChars  = 50
	PageExtractGuard  = 10 * time.Second
	MinNameLength     = 3

	//OCR defaults
	DefaultOCRLanguage = "por"
	DefaultOCRDPI      = 150

	//http client pooling
	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	RedisJobStore = 0

	RedisJobStoreTTL = 24 * time.Hour

	//consulta browser timeouts
	BrowserNavTimeout    = 45 * time.Second
	BrowserActionTimeout = 30 * time.Second
)

// read once at process start; the core receives these as parameters
var (
	ProxyServer   = os.Getenv("PROXY_SERVER")
	ProxyUsername = os.Getenv("PROXY_USERNAME")
	ProxyPassword = os.Getenv("PROXY_PASSWORD")

	OCRLanguage = envString("OCR_LANG", DefaultOCRLanguage)
	OCRDPI      = envInt("OCR_DPI", DefaultOCRDPI)

	AuthToken    = os.Getenv("AUTH_TOKEN")
	NoAuthBypass = AuthToken == "" //no token configured = open instance

	RedisPassword = os.Getenv("REDIS_PASSWORD")
)

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
