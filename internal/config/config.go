package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8900"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout applied by the router

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	BaseURL          string        // externally visible root, derived from each request when empty
	ExternalAPIsFile string        // optional YAML file describing externally hosted APIs
	TokenTTL         time.Duration // lifetime of identity tokens

	SessionReapInterval time.Duration // how often expired sessions are dropped

	MailgunDomain string   // Host answered by the mailgun mock
	FeedsRegions  []string // regions the cloud feeds mock is listed in

	// Redis (optional: empty address keeps messages in memory)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	AdminCIDRS []string // optional, restrict catalog administration and infra endpoints
	TrustProxy bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SKYMOCK_LISTEN_PORT", ":8900"),
		ShutdownTimeout: mustDuration("SKYMOCK_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("SKYMOCK_REQUEST_TIMEOUT", 10*time.Second),

		// Logging
		LogLevel:  getenv("SKYMOCK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SKYMOCK_PRETTY_LOG", true),

		// Catalog
		BaseURL:          strings.TrimRight(getenv("SKYMOCK_BASE_URL", ""), "/"),
		ExternalAPIsFile: getenv("SKYMOCK_EXTERNAL_APIS_FILE", ""),
		TokenTTL:         mustDuration("SKYMOCK_TOKEN_TTL", 24*time.Hour),

		SessionReapInterval: mustDuration("SKYMOCK_SESSION_REAP_INTERVAL", 10*time.Minute),

		// Mocks
		MailgunDomain: getenv("SKYMOCK_MAILGUN_DOMAIN", "api.mailgun.net"),
		FeedsRegions:  splitAndTrim(getenv("SKYMOCK_FEEDS_REGIONS", "ORD")),

		// Redis settings
		RedisAddr:           getenv("SKYMOCK_REDIS_ADDR", ""),
		RedisUser:           getenv("SKYMOCK_REDIS_USERNAME", ""),
		RedisPassword:       getenv("SKYMOCK_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("SKYMOCK_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AdminCIDRS: parseAllowedIPs(getenv("SKYMOCK_ADMIN_CIDRS", "")),
		TrustProxy: mustBool("SKYMOCK_TRUST_PROXY", false),
	}

	if cfg.TokenTTL <= 0 {
		panic(fmt.Sprintf("❌ FATAL: SKYMOCK_TOKEN_TTL must be positive, got %s", cfg.TokenTTL))
	}
	if cfg.BaseURL != "" && !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		panic(fmt.Sprintf("❌ FATAL: SKYMOCK_BASE_URL must be an http(s) URL, got %q", cfg.BaseURL))
	}
	if len(cfg.FeedsRegions) == 0 {
		panic("❌ FATAL: SKYMOCK_FEEDS_REGIONS must list at least one region")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// RedisEnabled reports whether messages go to redis instead of process memory.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
