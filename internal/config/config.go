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
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Deployments
	AppSpecFile             string        // manifest file name inside the archive dir (default: appspec.yml)
	CheckInterval           time.Duration // default health check interval (default: 10s)
	CheckTimeout            time.Duration // default health check timeout (default: 5s)
	RegistrationConcurrency int           // max parallel check submissions (default: 4)
	QueueSize               int           // pending deployment requests (default: 1)
	SyncInterval            time.Duration // interval to refresh the local service list (default: 1m)

	// Consul
	ConsulAddr           string        // ex: "127.0.0.1:8500"
	ConsulScheme         string        // "http" | "https"
	ConsulToken          string        // optional ACL token
	ConsulDatacenter     string        // optional
	ConsulConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	ConsulRetryInterval  time.Duration // Initial wait between retries (ex: 2s)
	ConsulMaxWait        time.Duration // max wait between retries (ex: 10s)
	ConsulPingTimeout    time.Duration // timeout for each leader query (ex: 5s)

	// Redis (optional deployment journal, empty address disables it)
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
	RetryWarnThreshold  int           // warn after this many attempts (consul and redis)

	AllowedCIDRS []string // optional, restrict access to the control API (e.g. "127.0.0.1, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("AGENT_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("AGENT_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("AGENT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("AGENT_PRETTY_LOG", false),

		// Deployments
		AppSpecFile:             getenv("AGENT_APPSPEC_FILE", "appspec.yml"),
		CheckInterval:           mustDuration("AGENT_CHECK_INTERVAL", 10*time.Second),
		CheckTimeout:            mustDuration("AGENT_CHECK_TIMEOUT", 5*time.Second),
		RegistrationConcurrency: getenvInt("AGENT_REGISTRATION_CONCURRENCY", 4),
		QueueSize:               getenvInt("AGENT_QUEUE_SIZE", 1),
		SyncInterval:            mustDuration("AGENT_SYNC_INTERVAL", time.Minute),

		// Consul settings
		ConsulAddr:           requireEnv("CONSUL_ADDR"),
		ConsulScheme:         getenv("CONSUL_SCHEME", "http"),
		ConsulToken:          getenv("CONSUL_TOKEN", ""),
		ConsulDatacenter:     getenv("CONSUL_DATACENTER", ""),
		ConsulConnectTimeout: mustDuration("CONSUL_CONNECT_TIMEOUT", 30*time.Second),
		ConsulRetryInterval:  mustDuration("CONSUL_RETRY_INTERVAL", 2*time.Second),
		ConsulMaxWait:        mustDuration("CONSUL_MAX_WAIT", 10*time.Second),
		ConsulPingTimeout:    mustDuration("CONSUL_PING_TIMEOUT", 5*time.Second),

		// Redis settings
		RedisAddr:           getenv("AGENT_REDIS_ADDR", ""),
		RedisUser:           getenv("AGENT_REDIS_USERNAME", ""),
		RedisPassword:       getenv("AGENT_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("AGENT_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RetryWarnThreshold:  getenvInt("AGENT_RETRY_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedCIDRS: parseAllowedIPs(getenv("AGENT_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("AGENT_TRUST_PROXY", false),
	}

	if cfg.ConsulScheme != "http" && cfg.ConsulScheme != "https" {
		panic(fmt.Sprintf("❌ FATAL: CONSUL_SCHEME must be http or https, got %q", cfg.ConsulScheme))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.ConsulToken != "" {
		cp.ConsulToken = "***REDACTED***"
	}
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// JournalEnabled reports whether a Redis address was configured.
func (c *Config) JournalEnabled() bool {
	return c.RedisAddr != ""
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
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
