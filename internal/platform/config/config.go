package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server and runtime configuration.
type Server struct {
	Addr              string
	JWTSigningKey     string
	JurisdictionsFile string

	// Cache freshness and fetch bounds for the compliance engine.
	CacheTTL       time.Duration
	FetchTimeout   time.Duration
	FetchWaitBound time.Duration

	PostgresURL  string
	RedisURL     string
	KafkaBrokers string
	AuditTopic   string

	// Confidence penalty overrides; zero keeps the engine default.
	StaleAge            time.Duration
	StalePenalty        int
	AmbiguityPenalty    int
	MissingFieldPenalty int
	EdgeCasePenalty     int

	// FetchCostUSD is the accounted cost of one ordinance fetch.
	FetchCostUSD float64
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ZONECHECK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	jurisdictionsFile := os.Getenv("ZONECHECK_JURISDICTIONS_FILE")
	if jurisdictionsFile == "" {
		jurisdictionsFile = "jurisdictions.yaml"
	}

	auditTopic := os.Getenv("ZONECHECK_AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "zonecheck.compliance.decisions"
	}

	return Server{
		Addr:              addr,
		JWTSigningKey:     jwtSigningKey,
		JurisdictionsFile: jurisdictionsFile,
		CacheTTL:          durationFromEnv("ZONECHECK_CACHE_TTL", 7*24*time.Hour),
		FetchTimeout:      durationFromEnv("ZONECHECK_FETCH_TIMEOUT", 30*time.Second),
		FetchWaitBound:    durationFromEnv("ZONECHECK_FETCH_WAIT_BOUND", 30*time.Second),
		PostgresURL:       os.Getenv("ZONECHECK_POSTGRES_URL"),
		RedisURL:          os.Getenv("ZONECHECK_REDIS_URL"),
		KafkaBrokers:      os.Getenv("ZONECHECK_KAFKA_BROKERS"),
		AuditTopic:        auditTopic,

		StaleAge:            durationFromEnv("ZONECHECK_CONFIDENCE_STALE_AGE", 0),
		StalePenalty:        intFromEnv("ZONECHECK_CONFIDENCE_STALE_PENALTY"),
		AmbiguityPenalty:    intFromEnv("ZONECHECK_CONFIDENCE_AMBIGUITY_PENALTY"),
		MissingFieldPenalty: intFromEnv("ZONECHECK_CONFIDENCE_MISSING_FIELD_PENALTY"),
		EdgeCasePenalty:     intFromEnv("ZONECHECK_CONFIDENCE_EDGE_CASE_PENALTY"),

		FetchCostUSD: floatFromEnv("ZONECHECK_FETCH_COST_USD"),
	}
}

func intFromEnv(key string) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return 0
}

func floatFromEnv(key string) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return 0
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	// Bare numbers are treated as seconds for operator convenience.
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
