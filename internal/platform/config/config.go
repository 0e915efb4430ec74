package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// NotificationRetention is how long notification rows survive before the
// retention sweep hard-deletes them, regardless of read or trashed state.
var NotificationRetention = 30 * 24 * time.Hour

// Server captures process level configuration sourced from the environment.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	AuditTopic    string
	JWTSigningKey string

	// FanOutWorkers bounds concurrent notification deliveries per fan-out.
	FanOutWorkers int

	S3 S3
}

// S3 configures the report file blob store. Empty Bucket disables S3 and the
// server falls back to the in-memory blob store.
type S3 struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ASSURANCE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	workers := 4
	if raw := os.Getenv("FANOUT_WORKERS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			workers = n
		}
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	auditTopic := os.Getenv("AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "assurance.audit-events"
	}

	return Server{
		Addr:          addr,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		KafkaBrokers:  brokers,
		AuditTopic:    auditTopic,
		JWTSigningKey: jwtSigningKey,
		FanOutWorkers: workers,
		S3: S3{
			Bucket:       os.Getenv("S3_BUCKET"),
			Region:       os.Getenv("S3_REGION"),
			BaseEndpoint: os.Getenv("S3_ENDPOINT"),
			AccessKey:    os.Getenv("S3_ACCESS_KEY"),
			SecretKey:    os.Getenv("S3_SECRET_KEY"),
		},
	}
}
