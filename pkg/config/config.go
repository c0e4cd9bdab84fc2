package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Env         string
	PostgresUrl string
	MongoURI    string

	// Web push delivery. Leaving the VAPID pair empty disables push for the
	// whole process; notifications still land in the durable inbox.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushSubscriber  string
	PushTTL         int
	PushTimeout     time.Duration

	BroadcastWorkers    int
	SubscriptionTTLDays int
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		PostgresUrl: getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:    getEnv("MONGO_URI", ""),

		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		PushSubscriber:  getEnv("PUSH_SUBSCRIBER", "mailto:admin@filmsub.io"),
		PushTTL:         getEnvInt("PUSH_TTL_SECONDS", 60*60*24),
		PushTimeout:     time.Duration(getEnvInt("PUSH_TIMEOUT_SECONDS", 10)) * time.Second,

		BroadcastWorkers:    getEnvInt("BROADCAST_WORKERS", 8),
		SubscriptionTTLDays: getEnvInt("SUBSCRIPTION_TTL_DAYS", 90),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
