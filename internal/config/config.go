// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends accepted in STORAGE_BACKEND.
const (
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Credential sources accepted in SECRETS_SOURCE.
const (
	SecretsLambda         = "lambda"
	SecretsSecretsManager = "secretsmanager"
)

// DefaultTables is the table set every product is removed from, in order.
var DefaultTables = []string{"Products_gr8", "ProductsUpdate_gr8", "ProductsList_gr8", "ProductsDelete_gr8"}

// Config holds configuration knobs for the HTTP server, storage and broker.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        string

	AWSRegion       string
	SecretsSource   string
	SecretsFunction string
	SecretID        string
	StorageBackend  string
	Tables          []string
	KeyAttribute    string

	BrokerURL      string
	EventQueue     string
	PublishWorkers int
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

func listenv(key string, def []string) []string {
	v := getenv(key, "")
	if v == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}

// Load collects configuration from environment with defaults.
func Load() Config {
	workers := atoienv("PUBLISH_WORKERS", 2)
	if workers < 1 {
		workers = 1
	}
	backend := strings.ToLower(getenv("STORAGE_BACKEND", BackendDynamoDB))
	if backend != BackendMemory {
		backend = BackendDynamoDB
	}
	source := strings.ToLower(getenv("SECRETS_SOURCE", SecretsLambda))
	if source != SecretsSecretsManager {
		source = SecretsLambda
	}
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8093"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 15),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		AWSRegion:       getenv("AWS_REGION", "us-east-2"),
		SecretsSource:   source,
		SecretsFunction: getenv("SECRETS_FUNCTION", "fetchSecretsFunction_gr8"),
		SecretID:        getenv("SECRET_ID", ""),
		StorageBackend:  backend,
		Tables:          listenv("PRODUCT_TABLES", DefaultTables),
		KeyAttribute:    getenv("PRODUCT_KEY_ATTR", "productId"),
		BrokerURL:       getenv("BROKER_URL", "amqp://3.136.72.14:5672/"),
		EventQueue:      getenv("EVENT_QUEUE", "product-events"),
		PublishWorkers:  workers,
	}
}
