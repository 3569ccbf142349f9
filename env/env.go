package env

import (
	"fmt"
	"os"
)

// EnsurePrefixed prepends the deployment's NATS subject prefix, if one
// is configured. Multiple network environments (dev, beta, prod) share
// a single NATS cluster, so every subject is namespaced.
func EnsurePrefixed(subject string) string {
	prefix := os.Getenv("NATS_SUBJECT_PREFIX")
	if prefix == "" {
		return subject
	}
	return prefix + "." + subject
}

// NatsUrl builds the NATS connection URL from the environment.
func NatsUrl() string {
	username := os.Getenv("NATS_USERNAME")
	password := os.Getenv("NATS_PASSWORD")
	hostname := os.Getenv("NATS_HOSTNAME")
	port := os.Getenv("NATS_PORT")

	return fmt.Sprintf("nats://%s:%s@%s:%s", username, password, hostname, port)
}
