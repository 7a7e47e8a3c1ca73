package instance

import (
	"os"

	"github.com/angelmondragon/storefront-backend/pkg/env"
)

// GetID names the running process in logs and lock ownership. It prefers an
// explicit STOREFRONT_INSTANCE_ID, then the platform dyno name, then the host.
func GetID() string {
	host, _ := os.Hostname()
	if host == "" {
		host = "local"
	}
	return env.First(host, "STOREFRONT_INSTANCE_ID", "DYNO")
}
