// Package tprl builds temporal clients configured for this application.
package tprl

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/agora-dev/symposium/pkg/slogx"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
)

func envStrOrDefault(key string, def string) string {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	return s
}

// NewClient connects lazily to the temporal server named by TEMPORAL_ADDRESS,
// falling back to the default host and port.
func NewClient() (client.Client, error) {
	lg := slog.Default().With(slogx.LoggerName("symposium.temporal"))

	cl, err := client.NewLazyClient(client.Options{
		HostPort: envStrOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Logger:   log.NewStructuredLogger(lg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create temporal client: %w", err)
	}
	return cl, nil
}
