// Package temporalclient builds Temporal client options for the worker.
//
// Connection settings come from the SDK envconfig loader (TEMPORAL_ADDRESS,
// TEMPORAL_NAMESPACE, TEMPORAL_TLS_*, or a config.toml profile); anything
// set explicitly on the command line wins.
package temporalclient

import (
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/contrib/envconfig"
	tlog "go.temporal.io/sdk/log"
)

// Overrides are values that take precedence over envconfig.
type Overrides struct {
	HostPort  string
	Namespace string
	Identity  string
}

// LoadClientOptions loads client options and routes SDK logging through
// logger.
func LoadClientOptions(o Overrides, logger *slog.Logger) (client.Options, error) {
	opts, err := envconfig.LoadClientOptions(envconfig.LoadClientOptionsRequest{})
	if err != nil {
		return client.Options{}, fmt.Errorf("load temporal client options: %w", err)
	}

	if o.HostPort != "" {
		opts.HostPort = o.HostPort
	}
	if o.Namespace != "" {
		opts.Namespace = o.Namespace
	}
	if o.Identity != "" {
		opts.Identity = o.Identity
	}
	if logger != nil {
		opts.Logger = tlog.NewStructuredLogger(logger.With("component", "temporal"))
	}
	return opts, nil
}
