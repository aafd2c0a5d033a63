// Package providers contains dependency injection providers for the Bookworm server.
package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// serverVersion is reported by the instance endpoint.
	serverVersion = "1.0.0"
)
