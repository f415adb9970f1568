// Package transports imports all built-in transports for auto-registration.
// Import this package to have every transport registered with the default
// registry.
package transports

import (
	// Import all transports for side-effect registration.
	_ "github.com/adverto/adverto/transport/channel"
	_ "github.com/adverto/adverto/transport/kafka"
	_ "github.com/adverto/adverto/transport/nats"
	_ "github.com/adverto/adverto/transport/rabbitmq"
)
