// Package infra contains technical adapters for the auction service: the
// zerolog logger, metrics sinks, the MQTT award publisher and the Sentry
// monitor. These packages depend only on the interfaces defined in the core
// packages.
package infra
