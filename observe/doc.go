// Package observe instruments image cache operations with OpenTelemetry
// tracing, OpenTelemetry metrics and JSON structured logs.
//
// Exporters are chosen by name (see the exporters subpackage). Disabled
// subsystems fall back to no-op implementations so callers never branch on
// configuration.
package observe
