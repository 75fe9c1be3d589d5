// Package metrics defines the sinks that record auction outcomes for
// observability purposes. Sinks like PromSink and InfluxSink (infra/metrics)
// implement MetricsSink and may implement the optional recorder interfaces.
// NewMetricsSink returns a MultiSink automatically when several sinks are
// configured.
package metrics
