/*
Package observability turns engine lifecycle hooks into logs and Prometheus metrics.

	metrics := observability.NewMetrics()
	hooks := observability.LoggingHooks(logger).Merge(metrics.Hooks())
	eng, err := cascade.New(cascade.WithLifecycleHooks(hooks))

Metrics.Handler serves the collected series in the Prometheus exposition format.
*/
package observability
