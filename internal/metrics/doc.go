// Package metrics provides observability hooks for builds, compiles and the
// compile cache.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	runner := build.NewRunner(cfg).WithRecorder(recorder)
//
// The Prometheus registry is exposed over HTTP by HTTPHandler.
package metrics
