// Package metrics provides build metrics for docsite.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	orch := build.NewOrchestrator(registry, build.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on a caller supplied registry.
// One-shot builds export the registry with WriteTextfile for the node
// exporter textfile collector; `docsite watch` can serve it over HTTP.
package metrics
