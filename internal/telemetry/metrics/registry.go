package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRegistry returns a registry with build, runtime and process collectors,
// plus a constant gymrpg_version_info series labeled with the running version.
func NewRegistry(version string) *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()

	if version == "" {
		version = "unknown"
	}
	versionInfo := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "gymrpg",
		Name:        "version_info",
		Help:        "Running gymrpg version, always 1.",
		ConstLabels: prometheus.Labels{"version": version},
	})
	versionInfo.Set(1)

	promRegistry.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		versionInfo,
	)

	return promRegistry
}
