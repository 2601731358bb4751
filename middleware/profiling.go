package middleware

import (
	"github.com/grafana/pyroscope-go"

	"github.com/nhudang/user-aggregator/config"
)

var profiler *pyroscope.Profiler

// InitProfiling starts Pyroscope continuous profiling. The service name and
// namespace are auto-detected from the Kubernetes environment, falling back
// to the configured service name.
func InitProfiling(cfg *config.Config) error {
	serviceName, namespace := detectServiceInfo()
	if serviceName == unknownService && cfg.Profiling.ServiceName != "" {
		serviceName = cfg.Profiling.ServiceName
	}

	pcfg := pyroscope.Config{
		ApplicationName: serviceName,
		ServerAddress:   cfg.Profiling.Endpoint,
		Tags: map[string]string{
			"service":   serviceName,
			"namespace": namespace,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
		Logger: pyroscope.StandardLogger,
	}

	var err error
	profiler, err = pyroscope.Start(pcfg)
	return err
}

// StopProfiling stops Pyroscope profiling.
func StopProfiling() {
	if profiler != nil {
		_ = profiler.Stop()
	}
}
