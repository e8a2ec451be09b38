package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistryRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.TasksSubmitted.WithLabelValues("p", "local").Inc()
	r.TasksExecuted.WithLabelValues("p").Inc()
	r.TasksCompleted.WithLabelValues("p").Inc()
	r.TasksFailed.WithLabelValues("p").Inc()
	r.TasksStolen.WithLabelValues("p").Inc()
	r.TasksAbandoned.WithLabelValues("p").Inc()
	r.TaskDuration.WithLabelValues("p").Observe(0.01)
	r.PoolSize.WithLabelValues("p").Set(4)
	r.PoolActive.WithLabelValues("p").Set(1)
	r.SharedQueueDepth.WithLabelValues("p").Set(2)
	r.SchedulerRuns.WithLabelValues("s").Inc()
	r.SchedulerSubmitErrors.WithLabelValues("s").Inc()

	count, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if count != 12 {
		t.Errorf("gathered %d series, want 12", count)
	}
}

func TestNamespaceAndLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistryWithConfig(Config{
		Registry:  reg,
		Namespace: "myapp",
		Labels:    prometheus.Labels{"version": "1.0"},
	})
	r.PoolSize.WithLabelValues("p").Set(3)

	expected := `
# HELP myapp_pool_size Number of workers in the pool
# TYPE myapp_pool_size gauge
myapp_pool_size{pool_name="p",version="1.0"} 3
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "myapp_pool_size"); err != nil {
		t.Error(err)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewRegistry(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewRegistry(reg)
}
