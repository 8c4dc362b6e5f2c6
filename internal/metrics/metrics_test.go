package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ChatRequests.WithLabelValues("ok").Inc()
	m.ToolCalls.WithLabelValues("get_weather", "not_found").Add(2)

	if got := testutil.ToFloat64(m.ChatRequests.WithLabelValues("ok")); got != 1 {
		t.Fatalf("expected 1 ok request, got %v", got)
	}
	if got := testutil.ToFloat64(m.ToolCalls.WithLabelValues("get_weather", "not_found")); got != 2 {
		t.Fatalf("expected 2 tool calls, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}

func TestGlobalIsSingleton(t *testing.T) {
	if Global() != Global() {
		t.Fatal("Global must return the same instance")
	}
}
