package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestAdapterMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAdapterMetrics(reg)
	m.ObserveWebhook("cancel", "ok")
	m.ObserveUpstream("find_appointment", "200", 0.25)
	m.ObserveTokenRefresh()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}

func TestAdapterMetricsNilSafe(t *testing.T) {
	var m *AdapterMetrics
	m.ObserveWebhook("cancel", "ok")
	m.ObserveUpstream("get_patient", "timeout", 0.1)
	m.ObserveTokenRefresh()
}
