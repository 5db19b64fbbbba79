package authcore

import (
	"sync"
	"testing"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricGrantFailure)

	if v := m.Value(MetricLoginSuccess); v != 2 {
		t.Fatalf("Value = %d, want 2", v)
	}

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 || snap.Counters[MetricGrantFailure] != 1 {
		t.Fatalf("snapshot %v", snap.Counters)
	}
	if snap.Counters[MetricLogout] != 0 {
		t.Fatalf("untouched counter = %d", snap.Counters[MetricLogout])
	}
}

func TestMetricsDisabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricLoginSuccess)

	if m.Enabled() {
		t.Fatal("Enabled() = true")
	}
	if v := m.Value(MetricLoginSuccess); v != 0 {
		t.Fatalf("disabled counter = %d", v)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("disabled snapshot %v", snap.Counters)
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics

	m.Inc(MetricLoginSuccess)
	if m.Enabled() {
		t.Fatal("nil Enabled() = true")
	}
	if v := m.Value(MetricLoginSuccess); v != 0 {
		t.Fatalf("nil Value = %d", v)
	}
	if snap := m.Snapshot(); snap.Counters == nil {
		t.Fatal("nil Snapshot returned nil map")
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricRefreshSuccess)
			}
		}()
	}
	wg.Wait()

	if v := m.Value(MetricRefreshSuccess); v != workers*perWorker {
		t.Fatalf("Value = %d, want %d", v, workers*perWorker)
	}
}
