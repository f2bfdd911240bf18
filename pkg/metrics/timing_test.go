package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestTimingMetricRecord(t *testing.T) {
	m := newTimingMetric("test")
	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)
	m.RecordError()

	s := m.Stats()
	if s.Count != 2 || s.Errors != 1 {
		t.Fatalf("count=%d errors=%d, want 2 and 1", s.Count, s.Errors)
	}
	if s.MinMs != 2 || s.MaxMs != 4 || s.AvgMs != 3 || s.TotalMs != 6 {
		t.Errorf("stats = %+v", s)
	}

	m.Reset()
	if s := m.Stats(); s.Count != 0 || s.MinMs != 0 || s.Errors != 0 {
		t.Errorf("after reset: %+v", s)
	}
}

func TestTimingMetricConcurrent(t *testing.T) {
	m := newTimingMetric("concurrent")
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(d time.Duration) {
			defer wg.Done()
			m.Record(d)
		}(time.Duration(i) * time.Microsecond)
	}
	wg.Wait()

	s := m.Stats()
	if s.Count != 50 {
		t.Fatalf("count = %d", s.Count)
	}
	if s.MinMs != 0.001 || s.MaxMs != 0.05 {
		t.Errorf("min=%v max=%v", s.MinMs, s.MaxMs)
	}
}

func TestDisabled(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := newTimingMetric("off")
	Timer(m)()
	m.Record(time.Second)
	m.RecordError()
	if m.Count() != 0 || m.Stats().Errors != 0 {
		t.Errorf("disabled metric recorded: %+v", m.Stats())
	}
}

func TestAllTimingStatsSkipsEmpty(t *testing.T) {
	SetEnabled(true)
	ResetAll()
	defer ResetAll()

	Coloring.Record(time.Millisecond)
	Route.RecordError()

	stats := AllTimingStats()
	if len(stats) != 2 {
		t.Fatalf("got %d stats, want 2: %+v", len(stats), stats)
	}
	if stats[0].Name != "coloring" || stats[1].Name != "route" {
		t.Errorf("names = %s, %s", stats[0].Name, stats[1].Name)
	}
}
