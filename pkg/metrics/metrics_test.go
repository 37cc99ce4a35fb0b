package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRaffleMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewRaffleMetrics(reg)

	metrics.ObservePurchase(OutcomeSuccess, 3)
	metrics.ObservePurchase(OutcomeFailure, 0)
	metrics.ObserveDraw(OutcomeSuccess, 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "raffle_purchases_total", "outcome", OutcomeSuccess); err != nil {
		t.Fatalf("fetch purchases: %v", err)
	} else if got != 1 {
		t.Fatalf("expected purchases=1, got %f", got)
	}

	if mf := findMetricFamily(mfs, "raffle_tickets_sold_total"); mf == nil {
		t.Fatal("tickets sold counter missing")
	} else if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Fatalf("expected tickets sold=3, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "raffle_draws_total", "outcome", OutcomeSuccess); err != nil {
		t.Fatalf("fetch draws: %v", err)
	} else if got != 1 {
		t.Fatalf("expected draws=1, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	metrics := NewRaffleMetrics(nil)
	metrics.ObservePurchase(OutcomeSuccess, 1)
	metrics.ObserveDraw(OutcomeFailure, time.Second)

	cron := NewCronJobMetrics(nil)
	cron.ObserveDuration("job", time.Second)
	cron.IncSuccess("job")
	cron.IncFailure("job")
}

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "raffle-lifecycle"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "job_success", "job", job); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "job_failure", "job", job); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
