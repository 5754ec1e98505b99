package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCheckRunCounter(t *testing.T) {
	before := testutil.ToFloat64(CheckRuns.WithLabelValues("default", "metrics-test", "Success"))
	CheckRuns.WithLabelValues("default", "metrics-test", "Success").Inc()
	after := testutil.ToFloat64(CheckRuns.WithLabelValues("default", "metrics-test", "Success"))
	assert.Equal(t, before+1, after)
}

func TestEscalatedGauge(t *testing.T) {
	ChecksEscalated.WithLabelValues("default", "metrics-test").Set(1)
	assert.Equal(t, 1.0, testutil.ToFloat64(ChecksEscalated.WithLabelValues("default", "metrics-test")))
	ChecksEscalated.WithLabelValues("default", "metrics-test").Set(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(ChecksEscalated.WithLabelValues("default", "metrics-test")))
}
