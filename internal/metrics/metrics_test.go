package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Submission("success")
	m.Submission("success")
	m.Submission("timed_out")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.Install(nil)
	m.Install(errors.New("boom"))
	m.SetPending(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("timed_out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheInstall.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheInstall.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Pending))

	m.SetPending(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Pending))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Submission("success")
		m.CacheLookup(true)
		m.Install(nil)
		m.SetPending(true)
	})
}
