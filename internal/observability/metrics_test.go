package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_IsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.CacheHits.WithLabelValues("trending").Inc()
	m.CacheHits.WithLabelValues("trending").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("trending")))
}

func TestRecordDBQuery_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "test_op"))

	RecordDBQuery("postgres", "test_op", 0.01, nil)
	RecordDBQuery("postgres", "test_op", 0.01, errors.New("boom"))

	after := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "test_op"))
	assert.Equal(t, before+1, after)
}
