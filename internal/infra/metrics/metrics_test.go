package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordOutcome(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("done"))
	RecordOutcome("done", 4, 2)
	assert.Equal(t, before+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("done")))
}

func TestRecordError(t *testing.T) {
	before := testutil.ToFloat64(ErrorsTotal.WithLabelValues("retrieving"))
	beforeReq := testutil.ToFloat64(RequestsTotal.WithLabelValues("error"))
	RecordError("retrieving")
	assert.Equal(t, before+1, testutil.ToFloat64(ErrorsTotal.WithLabelValues("retrieving")))
	assert.Equal(t, beforeReq+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("error")))
}

func TestRecordRateLimited(t *testing.T) {
	before := testutil.ToFloat64(RateLimitedTotal)
	RecordRateLimited()
	assert.Equal(t, before+1, testutil.ToFloat64(RateLimitedTotal))
}
