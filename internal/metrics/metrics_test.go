package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRunCountsByStatus(t *testing.T) {
	okBefore := testutil.ToFloat64(RunsTotal.WithLabelValues(StatusOK))
	errBefore := testutil.ToFloat64(RunsTotal.WithLabelValues(StatusError))

	RecordRun(10, time.Second, nil)
	RecordRun(-1, time.Second, errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(RunsTotal.WithLabelValues(StatusOK)))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(RunsTotal.WithLabelValues(StatusError)))
}

func TestRecordLLMCallAndNotification(t *testing.T) {
	before := testutil.ToFloat64(LLMCallsTotal.WithLabelValues("judge", StatusOK))
	RecordLLMCall("judge", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(LLMCallsTotal.WithLabelValues("judge", StatusOK)))

	before = testutil.ToFloat64(NotificationsTotal.WithLabelValues("cv_analyzed", StatusError))
	RecordNotification("cv_analyzed", errors.New("down"))
	assert.Equal(t, before+1, testutil.ToFloat64(NotificationsTotal.WithLabelValues("cv_analyzed", StatusError)))
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordHTTP("/health", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `hh_analyst_http_requests_total{code="200",route="/health"}`)
}
