package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveFeedLoad(t *testing.T) {
	okBefore := testutil.ToFloat64(feedLoadsTotal.WithLabelValues("file", resultSuccess))
	errBefore := testutil.ToFloat64(feedLoadsTotal.WithLabelValues("file", resultError))

	ObserveFeedLoad("file", 42, 15*time.Millisecond, nil)
	assert.Equal(t, okBefore+1, testutil.ToFloat64(feedLoadsTotal.WithLabelValues("file", resultSuccess)))
	assert.Equal(t, 42.0, testutil.ToFloat64(feedRecords))

	ObserveFeedLoad("file", 0, time.Millisecond, errors.New("unreachable"))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(feedLoadsTotal.WithLabelValues("file", resultError)))
	assert.Equal(t, 42.0, testutil.ToFloat64(feedRecords), "failed load must not reset the records gauge")
}

func TestObserveRender(t *testing.T) {
	before := testutil.ToFloat64(rendersTotal.WithLabelValues("png", resultError))
	ObserveRender("png", errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(rendersTotal.WithLabelValues("png", resultError)))
}
