package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pulkit320/market-scope/internal/domain/models"
)

func TestRecorder_RecordsRunOutcome(t *testing.T) {
	r := New()

	r.RecordAssetExported("bitcoin")
	r.RecordAssetSkipped("solana", models.SkipInsufficientData)
	r.RecordLastPrice("BTC", 65000)
	r.RecordPrediction("bitcoin", models.Prediction{
		Probability: 0.73,
		Direction:   models.DirectionUp,
		Confidence:  96,
		Source:      models.SourceModel,
	})
	r.RecordPredictorDegraded(true)
	r.RecordError("sink")
	r.RecordLatency("fetch", 0.2)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.exported.WithLabelValues("bitcoin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.skipped.WithLabelValues("solana", "insufficient_data")))
	assert.Equal(t, 65000.0, testutil.ToFloat64(r.lastPrice.WithLabelValues("BTC")))
	assert.Equal(t, 0.73, testutil.ToFloat64(r.probability.WithLabelValues("bitcoin", "model")))
	assert.Equal(t, 96.0, testutil.ToFloat64(r.confidence.WithLabelValues("bitcoin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.predictions.WithLabelValues("up", "model")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.degraded))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("sink")))

	r.RecordPredictorDegraded(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.degraded))
}

func TestRecorder_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordAssetExported("bitcoin")

	assert.Equal(t, 1, testutil.CollectAndCount(a.exported))
	assert.Equal(t, 0, testutil.CollectAndCount(b.exported))
}

func TestRecorder_Push(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPut, req.Method)
		assert.Equal(t, "/metrics/job/market_scope", req.URL.Path)
		b, _ := io.ReadAll(req.Body)
		body = string(b)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	r := New()
	r.RecordAssetExported("bitcoin")
	require.NoError(t, r.Push(context.Background(), srv.URL, "market_scope"))
	assert.NotEmpty(t, body)
}
