package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}

func TestProducer_PublishBatch(t *testing.T) {
	w := &memWriter{}
	reg := prometheus.NewRegistry()
	p, err := NewProducer(WithWriter(w), WithRegisterer(reg))
	require.NoError(t, err)

	err = p.PublishBatch(context.Background(), "assets", []Message{
		{Key: []byte("bitcoin"), Value: map[string]int{"confidence": 96}},
		{Key: []byte("raw"), Value: []byte("x")},
	})
	require.NoError(t, err)

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "assets", w.msgs[0].Topic)
	assert.Equal(t, []byte("bitcoin"), w.msgs[0].Key)
	assert.JSONEq(t, `{"confidence":96}`, string(w.msgs[0].Value))
	assert.Equal(t, []byte("x"), w.msgs[1].Value)
	assert.Equal(t, 2.0, testutil.ToFloat64(p.metrics.msgs.WithLabelValues("assets", "gzip", "ok")))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishBatchError(t *testing.T) {
	w := &memWriter{err: errors.New("leader not available")}
	p, err := NewProducer(WithWriter(w), WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)

	err = p.PublishBatch(context.Background(), "assets", []Message{{Key: []byte("k"), Value: "v"}})
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.errs.WithLabelValues("assets")))
}

func TestProducer_EmptyBatchIsNoop(t *testing.T) {
	w := &memWriter{}
	p, err := NewProducer(WithWriter(w))
	require.NoError(t, err)

	require.NoError(t, p.PublishBatch(context.Background(), "assets", nil))
	assert.Empty(t, w.msgs)
}
