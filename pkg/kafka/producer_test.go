package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/carrier-selection/pkg/cloudevents"
	"github.com/wms-platform/carrier-selection/pkg/logging"
	"github.com/wms-platform/carrier-selection/pkg/metrics"
	"github.com/wms-platform/carrier-selection/pkg/resilience"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newTestProducer(writers map[string]*fakeWriter) *Producer {
	p := NewProducer(DefaultConfig(), logging.NewNop(), metrics.New(metrics.DefaultConfig("test")))
	p.newWriter = func(topic string) MessageWriter {
		w, ok := writers[topic]
		if !ok {
			w = &fakeWriter{}
			writers[topic] = w
		}
		return w
	}
	return p
}

func testEvent() *cloudevents.WMSCloudEvent {
	factory := cloudevents.NewEventFactory(cloudevents.SourceCarrierSelection)
	return factory.CreateCarrierSelectedEvent(context.Background(), cloudevents.CarrierSelectedData{WaybillRef: "O1", CarrierCode: "SAGAWA"})
}

func TestProducer_PublishEvent(t *testing.T) {
	writers := map[string]*fakeWriter{}
	p := newTestProducer(writers)
	event := testEvent()

	require.NoError(t, p.PublishEvent(context.Background(), Topics.ShippingEvents, event))
	require.NoError(t, p.PublishEvent(context.Background(), Topics.ShippingEvents, event))

	w := writers[Topics.ShippingEvents]
	require.Len(t, w.messages, 2, "one writer is reused per topic")

	msg := w.messages[0]
	assert.Equal(t, "waybill/O1", string(msg.Key))
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "1.0", headers["ce-specversion"])
	assert.Equal(t, cloudevents.CarrierSelected, headers["ce-type"])
	assert.Equal(t, cloudevents.SourceCarrierSelection, headers["ce-source"])
	assert.Equal(t, event.ID, headers["ce-id"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_BreakerOpens(t *testing.T) {
	writers := map[string]*fakeWriter{Topics.ShippingEvents: {err: errors.New("leader not available")}}
	p := newTestProducer(writers)

	for i := 0; i < int(resilience.DefaultFailureThreshold); i++ {
		err := p.PublishEvent(context.Background(), Topics.ShippingEvents, testEvent())
		require.Error(t, err)
		assert.NotErrorIs(t, err, resilience.ErrCircuitOpen)
	}

	err := p.PublishEvent(context.Background(), Topics.ShippingEvents, testEvent())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}
