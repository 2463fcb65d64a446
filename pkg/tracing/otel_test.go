package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitialize_Disabled(t *testing.T) {
	tp, err := Initialize(context.Background(), DefaultConfig("carrier-selection-service"))
	require.NoError(t, err)
	require.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestAttributes(t *testing.T) {
	attrs := Attributes(map[string]any{
		"wms.waybill_count": 3,
		"wms.fee":           980.0,
		"wms.success":       true,
		"wms.carriers":      []string{"SAGAWA", "YAMATO"},
		"wms.reason":        "cheapest",
		"wms.other":         int32(7),
	})

	got := map[attribute.Key]attribute.Value{}
	for _, kv := range attrs {
		got[kv.Key] = kv.Value
	}
	assert.Equal(t, int64(3), got["wms.waybill_count"].AsInt64())
	assert.Equal(t, 980.0, got["wms.fee"].AsFloat64())
	assert.True(t, got["wms.success"].AsBool())
	assert.Equal(t, []string{"SAGAWA", "YAMATO"}, got["wms.carriers"].AsStringSlice())
	assert.Equal(t, "cheapest", got["wms.reason"].AsString())
	assert.Equal(t, "7", got["wms.other"].AsString())
}

func TestSelectionSpanAttributes(t *testing.T) {
	assert.Len(t, SelectionSpanAttributes("PK001", ""), 1)

	attrs := SelectionSpanAttributes("PK001", "O1")
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.String("wms.waybill_ref", "O1"), attrs[1])
}
