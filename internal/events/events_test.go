package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStampsEnvelope(t *testing.T) {
	a := New(OrderPlaced, OrderStatusPayload{OrderID: 7, UserID: "u1", To: "Pending"})
	b := New(OrderPlaced, nil)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, OrderPlaced, a.Type)
	assert.False(t, a.OccurredAt.IsZero())
	assert.Equal(t, "UTC", a.OccurredAt.Location().String())

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	payload := decoded["payload"].(map[string]any)
	assert.EqualValues(t, 7, payload["orderId"])
	assert.NotContains(t, payload, "from")
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), New(OrderStatusChanged, nil)))
}
