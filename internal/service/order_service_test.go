package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopwala/shopwala-golang/internal/events"
	"github.com/shopwala/shopwala-golang/internal/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		want     bool
	}{
		{models.OrderPending, models.OrderConfirmed, true},
		{models.OrderPending, models.OrderOutForDelivery, true},
		{models.OrderConfirmed, models.OrderPending, false},
		{models.OrderDelivered, models.OrderCompleted, true},
		{models.OrderCompleted, models.OrderDelivered, false},
		{models.OrderPending, models.OrderCancelled, true},
		{models.OrderOutForDelivery, models.OrderCancelled, true},
		{models.OrderDelivered, models.OrderCancelled, false},
		{models.OrderCompleted, models.OrderCancelled, false},
		{models.OrderCancelled, models.OrderPending, false},
		{models.OrderCancelled, models.OrderCancelled, false},
		{models.OrderAssignedToRider, models.OrderFailedDelivery, true},
		{models.OrderOutForDelivery, models.OrderFailedDelivery, true},
		{models.OrderPending, models.OrderFailedDelivery, false},
		{models.OrderFailedDelivery, models.OrderOutForDelivery, true},
		{models.OrderFailedDelivery, models.OrderReturned, true},
		{models.OrderFailedDelivery, models.OrderDelivered, false},
		{models.OrderDelivered, models.OrderReturned, true},
		{models.OrderCompleted, models.OrderReturned, true},
		{models.OrderProcessing, models.OrderReturned, false},
		{models.OrderReturned, models.OrderCompleted, false},
		{models.OrderPending, models.OrderStatus(42), false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func placeTestOrder(t *testing.T, env *testEnv, userID string, product *models.Product, qty int) *models.Order {
	t.Helper()
	ctx := context.Background()
	_, err := env.cart.Add(ctx, userID, product.ID, nil, qty)
	require.NoError(t, err)
	order, err := env.checkout.PlaceOrder(ctx, userID, OrderInput{
		ShippingAddress: "House 12, Block 5",
		City:            "Karachi",
		PhoneNumber:     "0300-1234567",
		PaymentMethod:   models.PaymentCashOnDelivery,
	})
	require.NoError(t, err)
	return order
}

func TestOrderCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Phones", nil)
	p := env.product(t, "Phone", "PH-1", cat.ID, "100", 10)

	_, err := env.orders.Create(ctx, "buyer-1", OrderInput{}, nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	order, err := env.orders.Create(ctx, "buyer-1", OrderInput{ShippingAddress: "a", City: "Karachi"}, []OrderLine{
		{ProductID: p.ID, Quantity: 2, Price: dec("100")},
		{ProductID: p.ID, Quantity: 1, Price: dec("49.50")},
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.True(t, dec("249.50").Equal(order.TotalAmount))
	require.Len(t, order.Items, 2)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, "Order placed", *order.StatusHistory[0].Notes)
	assert.Equal(t, []string{events.OrderPlaced}, env.publisher.types())
}

func TestOrderGetHidesOtherBuyers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Phones", nil)
	order := placeTestOrder(t, env, "buyer-1", env.product(t, "Phone", "PH-1", cat.ID, "100", 10), 1)

	_, err := env.orders.Get(ctx, order.ID, "buyer-2", false)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := env.orders.Get(ctx, order.ID, "admin", true)
	require.NoError(t, err)
	assert.Equal(t, "buyer-1", got.UserID)

	mine, err := env.orders.ListForUser(ctx, "buyer-2")
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestOrderCancelByBuyerRestoresStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Phones", nil)
	p := env.product(t, "Phone", "PH-1", cat.ID, "100", 10)
	order := placeTestOrder(t, env, "buyer-1", p, 3)
	require.Equal(t, 7, env.stock(t, p.ID))

	_, err := env.orders.Cancel(ctx, order.ID, "buyer-2", false, "")
	assert.ErrorIs(t, err, ErrNotFound)

	cancelled, err := env.orders.Cancel(ctx, order.ID, "buyer-1", false, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, cancelled.Status)
	assert.Equal(t, 10, env.stock(t, p.ID))
	require.Len(t, cancelled.StatusHistory, 2)
	assert.Equal(t, models.OrderCancelled, cancelled.StatusHistory[0].Status)
	assert.Equal(t, "Cancelled by customer", *cancelled.StatusHistory[0].Notes)

	_, err = env.orders.Cancel(ctx, order.ID, "buyer-1", false, "")
	assert.ErrorIs(t, err, ErrCannotCancel)
	assert.Equal(t, 10, env.stock(t, p.ID))
}

func TestOrderCancelRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Phones", nil)
	p := env.product(t, "Phone", "PH-1", cat.ID, "100", 10)

	order := placeTestOrder(t, env, "buyer-1", p, 1)
	_, err := env.orders.UpdateStatus(ctx, order.ID, "admin", models.OrderOutForDelivery, "")
	require.NoError(t, err)

	_, err = env.orders.Cancel(ctx, order.ID, "buyer-1", false, "")
	assert.ErrorIs(t, err, ErrCannotCancel)

	cancelled, err := env.orders.Cancel(ctx, order.ID, "admin", true, "")
	require.NoError(t, err)
	assert.Equal(t, "Cancelled by admin", *cancelled.StatusHistory[0].Notes)

	delivered := placeTestOrder(t, env, "buyer-1", p, 1)
	_, err = env.orders.MarkDelivered(ctx, delivered.ID, "admin")
	require.NoError(t, err)
	_, err = env.orders.Cancel(ctx, delivered.ID, "admin", true, "too late")
	assert.ErrorIs(t, err, ErrCannotCancel)
}

func TestOrderUpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Phones", nil)
	order := placeTestOrder(t, env, "buyer-1", env.product(t, "Phone", "PH-1", cat.ID, "100", 10), 1)

	updated, err := env.orders.UpdateStatus(ctx, order.ID, "admin", models.OrderProcessing, "packing")
	require.NoError(t, err)
	assert.Equal(t, models.OrderProcessing, updated.Status)
	assert.Len(t, updated.StatusHistory, 2)

	_, err = env.orders.UpdateStatus(ctx, order.ID, "admin", models.OrderConfirmed, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.orders.UpdateStatus(ctx, order.ID, "admin", models.OrderStatus(99), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.orders.UpdateStatus(ctx, 9999, "admin", models.OrderConfirmed, "")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{events.OrderPlaced, events.OrderStatusChanged}, env.publisher.types())
}

func TestOrderAssignDeliveryAndDeliver(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Phones", nil)
	order := placeTestOrder(t, env, "buyer-1", env.product(t, "Phone", "PH-1", cat.ID, "100", 10), 1)

	_, err := env.orders.AssignDelivery(ctx, order.ID, "admin", DeliveryInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assigned, err := env.orders.AssignDelivery(ctx, order.ID, "admin", DeliveryInput{DeliveryBoyName: "Asif", PhoneNumber: "0311", VehicleType: "Bike"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderAssignedToRider, assigned.Status)
	require.NotNil(t, assigned.DeliveryAssignment)
	assert.Equal(t, "Asif", assigned.DeliveryAssignment.DeliveryBoyName)

	// Reassigning replaces the rider without another status change.
	reassigned, err := env.orders.AssignDelivery(ctx, order.ID, "admin", DeliveryInput{DeliveryBoyName: "Bilal"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderAssignedToRider, reassigned.Status)
	assert.Equal(t, "Bilal", reassigned.DeliveryAssignment.DeliveryBoyName)
	assert.Equal(t, assigned.DeliveryAssignment.ID, reassigned.DeliveryAssignment.ID)
	assert.Len(t, reassigned.StatusHistory, 2)

	delivered, err := env.orders.MarkDelivered(ctx, order.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, delivered.Status)
	assert.NotNil(t, delivered.DeliveryAssignment.DeliveredDate)
	assert.Equal(t, "Marked as delivered", *delivered.StatusHistory[0].Notes)

	_, err = env.orders.MarkDelivered(ctx, order.ID, "admin")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.orders.UpdateDeliveryTime(ctx, order.ID, "buyer-1", false, "evening")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrderUpdateDeliveryTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Phones", nil)
	order := placeTestOrder(t, env, "buyer-1", env.product(t, "Phone", "PH-1", cat.ID, "100", 10), 1)

	updated, err := env.orders.UpdateDeliveryTime(ctx, order.ID, "buyer-1", false, " 6pm - 9pm ")
	require.NoError(t, err)
	require.NotNil(t, updated.PreferredDeliveryTime)
	assert.Equal(t, "6pm - 9pm", *updated.PreferredDeliveryTime)

	cleared, err := env.orders.UpdateDeliveryTime(ctx, order.ID, "buyer-1", false, "")
	require.NoError(t, err)
	assert.Nil(t, cleared.PreferredDeliveryTime)

	_, err = env.orders.UpdateDeliveryTime(ctx, order.ID, "buyer-2", false, "noon")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderListAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat := env.category(t, "Phones", nil)
	p := env.product(t, "Phone", "PH-1", cat.ID, "100", 10)
	first := placeTestOrder(t, env, "buyer-1", p, 1)
	placeTestOrder(t, env, "buyer-2", p, 1)
	_, err := env.orders.UpdateStatus(ctx, first.ID, "admin", models.OrderConfirmed, "")
	require.NoError(t, err)

	all, err := env.orders.ListAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	confirmed := models.OrderConfirmed
	filtered, err := env.orders.ListAll(ctx, &confirmed)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.ID, filtered[0].ID)
}
