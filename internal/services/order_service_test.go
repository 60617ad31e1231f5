package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunchreports/internal/core"
	"lunchreports/internal/storage/memory"
)

func TestOrderService_PlaceOrder(t *testing.T) {
	ctx := context.Background()
	store := pizzaSchool(t)
	svc := NewOrderService(store, nil)

	order, err := svc.PlaceOrder(ctx, OrderRequest{Item: "Pizza", Student: " Bo "})
	require.NoError(t, err)
	assert.Equal(t, core.DefaultQuantity, order.Quantity)
	assert.IsType(t, core.StudentOrderer{}, order.Orderer)
	assert.NotZero(t, order.ID)

	order, err = svc.PlaceOrder(ctx, OrderRequest{Item: "Water", Teacher: "Ms. Lee", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, order.Quantity)
	assert.IsType(t, core.TeacherOrderer{}, order.Orderer)

	water, _ := store.FindItemByName(ctx, "Water")
	total, _ := store.SumQuantityForItem(ctx, water.ID)
	assert.Equal(t, 2, total)
}

func TestOrderService_Rejects(t *testing.T) {
	cases := []struct {
		name string
		req  OrderRequest
		want error
	}{
		{"no orderer", OrderRequest{Item: "Pizza"}, core.ErrMissingOrderer},
		{"both orderers", OrderRequest{Item: "Pizza", Student: "Ann", Teacher: "Ms. Lee"}, core.ErrMissingOrderer},
		{"negative quantity", OrderRequest{Item: "Pizza", Student: "Ann", Quantity: -1}, core.ErrInvalidQuantity},
		{"unknown item", OrderRequest{Item: "Soup", Student: "Ann"}, core.ErrNotFound},
		{"unknown student", OrderRequest{Item: "Pizza", Student: "Zed"}, core.ErrNotFound},
		{"unknown teacher", OrderRequest{Item: "Pizza", Teacher: "Mr. Nobody"}, core.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewOrderService(pizzaSchool(t), nil)
			_, err := svc.PlaceOrder(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestOrderService_StorageUnavailable(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Close())
	svc := NewOrderService(store, nil)
	_, err := svc.PlaceOrder(context.Background(), OrderRequest{Item: "Pizza", Student: "Ann"})
	assert.ErrorIs(t, err, core.ErrStorageUnavailable)
}
