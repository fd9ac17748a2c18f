package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailable(t *testing.T) {
	assert.Equal(t, 5, Available(5, 0))
	assert.Equal(t, 0, Available(5, 5))
	assert.Equal(t, -2, Available(3, 5))
}

func TestCheck_Status(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		inCart    int
		available int
		status    Status
		canAdd    bool
	}{
		{name: "never stocked", stock: 0, inCart: 0, available: 0, status: StatusSoldOut},
		{name: "cart holds maximum", stock: 4, inCart: 4, available: 0, status: StatusCartMax},
		{name: "stock dropped below cart", stock: 2, inCart: 3, available: -1, status: StatusCartMax},
		{name: "low stock two left", stock: 5, inCart: 3, available: 2, status: StatusLowStock, canAdd: true},
		{name: "low stock one left", stock: 1, inCart: 0, available: 1, status: StatusLowStock, canAdd: true},
		{name: "threshold is in stock", stock: 3, inCart: 0, available: 3, status: StatusInStock, canAdd: true},
		{name: "plenty", stock: 20, inCart: 1, available: 19, status: StatusInStock, canAdd: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("s")
			if tt.inCart > 0 {
				c.Entries = append(c.Entries, Entry{ProductID: "p1", Quantity: tt.inCart})
			}

			a := Check("p1", tt.stock, c)
			assert.Equal(t, tt.available, a.Available)
			assert.Equal(t, tt.status, a.Status)
			assert.Equal(t, tt.canAdd, a.CanAdd())
			assert.Equal(t, tt.inCart, a.InCart)
		})
	}
}

func TestCheck_IsPure(t *testing.T) {
	c := New("s")
	c.Entries = append(c.Entries, Entry{ProductID: "p1", Quantity: 2})

	first := Check("p1", 5, c)
	second := Check("p1", 5, c)
	require.Equal(t, first, second)
	assert.Equal(t, 2, c.Quantity("p1"))
}

func TestCheck_NilCart(t *testing.T) {
	a := Check("p1", 7, nil)
	assert.Equal(t, 7, a.Available)
	assert.Equal(t, 0, a.InCart)
}
