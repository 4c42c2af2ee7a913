package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk/internal/backend"
)

func TestCart_AddThenRemoveRestoresState(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(1, "Laundry", 50000, 2))
	require.NoError(t, c.Add(2, "Minibar", 30000, 1))
	before := c.Items()

	require.NoError(t, c.Add(3, "Spa", 400000, 1))
	require.NoError(t, c.Remove(3))

	assert.ElementsMatch(t, before, c.Items())
}

func TestCart_AddThenRemoveSameServiceRestoresState(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(1, "Laundry", 50000, 2))
	require.NoError(t, c.Add(2, "Minibar", 30000, 1))
	before := c.Items()

	require.NoError(t, c.Add(1, "Laundry", 50000, 1))
	assert.Equal(t, 200000.0+30000.0, c.Total())
	require.NoError(t, c.Remove(1))

	assert.ElementsMatch(t, before, c.Items())
	assert.Equal(t, 130000.0, c.Total())
}

func TestCart_RemoveDropsLatestLine(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(1, "Laundry", 50000, 2))
	require.NoError(t, c.Add(1, "Laundry", 50000, 3))
	require.Len(t, c.Items(), 2)

	require.NoError(t, c.Remove(1))
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	require.NoError(t, c.Remove(1))
	assert.ErrorIs(t, c.Remove(1), ErrServiceNotInCart)
}

func TestCart_Validation(t *testing.T) {
	var c Cart
	assert.ErrorIs(t, c.Add(0, "x", 1, 1), ErrValidation)
	assert.ErrorIs(t, c.Add(1, "x", 1, 0), ErrValidation)
	assert.ErrorIs(t, c.Add(1, "x", -1, 1), ErrValidation)
	assert.ErrorIs(t, c.Remove(9), ErrServiceNotInCart)
	assert.Equal(t, 0, c.Len())
}

func TestCart_ItemsIsACopy(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(1, "Laundry", 10, 1))
	items := c.Items()
	items[0].Quantity = 99

	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestCart_FinalServices(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(1, "Laundry", 10, 2))
	require.NoError(t, c.Add(4, "Minibar", 5, 1))
	require.NoError(t, c.Add(1, "Laundry", 10, 3))

	assert.Equal(t, []backend.FinalService{{ServiceID: 1, Quantity: 5}, {ServiceID: 4, Quantity: 1}}, c.FinalServices())

	c.Clear()
	assert.Empty(t, c.FinalServices())
	assert.Equal(t, 0.0, c.Total())
}
