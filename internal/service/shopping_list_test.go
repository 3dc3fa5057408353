package service_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

var listItems = []types.ShoppingListItem{
	{Name: "sea salt", MeasurementUnit: "g", Total: 5},
	{Name: "water", MeasurementUnit: "ml", Total: 300},
}

func TestRenderShoppingListText(t *testing.T) {
	got := string(service.RenderShoppingListText("ann", listItems))
	want := "Shopping list for ann\n" +
		"Products:\n" +
		"1. Sea Salt (g) — 5\n" +
		"2. Water (ml) — 300"
	assert.Equal(t, want, got)

	assert.Equal(t, "Shopping list for ann\nProducts:", string(service.RenderShoppingListText("ann", nil)))
}

func TestRenderShoppingListXLSX(t *testing.T) {
	data, err := service.RenderShoppingListXLSX("ann", listItems)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Shopping list")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Shopping list for ann", rows[0][0])
	assert.Equal(t, []string{"#", "Product", "Unit", "Total"}, rows[1])
	assert.Equal(t, []string{"1", "Sea Salt", "g", "5"}, rows[2])
	assert.Equal(t, []string{"2", "Water", "ml", "300"}, rows[3])
}
