package service

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	ShoppingListTextName = "shopping_list.txt"
	ShoppingListXLSXName = "shopping_list.xlsx"

	shoppingListSheet = "Shopping list"
)

// RenderShoppingListText renders the plain text shopping list:
//
//	Shopping list for <username>
//	Products:
//	1. Salt (g) — 5
func RenderShoppingListText(username string, items []types.ShoppingListItem) []byte {
	caser := cases.Title(language.Und)

	lines := make([]string, 0, len(items)+2)
	lines = append(lines, "Shopping list for "+username, "Products:")
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s (%s) — %d",
			i+1, caser.String(item.Name), item.MeasurementUnit, item.Total))
	}
	return []byte(strings.Join(lines, "\n"))
}

// RenderShoppingListXLSX renders the same rows as a spreadsheet with a bold header.
func RenderShoppingListXLSX(username string, items []types.ShoppingListItem) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", shoppingListSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	caser := cases.Title(language.Und)
	set := func(col, row int, value interface{}) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(shoppingListSheet, cell, value)
	}

	if err := set(1, 1, "Shopping list for "+username); err != nil {
		return nil, fmt.Errorf("failed to write title: %w", err)
	}
	for col, header := range []string{"#", "Product", "Unit", "Total"} {
		if err := set(col+1, 2, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(shoppingListSheet, "A1", "D2", headerStyle)
	}

	for i, item := range items {
		row := i + 3
		values := []interface{}{i + 1, caser.String(item.Name), item.MeasurementUnit, item.Total}
		for col, value := range values {
			if err := set(col+1, row, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}
	_ = f.SetColWidth(shoppingListSheet, "B", "B", 32)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}
