// Package export renders report data as downloadable CSV and XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/zamzam-pos/zamzam-pos/internal/analytics"
	"github.com/zamzam-pos/zamzam-pos/internal/inventory"
)

// DateTimeLayout renders movement timestamps in the shop's zone.
const DateTimeLayout = "2006-01-02 15:04"

// InventoryHeader lists the stock export columns for the given currency.
func InventoryHeader(currency string) []string {
	return []string{"Name", "Quantity", "Unit", fmt.Sprintf("Cost (%s)", currency), "Warn below"}
}

// MovementHeader lists the movement report columns.
var MovementHeader = []string{"Item", "Type", "Change", "After", "Reason", "Date"}

// WriteInventoryCSV serialises stock items.
func WriteInventoryCSV(w io.Writer, items []inventory.Item, currency string) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(InventoryHeader(currency)); err != nil {
		return err
	}
	for _, item := range items {
		if err := writer.Write(inventoryRecord(item)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteMovementsCSV emits movement log entries. names maps item ids to
// display names; entries of deleted items fall back to the id.
func WriteMovementsCSV(w io.Writer, entries []inventory.LogEntry, names map[string]string, loc *time.Location) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(MovementHeader); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := writer.Write(movementRecord(entry, names, loc)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteProfitLossCSV emits the day series followed by a totals row and the
// expense lines.
func WriteProfitLossCSV(w io.Writer, report analytics.ProfitLoss) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Day", "Revenue", "Expenses", "Profit"}); err != nil {
		return err
	}
	for _, day := range report.Days {
		if err := writer.Write([]string{day.Day, formatFloat(day.Revenue), formatFloat(day.Expenses), formatFloat(day.Profit)}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"Total", formatFloat(report.TotalRevenue), formatFloat(report.TotalExpenses), formatFloat(report.Profit)}); err != nil {
		return err
	}
	if len(report.Expenses) > 0 {
		if err := writer.Write(nil); err != nil {
			return err
		}
		if err := writer.Write([]string{"Date", "Description", "Category", "Source", "Amount"}); err != nil {
			return err
		}
		for _, line := range report.Expenses {
			if err := writer.Write([]string{line.Date, line.Description, line.Category, string(line.Source), formatFloat(line.Amount)}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// ItemNames indexes display names by item id.
func ItemNames(items []inventory.Item) map[string]string {
	names := make(map[string]string, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
	}
	return names
}

func inventoryRecord(item inventory.Item) []string {
	return []string{
		item.Name,
		formatFloat(item.Quantity),
		item.Unit,
		formatOptional(item.CostPrice),
		formatOptional(item.LowStockAt),
	}
}

func movementRecord(entry inventory.LogEntry, names map[string]string, loc *time.Location) []string {
	name := names[entry.ItemID]
	if name == "" {
		name = entry.ItemID
	}
	if loc == nil {
		loc = time.Local
	}
	return []string{
		name,
		string(entry.Type),
		formatSigned(entry.QuantityChange),
		formatFloat(entry.QuantityAfter),
		entry.Reason,
		entry.CreatedAt.In(loc).Format(DateTimeLayout),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatSigned(v float64) string {
	if v > 0 {
		return "+" + formatFloat(v)
	}
	return formatFloat(v)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
