package export

import (
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/zamzam-pos/zamzam-pos/internal/inventory"
)

// Sheet names of the inventory workbook.
const (
	InventorySheet = "Inventory"
	MovementsSheet = "Movements"
)

// WorkbookInput carries the rows for an inventory workbook.
type WorkbookInput struct {
	Items     []inventory.Item
	Movements []inventory.LogEntry
	Currency  string
	Location  *time.Location
}

// WriteInventoryWorkbook renders stock and movements as two sheets.
func WriteInventoryWorkbook(w io.Writer, in WorkbookInput) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	if err := f.SetSheetName("Sheet1", InventorySheet); err != nil {
		return err
	}
	rows := make([][]string, 0, len(in.Items))
	for _, item := range in.Items {
		rows = append(rows, inventoryRecord(item))
	}
	if err := writeSheet(f, InventorySheet, InventoryHeader(in.Currency), rows, headerStyle); err != nil {
		return err
	}

	if _, err := f.NewSheet(MovementsSheet); err != nil {
		return err
	}
	names := ItemNames(in.Items)
	rows = make([][]string, 0, len(in.Movements))
	for _, entry := range in.Movements {
		rows = append(rows, movementRecord(entry, names, in.Location))
	}
	if err := writeSheet(f, MovementsSheet, MovementHeader, rows, headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 16)
}
