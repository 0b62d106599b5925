package inventory

import (
	"fmt"
	"time"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
)

// MovementType enumerates supported inventory movements.
type MovementType string

const (
	// MovementIn represents stock added.
	MovementIn MovementType = "in"
	// MovementOut represents stock removed.
	MovementOut MovementType = "out"
	// MovementAdjust marks a stock-count correction requested explicitly.
	MovementAdjust MovementType = "adjust"
)

// MovementFor derives the log type of a quantity change.
func MovementFor(delta float64, adjust bool) MovementType {
	switch {
	case adjust:
		return MovementAdjust
	case delta > 0:
		return MovementIn
	default:
		return MovementOut
	}
}

// Units lists the accepted units of measure.
var Units = []string{"pcs", "kg", "L", "box", "pack", "dozen"}

// DefaultUnit applies when an item is saved without a unit.
const DefaultUnit = "pcs"

// Reasons recorded when the caller leaves the reason empty.
const (
	ReasonReceived = "Stock received"
	ReasonOpening  = "Opening stock"
	ReasonEdited   = "Item edited"
)

// DefaultLogLimit caps log listings without an explicit limit.
const DefaultLogLimit = 100

// Item is a stock-keeping unit, independent from the sellable menu.
type Item struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	NameUrdu   string    `json:"nameUrdu"`
	Quantity   float64   `json:"quantity"`
	Unit       string    `json:"unit"`
	LowStockAt *float64  `json:"lowStockAt"`
	Category   string    `json:"category"`
	CostPrice  *float64  `json:"costPrice"`
	Notes      string    `json:"notes"`
	MaxStock   *float64  `json:"maxStock"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IsLow reports whether a threshold is set and the quantity is at or below it.
func (i Item) IsLow() bool {
	return i.LowStockAt != nil && i.Quantity <= *i.LowStockAt
}

// LogEntry is one append-only movement row.
type LogEntry struct {
	ID             string       `json:"id"`
	ItemID         string       `json:"itemId"`
	Type           MovementType `json:"type"`
	QuantityChange float64      `json:"quantityChange"`
	QuantityAfter  float64      `json:"quantityAfter"`
	Reason         string       `json:"reason,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// ItemInput captures an item create or edit. A nil Quantity keeps the
// current stock (zero for a new item).
type ItemInput struct {
	ID         string   `json:"id"`
	Name       string   `json:"name" validate:"required,max=120"`
	NameUrdu   string   `json:"nameUrdu" validate:"max=120"`
	Quantity   *float64 `json:"quantity" validate:"omitempty,gte=0"`
	Unit       string   `json:"unit" validate:"omitempty,oneof=pcs kg L box pack dozen"`
	LowStockAt *float64 `json:"lowStockAt" validate:"omitempty,gte=0"`
	Category   string   `json:"category" validate:"max=60"`
	CostPrice  *float64 `json:"costPrice" validate:"omitempty,gte=0"`
	Notes      string   `json:"notes" validate:"max=500"`
	MaxStock   *float64 `json:"maxStock" validate:"omitempty,gte=0"`
	Reason     string   `json:"reason" validate:"max=200"`
}

// ReceiveInput adds stock to an item.
type ReceiveInput struct {
	Quantity float64 `json:"quantity" validate:"gt=0"`
	Reason   string  `json:"reason" validate:"max=200"`
}

// AdjustInput sets an item's quantity to a counted value.
type AdjustInput struct {
	Quantity float64 `json:"quantity" validate:"gte=0"`
	Reason   string  `json:"reason" validate:"max=200"`
	// Adjust tags the movement as a correction instead of in/out.
	Adjust bool `json:"adjust"`
}

// LogFilter narrows log listings.
type LogFilter struct {
	ItemID string
	Limit  int
}

// MovementReport summarises movements within a window.
type MovementReport struct {
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	StockIn     float64    `json:"stockIn"`
	StockOut    float64    `json:"stockOut"`
	Adjustments int        `json:"adjustments"`
	Entries     []LogEntry `json:"entries"`
}

// Summarize totals positive and negative changes and counts corrections.
func Summarize(start, end time.Time, entries []LogEntry) MovementReport {
	report := MovementReport{Start: start, End: end, Entries: entries}
	if report.Entries == nil {
		report.Entries = []LogEntry{}
	}
	for _, e := range entries {
		switch {
		case e.QuantityChange > 0:
			report.StockIn += e.QuantityChange
		case e.QuantityChange < 0:
			report.StockOut -= e.QuantityChange
		}
		if e.Type == MovementAdjust {
			report.Adjustments++
		}
	}
	return report
}

var (
	// ErrItemNotFound indicates an unknown inventory item.
	ErrItemNotFound = fmt.Errorf("inventory: item %w", httpx.ErrNotFound)
	// ErrNegativeStock triggered when a movement would leave a negative quantity.
	ErrNegativeStock = fmt.Errorf("%w: quantity must be 0 or more", httpx.ErrValidation)
)
