package receipts

import (
	"fmt"
	"time"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
)

// IDPrefix starts every generated receipt id.
const IDPrefix = "ZZ"

// LineItem is one cart line captured on a receipt.
type LineItem struct {
	ID       string  `json:"id" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	NameUrdu string  `json:"nameUrdu,omitempty"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gt=0"`
	Size     string  `json:"size,omitempty"`
	Category string  `json:"category,omitempty"`
}

// Amount is price times quantity for the line.
func (l LineItem) Amount() float64 {
	return l.Price * float64(l.Quantity)
}

// Receipt is the immutable record of a completed sale. Total is the snapshot
// taken at checkout and is never recomputed on read.
type Receipt struct {
	ID           string     `json:"id"`
	Items        []LineItem `json:"items"`
	Total        float64    `json:"total"`
	Date         time.Time  `json:"date"`
	CustomerName string     `json:"customerName,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// CartKey identifies a cart line; sized items get one line per size.
func CartKey(itemID, size string) string {
	if size == "" {
		return itemID
	}
	return itemID + "-" + size
}

// Subtotal sums the line amounts.
func Subtotal(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Amount()
	}
	return total
}

// CheckoutInput is a finalised cart handed over by the till.
type CheckoutInput struct {
	Items        []LineItem `json:"items" validate:"required,min=1,dive"`
	CustomerName string     `json:"customerName" validate:"max=120"`
}

// FormatID renders the receipt id for a millisecond clock reading.
func FormatID(unixMilli int64) string {
	return fmt.Sprintf("%s%08d", IDPrefix, unixMilli%100_000_000)
}

// ErrReceiptNotFound indicates no receipt carries the requested id.
var ErrReceiptNotFound = fmt.Errorf("receipts: receipt %w", httpx.ErrNotFound)
