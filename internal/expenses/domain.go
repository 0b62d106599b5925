package expenses

import (
	"fmt"
	"time"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
)

// Categories lists the accepted expense categories.
var Categories = []string{"Rent", "Utilities", "Supplies", "Salaries", "Other", "Inventory"}

// DefaultCategory applies when none is given.
const DefaultCategory = "Other"

// IDPrefix starts every generated expense id.
const IDPrefix = "exp_"

// Expense is a manual outflow recorded for one day.
type Expense struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Input captures a new or replaced expense. An empty date means today.
type Input struct {
	ID          string  `json:"id"`
	Date        string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Description string  `json:"description" validate:"max=200"`
	Category    string  `json:"category" validate:"omitempty,oneof=Rent Utilities Supplies Salaries Other Inventory"`
}

// ErrExpenseNotFound indicates an unknown expense id.
var ErrExpenseNotFound = fmt.Errorf("expenses: expense %w", httpx.ErrNotFound)
