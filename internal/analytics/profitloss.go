package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zamzam-pos/zamzam-pos/internal/expenses"
	"github.com/zamzam-pos/zamzam-pos/internal/inventory"
	"github.com/zamzam-pos/zamzam-pos/internal/receipts"
	"github.com/zamzam-pos/zamzam-pos/internal/shared"
)

// LineSource tells where an expense line came from.
type LineSource string

const (
	SourceManual    LineSource = "manual"
	SourceInventory LineSource = "inventory"
)

// InventoryCategory labels expense lines derived from stock purchases.
const InventoryCategory = "Inventory"

// ExpenseLine is one outflow counted against a period.
type ExpenseLine struct {
	ID          string     `json:"id"`
	Date        string     `json:"date"`
	Amount      float64    `json:"amount"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Source      LineSource `json:"source"`
}

// DayPoint is one entry of the per-day chart series.
type DayPoint struct {
	Day      string  `json:"day"`
	Label    string  `json:"label"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}

// ProfitLoss is the report for one window.
type ProfitLoss struct {
	Window
	TotalRevenue  float64       `json:"totalRevenue"`
	TotalExpenses float64       `json:"totalExpenses"`
	Profit        float64       `json:"profit"`
	Expenses      []ExpenseLine `json:"expenses"`
	Days          []DayPoint    `json:"days"`
}

// ProfitLossInput carries the rows fetched for a window.
type ProfitLossInput struct {
	Window   Window
	Location *time.Location
	Receipts []receipts.Receipt
	Log      []inventory.LogEntry
	Items    []inventory.Item
	Expenses []expenses.Expense
}

// EmptyProfitLoss returns the zero report for w with every day enumerated.
func EmptyProfitLoss(w Window, loc *time.Location) ProfitLoss {
	return ComputeProfitLoss(ProfitLossInput{Window: w, Location: loc})
}

// ComputeProfitLoss buckets revenue and expenses per local day. Rows that
// fall outside the window are ignored so the totals always equal the sum
// of the day series. Stock receipts count as expenses at the item's current
// cost; entries for items without a cost are left out.
func ComputeProfitLoss(in ProfitLossInput) ProfitLoss {
	loc := in.Location
	days := in.Window.Days(loc)
	revenue := make(map[string]decimal.Decimal, len(days))
	spend := make(map[string]decimal.Decimal, len(days))
	for _, d := range days {
		revenue[d] = decimal.Zero
		spend[d] = decimal.Zero
	}

	for _, rec := range in.Receipts {
		day := shared.DayKey(rec.Date, loc)
		if sum, ok := revenue[day]; ok {
			revenue[day] = sum.Add(decimal.NewFromFloat(rec.Total))
		}
	}

	lines := make([]ExpenseLine, 0, len(in.Expenses))
	for _, e := range in.Expenses {
		sum, ok := spend[e.Date]
		if !ok {
			continue
		}
		spend[e.Date] = sum.Add(decimal.NewFromFloat(e.Amount))
		lines = append(lines, ExpenseLine{
			ID:          e.ID,
			Date:        e.Date,
			Amount:      e.Amount,
			Description: e.Description,
			Category:    e.Category,
			Source:      SourceManual,
		})
	}

	items := make(map[string]inventory.Item, len(in.Items))
	for _, item := range in.Items {
		items[item.ID] = item
	}
	for _, entry := range in.Log {
		if entry.Type != inventory.MovementIn || entry.QuantityChange <= 0 {
			continue
		}
		item, ok := items[entry.ItemID]
		if !ok || item.CostPrice == nil || *item.CostPrice <= 0 {
			continue
		}
		day := shared.DayKey(entry.CreatedAt, loc)
		sum, ok := spend[day]
		if !ok {
			continue
		}
		amount := decimal.NewFromFloat(*item.CostPrice).Mul(decimal.NewFromFloat(entry.QuantityChange))
		spend[day] = sum.Add(amount)
		lines = append(lines, ExpenseLine{
			ID:          entry.ID,
			Date:        day,
			Amount:      amount.InexactFloat64(),
			Description: item.Name,
			Category:    InventoryCategory,
			Source:      SourceInventory,
		})
	}

	report := ProfitLoss{Window: in.Window, Expenses: lines, Days: make([]DayPoint, 0, len(days))}
	totalRevenue, totalSpend := decimal.Zero, decimal.Zero
	for _, d := range days {
		rev, exp := revenue[d], spend[d]
		totalRevenue = totalRevenue.Add(rev)
		totalSpend = totalSpend.Add(exp)
		report.Days = append(report.Days, DayPoint{
			Day:      d,
			Label:    dayLabel(d, in.Window.Period, loc),
			Revenue:  rev.InexactFloat64(),
			Expenses: exp.InexactFloat64(),
			Profit:   rev.Sub(exp).InexactFloat64(),
		})
	}
	report.TotalRevenue = totalRevenue.InexactFloat64()
	report.TotalExpenses = totalSpend.InexactFloat64()
	report.Profit = totalRevenue.Sub(totalSpend).InexactFloat64()
	return report
}

// dayLabel is the short chart label: "Mon 3" for short windows, "3" for months.
func dayLabel(day string, period Period, loc *time.Location) string {
	t, err := shared.ParseDay(day, loc)
	if err != nil {
		return day
	}
	if period == PeriodMonthly {
		return t.Format("2")
	}
	return t.Format("Mon 2")
}
