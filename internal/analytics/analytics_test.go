package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zamzam-pos/zamzam-pos/internal/expenses"
	"github.com/zamzam-pos/zamzam-pos/internal/inventory"
	"github.com/zamzam-pos/zamzam-pos/internal/receipts"
)

func TestDailySalesAggregatesByName(t *testing.T) {
	list := []receipts.Receipt{
		{Total: 300, Items: []receipts.LineItem{{Name: "A", Price: 100, Quantity: 2}}},
		{Total: 150, Items: []receipts.LineItem{{Name: "A", Price: 100, Quantity: 1}, {Name: "B", Price: 50, Quantity: 1}}},
	}

	got := ComputeSalesAnalytics(list)

	require.Equal(t, 450.0, got.TotalRevenue)
	require.Equal(t, 2, got.TotalOrders)
	require.Equal(t, []ItemSales{
		{Name: "A", Quantity: 3, Revenue: 300},
		{Name: "B", Quantity: 1, Revenue: 50},
	}, got.Items)
	require.NotNil(t, got.MostSoldItem)
	require.Equal(t, "A", got.MostSoldItem.Name)
}

func TestSalesTieKeepsFirstSeen(t *testing.T) {
	list := []receipts.Receipt{
		{Total: 10, Items: []receipts.LineItem{{Name: "Kulfi", Price: 5, Quantity: 2}}},
		{Total: 10, Items: []receipts.LineItem{{Name: "Falooda", Price: 5, Quantity: 2}}},
	}
	got := ComputeSalesAnalytics(list)
	require.Equal(t, "Kulfi", got.MostSoldItem.Name)
	require.Equal(t, "Falooda", got.Items[1].Name)
}

func TestSizeVariantsShareABucket(t *testing.T) {
	list := []receipts.Receipt{{Total: 1540, Items: []receipts.LineItem{
		{ID: "pizza-small", Name: "Pizza", Price: 550, Quantity: 1, Size: "small"},
		{ID: "pizza-large", Name: "Pizza", Price: 990, Quantity: 1, Size: "large"},
	}}}
	got := ComputeSalesAnalytics(list)
	require.Len(t, got.Items, 1)
	require.Equal(t, 2, got.Items[0].Quantity)
	require.Equal(t, 1540.0, got.Items[0].Revenue)
}

func TestEmptySales(t *testing.T) {
	got := ComputeSalesAnalytics(nil)
	require.Zero(t, got.TotalRevenue)
	require.Zero(t, got.TotalOrders)
	require.Nil(t, got.MostSoldItem)
	require.NotNil(t, got.Items)
	require.Empty(t, got.Items)
}

func TestResolvePeriod(t *testing.T) {
	ref := at("2024-06-12", 15) // Wednesday

	daily := ResolvePeriod(PeriodDaily, ref, karachi)
	require.WithinDuration(t, at("2024-06-12", 0), daily.Start, 0)
	require.WithinDuration(t, at("2024-06-13", 0).Add(-time.Millisecond), daily.End, 0)

	weekly := ResolvePeriod(PeriodWeekly, ref, karachi)
	require.WithinDuration(t, at("2024-06-10", 0), weekly.Start, 0)
	require.Equal(t, []string{"2024-06-10", "2024-06-11", "2024-06-12", "2024-06-13", "2024-06-14", "2024-06-15", "2024-06-16"}, weekly.Days(karachi))

	sunday := ResolvePeriod(PeriodWeekly, at("2024-06-16", 23), karachi)
	require.WithinDuration(t, weekly.Start, sunday.Start, 0)

	monthly := ResolvePeriod(PeriodMonthly, ref, karachi)
	require.WithinDuration(t, at("2024-06-01", 0), monthly.Start, 0)
	require.Len(t, monthly.Days(karachi), 30)

	feb := MonthWindow(2024, time.February, karachi)
	require.Len(t, feb.Days(karachi), 29)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	require.Equal(t, PeriodMonthly, p)
	p, err = ParsePeriod("Weekly")
	require.NoError(t, err)
	require.Equal(t, PeriodWeekly, p)
	_, err = ParsePeriod("yearly")
	require.Error(t, err)
}

func TestProfitLossCombinesManualAndStockExpenses(t *testing.T) {
	cost := 50.0
	w := ResolvePeriod(PeriodDaily, at("2024-06-12", 10), karachi)

	pl := ComputeProfitLoss(ProfitLossInput{
		Window:   w,
		Location: karachi,
		Receipts: []receipts.Receipt{{ID: "ZZ1", Total: 1000, Date: at("2024-06-12", 13)}},
		Items:    []inventory.Item{{ID: "milk", Name: "Milk", CostPrice: &cost}},
		Log: []inventory.LogEntry{
			{ID: "log_in", ItemID: "milk", Type: inventory.MovementIn, QuantityChange: 3, CreatedAt: at("2024-06-12", 9)},
			{ID: "log_out", ItemID: "milk", Type: inventory.MovementOut, QuantityChange: -1, CreatedAt: at("2024-06-12", 18)},
		},
		Expenses: []expenses.Expense{{ID: "exp_1", Date: "2024-06-12", Amount: 200, Category: "Utilities"}},
	})

	require.Equal(t, 1000.0, pl.TotalRevenue)
	require.Equal(t, 350.0, pl.TotalExpenses)
	require.Equal(t, 650.0, pl.Profit)
	require.Len(t, pl.Expenses, 2)
	require.Equal(t, SourceManual, pl.Expenses[0].Source)
	require.Equal(t, ExpenseLine{ID: "log_in", Date: "2024-06-12", Amount: 150, Description: "Milk", Category: InventoryCategory, Source: SourceInventory}, pl.Expenses[1])
	require.Equal(t, []DayPoint{{Day: "2024-06-12", Label: "Wed 12", Revenue: 1000, Expenses: 350, Profit: 650}}, pl.Days)
}

func TestProfitLossSkipsUncostedAndOutOfWindowRows(t *testing.T) {
	zero := 0.0
	w := ResolvePeriod(PeriodWeekly, at("2024-06-12", 10), karachi)

	pl := ComputeProfitLoss(ProfitLossInput{
		Window:   w,
		Location: karachi,
		Receipts: []receipts.Receipt{
			{Total: 100, Date: at("2024-06-10", 0)},
			{Total: 999, Date: at("2024-06-17", 0)},
		},
		Items: []inventory.Item{{ID: "free", CostPrice: &zero}, {ID: "nocost"}},
		Log: []inventory.LogEntry{
			{ID: "a", ItemID: "free", Type: inventory.MovementIn, QuantityChange: 4, CreatedAt: at("2024-06-11", 1)},
			{ID: "b", ItemID: "nocost", Type: inventory.MovementIn, QuantityChange: 4, CreatedAt: at("2024-06-11", 1)},
			{ID: "c", ItemID: "gone", Type: inventory.MovementIn, QuantityChange: 4, CreatedAt: at("2024-06-11", 1)},
		},
	})

	require.Equal(t, 100.0, pl.TotalRevenue)
	require.Zero(t, pl.TotalExpenses)
	require.Empty(t, pl.Expenses)
	require.Len(t, pl.Days, 7)
}

func TestLogBucketUsesLocalDay(t *testing.T) {
	cost := 10.0
	w := ResolvePeriod(PeriodDaily, at("2024-06-12", 0), karachi)
	// 2024-06-11T20:30Z is 01:30 on the 12th in Karachi.
	created := time.Date(2024, 6, 11, 20, 30, 0, 0, time.UTC)

	pl := ComputeProfitLoss(ProfitLossInput{
		Window:   w,
		Location: karachi,
		Items:    []inventory.Item{{ID: "ice", Name: "Ice", CostPrice: &cost}},
		Log:      []inventory.LogEntry{{ID: "l", ItemID: "ice", Type: inventory.MovementIn, QuantityChange: 2, CreatedAt: created}},
	})
	require.Equal(t, 20.0, pl.TotalExpenses)
	require.Equal(t, "2024-06-12", pl.Expenses[0].Date)
}

func TestEmptyProfitLossEnumeratesDays(t *testing.T) {
	pl := EmptyProfitLoss(MonthWindow(2024, time.June, karachi), karachi)
	require.Len(t, pl.Days, 30)
	require.Equal(t, "1", pl.Days[0].Label)
	for _, d := range pl.Days {
		require.Zero(t, d.Revenue)
		require.Zero(t, d.Expenses)
		require.Zero(t, d.Profit)
	}
	require.NotNil(t, pl.Expenses)
}
