package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/zamzam-pos/zamzam-pos/internal/receipts"
)

// ItemSales aggregates one menu item across a receipt set.
type ItemSales struct {
	Name     string  `json:"name"`
	NameUrdu string  `json:"nameUrdu,omitempty"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// SalesAnalytics summarises a receipt set.
type SalesAnalytics struct {
	TotalRevenue float64     `json:"totalRevenue"`
	TotalOrders  int         `json:"totalOrders"`
	MostSoldItem *ItemSales  `json:"mostSoldItem"`
	Items        []ItemSales `json:"items"`
}

// EmptySales is the zero result returned for an empty or unreadable range.
func EmptySales() SalesAnalytics {
	return SalesAnalytics{Items: []ItemSales{}}
}

// ComputeSalesAnalytics reduces receipts into revenue, order count and a
// per-item breakdown. Revenue trusts each receipt's stored total while item
// revenue is recomputed from the lines. Items are keyed by display name, so
// size variants of one item share a bucket. Ties in quantity keep first-seen
// order.
func ComputeSalesAnalytics(list []receipts.Receipt) SalesAnalytics {
	result := EmptySales()
	if len(list) == 0 {
		return result
	}

	total := decimal.Zero
	type bucket struct {
		item    ItemSales
		revenue decimal.Decimal
	}
	index := make(map[string]int)
	var buckets []*bucket

	for _, rec := range list {
		total = total.Add(decimal.NewFromFloat(rec.Total))
		for _, line := range rec.Items {
			pos, ok := index[line.Name]
			if !ok {
				pos = len(buckets)
				index[line.Name] = pos
				buckets = append(buckets, &bucket{item: ItemSales{Name: line.Name, NameUrdu: line.NameUrdu}})
			}
			b := buckets[pos]
			b.item.Quantity += line.Quantity
			b.revenue = b.revenue.Add(decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}

	result.TotalRevenue = total.InexactFloat64()
	result.TotalOrders = len(list)
	result.Items = make([]ItemSales, 0, len(buckets))
	for _, b := range buckets {
		b.item.Revenue = b.revenue.InexactFloat64()
		result.Items = append(result.Items, b.item)
	}
	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].Quantity > result.Items[j].Quantity
	})
	if len(result.Items) > 0 {
		top := result.Items[0]
		result.MostSoldItem = &top
	}
	return result
}
