package receipts

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
)

type memoryRepo struct {
	receipts map[string]Receipt
	ranges   [][2]time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{receipts: make(map[string]Receipt)}
}

func (r *memoryRepo) Save(ctx context.Context, rec Receipt) error {
	r.receipts[rec.ID] = rec
	return nil
}

func (r *memoryRepo) ByDateRange(ctx context.Context, start, end time.Time) ([]Receipt, error) {
	r.ranges = append(r.ranges, [2]time.Time{start, end})
	var out []Receipt
	for _, rec := range r.receipts {
		if !rec.Date.Before(start) && !rec.Date.After(end) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepo) All(ctx context.Context) ([]Receipt, error) {
	return r.ByDateRange(ctx, time.Time{}, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
}

func (r *memoryRepo) Get(ctx context.Context, id string) (Receipt, error) {
	rec, ok := r.receipts[id]
	if !ok {
		return Receipt{}, ErrReceiptNotFound
	}
	return rec, nil
}

func TestCheckoutSnapshotsTotalAndId(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, time.UTC)
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return now })
	ctx := context.Background()

	rec, err := svc.Checkout(ctx, CheckoutInput{Items: []LineItem{
		{ID: CartKey("pizza", "large"), Name: "Pizza", Price: 990, Quantity: 1, Size: "large"},
		{ID: "zinger", Name: "Zinger Burger", Price: 150, Quantity: 2},
	}})
	require.NoError(t, err)
	require.InDelta(t, 1290, rec.Total, 0.0001)
	require.Equal(t, FormatID(now.UnixMilli()), rec.ID)
	require.Len(t, rec.ID, 10)
	require.Equal(t, "pizza-large", rec.Items[0].ID)

	again, err := svc.Checkout(ctx, CheckoutInput{Items: []LineItem{{ID: "tea", Name: "Tea", Price: 60, Quantity: 1}}})
	require.NoError(t, err)
	require.NotEqual(t, rec.ID, again.ID)
	require.Len(t, repo.receipts, 2)
}

func TestCheckoutRejectsInvalidCart(t *testing.T) {
	svc := NewService(newMemoryRepo(), time.UTC)
	ctx := context.Background()

	_, err := svc.Checkout(ctx, CheckoutInput{})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Checkout(ctx, CheckoutInput{Items: []LineItem{{ID: "tea", Name: "Tea", Price: 60, Quantity: 0}}})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Checkout(ctx, CheckoutInput{Items: []LineItem{{ID: "tea", Name: "", Price: 60, Quantity: 1}}})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestTodayAndMonthlyWindowsUseLocation(t *testing.T) {
	loc := time.FixedZone("PKT", 5*60*60)
	repo := newMemoryRepo()
	svc := NewService(repo, loc)
	svc.WithNow(func() time.Time { return time.Date(2025, 2, 14, 23, 30, 0, 0, loc) })
	ctx := context.Background()

	_, err := svc.Today(ctx)
	require.NoError(t, err)
	_, err = svc.Monthly(ctx, 2025, time.February)
	require.NoError(t, err)

	require.Len(t, repo.ranges, 2)
	require.WithinDuration(t, time.Date(2025, 2, 14, 0, 0, 0, 0, loc), repo.ranges[0][0], 0)
	require.WithinDuration(t, time.Date(2025, 2, 14, 23, 59, 59, int(999*time.Millisecond), loc), repo.ranges[0][1], 0)
	require.WithinDuration(t, time.Date(2025, 2, 1, 0, 0, 0, 0, loc), repo.ranges[1][0], 0)
	require.WithinDuration(t, time.Date(2025, 2, 28, 23, 59, 59, int(999*time.Millisecond), loc), repo.ranges[1][1], 0)
}

func TestSaveFillsMissingFields(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, time.UTC)
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return now })

	rec, err := svc.Save(context.Background(), Receipt{Total: 50})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.WithinDuration(t, now, rec.Date, 0)
}

func TestFormatIDKeepsLastEightDigits(t *testing.T) {
	require.Equal(t, "ZZ00000042", FormatID(42))
	require.Equal(t, "ZZ23456789", FormatID(123456789))
}
