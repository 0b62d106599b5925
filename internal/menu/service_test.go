package menu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
)

func TestSaveCategoryDerivesIdAndDefaults(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestRepo(t))

	first, err := svc.SaveCategory(ctx, CategoryInput{Name: "Pizza Deals!", ShowOnMain: true})
	require.NoError(t, err)
	require.Equal(t, "pizza-deals", first.ID)
	require.Equal(t, DefaultIcon, first.Icon)
	require.Equal(t, DefaultColor, first.Color)
	require.Equal(t, 0, first.SortOrder)

	second, err := svc.SaveCategory(ctx, CategoryInput{Name: "Fast Food", Icon: "🍔"})
	require.NoError(t, err)
	require.Equal(t, 1, second.SortOrder)

	renamed, err := svc.SaveCategory(ctx, CategoryInput{Name: "Pizza Deals"})
	require.NoError(t, err)
	require.Equal(t, "pizza-deals", renamed.ID, "same name overwrites")
	require.Equal(t, 0, renamed.SortOrder)

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)

	_, err = svc.SaveCategory(ctx, CategoryInput{Name: "   "})
	require.ErrorIs(t, err, httpx.ErrValidation)
	_, err = svc.SaveCategory(ctx, CategoryInput{Name: "!!!"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSaveItemPricing(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestRepo(t))
	_, err := svc.SaveCategory(ctx, CategoryInput{ID: "pizza", Name: "Pizza"})
	require.NoError(t, err)

	price := 700.0
	item, err := svc.SaveItem(ctx, ItemInput{CategoryID: "pizza", Name: "Fajita Pizza", Price: &price, SizesText: "Small: 550, Large: 990"})
	require.NoError(t, err)
	require.Equal(t, "fajita-pizza", item.ID)
	require.Nil(t, item.Price, "sizes win over a flat price")
	require.Equal(t, map[string]float64{"small": 550, "large": 990}, item.Sizes)

	flat, err := svc.SaveItem(ctx, ItemInput{CategoryID: "pizza", Name: "Garlic Bread", Price: &price})
	require.NoError(t, err)
	require.Nil(t, flat.Sizes)
	require.Equal(t, 1, flat.SortOrder)

	_, err = svc.SaveItem(ctx, ItemInput{CategoryID: "pizza", Name: "Mystery"})
	require.ErrorIs(t, err, ErrPricingRequired)

	_, err = svc.SaveItem(ctx, ItemInput{CategoryID: "missing", Name: "Orphan", Price: &price})
	require.ErrorIs(t, err, ErrCategoryNotFound)

	negative := -1.0
	_, err = svc.SaveItem(ctx, ItemInput{CategoryID: "pizza", Name: "Cheap", Price: &negative})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
