package menu

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
)

// Defaults applied to categories saved without presentation details.
const (
	DefaultIcon  = "📋"
	DefaultColor = "bg-gray-500"
)

// FeaturedCategoryIDs are shown as deals on the till home screen when seeded.
var FeaturedCategoryIDs = []string{"pizza-deals", "burger-deals", "birthday-deals"}

// Category groups sellable items.
type Category struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	NameUrdu   string `json:"nameUrdu"`
	Icon       string `json:"icon"`
	Color      string `json:"color"`
	ShowOnMain bool   `json:"showOnMain"`
	SortOrder  int    `json:"sortOrder"`
}

// Item is a sellable product. Exactly one of Price and Sizes is set.
type Item struct {
	ID         string             `json:"id"`
	CategoryID string             `json:"category"`
	Name       string             `json:"name"`
	NameUrdu   string             `json:"nameUrdu"`
	Price      *float64           `json:"price,omitempty"`
	Sizes      map[string]float64 `json:"sizes,omitempty"`
	SortOrder  int                `json:"sortOrder"`
}

// Sized reports whether the item is priced per size variant.
func (i Item) Sized() bool {
	return len(i.Sizes) > 0
}

// PriceFor resolves the effective price; size is ignored for flat items.
func (i Item) PriceFor(size string) (float64, bool) {
	if i.Sized() {
		p, ok := i.Sizes[size]
		return p, ok
	}
	if i.Price == nil {
		return 0, false
	}
	return *i.Price, true
}

// Section is a category together with its ordered items.
type Section struct {
	Category
	Items []Item `json:"items"`
}

// CategoryInput captures a category create or edit.
type CategoryInput struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required,max=80"`
	NameUrdu   string `json:"nameUrdu" validate:"max=80"`
	Icon       string `json:"icon"`
	Color      string `json:"color"`
	ShowOnMain bool   `json:"showOnMain"`
	SortOrder  *int   `json:"sortOrder" validate:"omitempty,gte=0"`
}

// ItemInput captures an item create or edit. SizesText accepts the
// "Small: 550, Large: 990" shorthand and takes precedence over Sizes.
type ItemInput struct {
	ID         string             `json:"id"`
	CategoryID string             `json:"category" validate:"required"`
	Name       string             `json:"name" validate:"required,max=120"`
	NameUrdu   string             `json:"nameUrdu" validate:"max=120"`
	Price      *float64           `json:"price" validate:"omitempty,gte=0"`
	Sizes      map[string]float64 `json:"sizes" validate:"omitempty,dive,keys,required,endkeys,gte=0"`
	SizesText  string             `json:"sizesText"`
	SortOrder  *int               `json:"sortOrder" validate:"omitempty,gte=0"`
}

var (
	// ErrCategoryNotFound indicates an unknown category id.
	ErrCategoryNotFound = fmt.Errorf("menu: category %w", httpx.ErrNotFound)
	// ErrItemNotFound indicates an unknown item id.
	ErrItemNotFound = fmt.Errorf("menu: item %w", httpx.ErrNotFound)
	// ErrPricingRequired is returned when an item has neither a price nor sizes.
	ErrPricingRequired = fmt.Errorf("%w: enter price or sizes (e.g. Small: 550, Large: 990)", httpx.ErrValidation)
)

var whitespace = regexp.MustCompile(`\s+`)

// ParseSizes reads "Small: 550, Large: 990". Variant names are lowercased
// with spaces turned into underscores; malformed parts are skipped. It
// returns nil when nothing usable was found.
func ParseSizes(text string) map[string]float64 {
	out := make(map[string]float64)
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		idx := strings.LastIndex(part, ":")
		if idx == -1 {
			continue
		}
		name := whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(part[:idx])), "_")
		price, err := strconv.ParseFloat(strings.TrimSpace(part[idx+1:]), 64)
		if name == "" || err != nil {
			continue
		}
		out[name] = price
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FormatSizes renders sizes back to the shorthand, cheapest first.
func FormatSizes(sizes map[string]float64) string {
	names := make([]string, 0, len(sizes))
	for name := range sizes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if sizes[names[i]] != sizes[names[j]] {
			return sizes[names[i]] < sizes[names[j]]
		}
		return names[i] < names[j]
	})
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, strings.ReplaceAll(name, "_", " ")+": "+strconv.FormatFloat(sizes[name], 'f', -1, 64))
	}
	return strings.Join(parts, ", ")
}
