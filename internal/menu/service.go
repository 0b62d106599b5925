package menu

import (
	"context"
	"fmt"
	"strings"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
	"github.com/zamzam-pos/zamzam-pos/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Categories(ctx context.Context) ([]Category, error)
	Category(ctx context.Context, id string) (Category, error)
	ItemsByCategory(ctx context.Context, categoryID string) ([]Item, error)
	Item(ctx context.Context, id string) (Item, error)
	FullMenu(ctx context.Context) ([]Section, error)
	CountCategories(ctx context.Context) (int, error)
	CountItems(ctx context.Context, categoryID string) (int, error)
	SaveCategory(ctx context.Context, cat Category) error
	SaveItem(ctx context.Context, item Item) error
	DeleteCategory(ctx context.Context, id string) error
	DeleteItem(ctx context.Context, id string) error
	Seed(ctx context.Context, sections []Section) error
}

// Service manages the catalog.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Categories lists categories, featured ones first.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.Categories(ctx)
}

// ItemsByCategory lists one category's items.
func (s *Service) ItemsByCategory(ctx context.Context, categoryID string) ([]Item, error) {
	return s.repo.ItemsByCategory(ctx, categoryID)
}

// FullMenu returns the catalog as the till renders it.
func (s *Service) FullMenu(ctx context.Context) ([]Section, error) {
	return s.repo.FullMenu(ctx)
}

// SaveCategory creates or overwrites a category. Without an id one is
// derived from the name; an existing row under that id is overwritten.
func (s *Service) SaveCategory(ctx context.Context, input CategoryInput) (Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := httpx.Validate(input); err != nil {
		return Category{}, err
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = shared.Slug(input.Name)
	}
	if id == "" {
		return Category{}, fmt.Errorf("%w: name must contain letters or digits", httpx.ErrValidation)
	}
	cat := Category{
		ID:         id,
		Name:       input.Name,
		NameUrdu:   input.NameUrdu,
		Icon:       orDefault(input.Icon, DefaultIcon),
		Color:      orDefault(input.Color, DefaultColor),
		ShowOnMain: input.ShowOnMain,
	}
	switch {
	case input.SortOrder != nil:
		cat.SortOrder = *input.SortOrder
	default:
		order, err := s.categorySortOrder(ctx, id)
		if err != nil {
			return Category{}, err
		}
		cat.SortOrder = order
	}
	if err := s.repo.SaveCategory(ctx, cat); err != nil {
		return Category{}, err
	}
	return cat, nil
}

// SaveItem creates or overwrites an item. Sizes win over a flat price so the
// two pricing modes never coexist.
func (s *Service) SaveItem(ctx context.Context, input ItemInput) (Item, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := httpx.Validate(input); err != nil {
		return Item{}, err
	}
	if _, err := s.repo.Category(ctx, input.CategoryID); err != nil {
		return Item{}, err
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = shared.Slug(input.Name)
	}
	if id == "" {
		return Item{}, fmt.Errorf("%w: name must contain letters or digits", httpx.ErrValidation)
	}

	sizes := input.Sizes
	if strings.TrimSpace(input.SizesText) != "" {
		sizes = ParseSizes(input.SizesText)
	}
	item := Item{ID: id, CategoryID: input.CategoryID, Name: input.Name, NameUrdu: input.NameUrdu}
	switch {
	case len(sizes) > 0:
		item.Sizes = sizes
	case input.Price != nil:
		price := *input.Price
		item.Price = &price
	default:
		return Item{}, ErrPricingRequired
	}

	if input.SortOrder != nil {
		item.SortOrder = *input.SortOrder
	} else {
		order, err := s.itemSortOrder(ctx, id, input.CategoryID)
		if err != nil {
			return Item{}, err
		}
		item.SortOrder = order
	}
	if err := s.repo.SaveItem(ctx, item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// DeleteCategory removes a category and every item it owns.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.repo.DeleteCategory(ctx, id)
}

// DeleteItem removes one item.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return s.repo.DeleteItem(ctx, id)
}

// Existing rows keep their position; new ones go last.
func (s *Service) categorySortOrder(ctx context.Context, id string) (int, error) {
	if existing, err := s.repo.Category(ctx, id); err == nil {
		return existing.SortOrder, nil
	}
	return s.repo.CountCategories(ctx)
}

func (s *Service) itemSortOrder(ctx context.Context, id, categoryID string) (int, error) {
	if existing, err := s.repo.Item(ctx, id); err == nil && existing.CategoryID == categoryID {
		return existing.SortOrder, nil
	}
	return s.repo.CountItems(ctx, categoryID)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
