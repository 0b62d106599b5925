package menu

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
)

//go:embed default_menu.json
var defaultMenu []byte

type seedItem struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	NameUrdu string             `json:"nameUrdu"`
	Price    *float64           `json:"price"`
	Sizes    map[string]float64 `json:"sizes"`
}

type seedCategory struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	NameUrdu string     `json:"nameUrdu"`
	Icon     string     `json:"icon"`
	Color    string     `json:"color"`
	Items    []seedItem `json:"items"`
}

// DefaultCatalog returns the built-in first-run menu.
func DefaultCatalog() ([]Section, error) {
	return ParseCatalog(defaultMenu)
}

// ParseCatalog decodes a catalog definition. Sort orders follow document
// order and the deal categories are featured on the home screen.
func ParseCatalog(raw []byte) ([]Section, error) {
	var defs []seedCategory
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("menu: decode catalog: %w", err)
	}
	sections := make([]Section, 0, len(defs))
	for i, def := range defs {
		section := Section{Category: Category{
			ID:         def.ID,
			Name:       def.Name,
			NameUrdu:   def.NameUrdu,
			Icon:       orDefault(def.Icon, DefaultIcon),
			Color:      orDefault(def.Color, DefaultColor),
			ShowOnMain: slices.Contains(FeaturedCategoryIDs, def.ID),
			SortOrder:  i,
		}}
		for j, it := range def.Items {
			item := Item{ID: it.ID, CategoryID: def.ID, Name: it.Name, NameUrdu: it.NameUrdu, SortOrder: j}
			if len(it.Sizes) > 0 {
				item.Sizes = it.Sizes
			} else {
				item.Price = it.Price
			}
			section.Items = append(section.Items, item)
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// Seeder fills an empty catalog once. After that the store is the only
// source of truth and the built-in menu is never consulted again.
type Seeder struct {
	repo    RepositoryPort
	logger  *slog.Logger
	catalog func() ([]Section, error)
}

// NewSeeder builds a Seeder over the built-in catalog.
func NewSeeder(repo RepositoryPort, logger *slog.Logger) *Seeder {
	return &Seeder{repo: repo, logger: logger, catalog: DefaultCatalog}
}

// WithCatalog replaces the catalog source.
func (s *Seeder) WithCatalog(fn func() ([]Section, error)) *Seeder {
	if fn != nil {
		s.catalog = fn
	}
	return s
}

// SeedIfEmpty seeds when no category exists and reports whether it did.
func (s *Seeder) SeedIfEmpty(ctx context.Context) (bool, error) {
	count, err := s.repo.CountCategories(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := s.Seed(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Seed upserts the catalog unconditionally; repeating it never duplicates rows.
func (s *Seeder) Seed(ctx context.Context) error {
	sections, err := s.catalog()
	if err != nil {
		return err
	}
	if err := s.repo.Seed(ctx, sections); err != nil {
		return fmt.Errorf("menu: seed failed: %w", err)
	}
	items := 0
	for _, section := range sections {
		items += len(section.Items)
	}
	if s.logger != nil {
		s.logger.Info("menu seeded", slog.Int("categories", len(sections)), slog.Int("items", items))
	}
	return nil
}
