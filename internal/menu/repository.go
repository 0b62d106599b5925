package menu

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/zamzam-pos/zamzam-pos/internal/store"
)

// Repository persists the catalog in the store.
type Repository struct {
	store *store.Store
}

// NewRepository constructs Repository.
func NewRepository(s *store.Store) *Repository {
	return &Repository{store: s}
}

type categoryRow struct {
	ID         string `db:"id"`
	Name       string `db:"name"`
	NameUrdu   string `db:"name_urdu"`
	Icon       string `db:"icon"`
	Color      string `db:"color"`
	ShowOnMain int    `db:"show_on_main"`
	SortOrder  int    `db:"sort_order"`
}

type itemRow struct {
	ID         string          `db:"id"`
	CategoryID string          `db:"category_id"`
	Name       string          `db:"name"`
	NameUrdu   string          `db:"name_urdu"`
	Price      sql.NullFloat64 `db:"price"`
	SizesJSON  sql.NullString  `db:"sizes_json"`
	SortOrder  int             `db:"sort_order"`
}

const (
	selectCategories = `SELECT id, name, name_urdu, icon, color, show_on_main, sort_order FROM menu_categories`
	selectItems      = `SELECT id, category_id, name, name_urdu, price, sizes_json, sort_order FROM menu_items`

	upsertCategory = `INSERT INTO menu_categories (id, name, name_urdu, icon, color, show_on_main, sort_order)
		VALUES (:id, :name, :name_urdu, :icon, :color, :show_on_main, :sort_order)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			name_urdu = excluded.name_urdu,
			icon = excluded.icon,
			color = excluded.color,
			show_on_main = excluded.show_on_main,
			sort_order = excluded.sort_order`
	upsertItem = `INSERT INTO menu_items (id, category_id, name, name_urdu, price, sizes_json, sort_order)
		VALUES (:id, :category_id, :name, :name_urdu, :price, :sizes_json, :sort_order)
		ON CONFLICT(id) DO UPDATE SET
			category_id = excluded.category_id,
			name = excluded.name,
			name_urdu = excluded.name_urdu,
			price = excluded.price,
			sizes_json = excluded.sizes_json,
			sort_order = excluded.sort_order`
)

// Categories lists categories, featured ones first.
func (r *Repository) Categories(ctx context.Context) ([]Category, error) {
	var rows []categoryRow
	if err := r.store.Select(ctx, &rows, selectCategories+` ORDER BY show_on_main DESC, sort_order ASC`); err != nil {
		return nil, fmt.Errorf("menu: categories: %w", err)
	}
	out := make([]Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.decode())
	}
	return out, nil
}

// Category loads one category.
func (r *Repository) Category(ctx context.Context, id string) (Category, error) {
	var row categoryRow
	err := r.store.Get(ctx, &row, selectCategories+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrCategoryNotFound
	}
	if err != nil {
		return Category{}, fmt.Errorf("menu: category: %w", err)
	}
	return row.decode(), nil
}

// ItemsByCategory lists the items of one category by sort order.
func (r *Repository) ItemsByCategory(ctx context.Context, categoryID string) ([]Item, error) {
	var rows []itemRow
	if err := r.store.Select(ctx, &rows, selectItems+` WHERE category_id = ? ORDER BY sort_order ASC, rowid ASC`, categoryID); err != nil {
		return nil, fmt.Errorf("menu: items: %w", err)
	}
	return decodeItems(rows)
}

// Item loads one item.
func (r *Repository) Item(ctx context.Context, id string) (Item, error) {
	var row itemRow
	err := r.store.Get(ctx, &row, selectItems+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("menu: item: %w", err)
	}
	return row.decode()
}

// FullMenu returns every category with its items.
func (r *Repository) FullMenu(ctx context.Context) ([]Section, error) {
	categories, err := r.Categories(ctx)
	if err != nil {
		return nil, err
	}
	var rows []itemRow
	if err := r.store.Select(ctx, &rows, selectItems+` ORDER BY sort_order ASC, rowid ASC`); err != nil {
		return nil, fmt.Errorf("menu: items: %w", err)
	}
	items, err := decodeItems(rows)
	if err != nil {
		return nil, err
	}
	byCategory := make(map[string][]Item, len(categories))
	for _, item := range items {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}
	out := make([]Section, 0, len(categories))
	for _, cat := range categories {
		list := byCategory[cat.ID]
		if list == nil {
			list = []Item{}
		}
		out = append(out, Section{Category: cat, Items: list})
	}
	return out, nil
}

// CountCategories reports how many categories exist.
func (r *Repository) CountCategories(ctx context.Context) (int, error) {
	var n int
	if err := r.store.Get(ctx, &n, `SELECT COUNT(*) FROM menu_categories`); err != nil {
		return 0, fmt.Errorf("menu: count categories: %w", err)
	}
	return n, nil
}

// CountItems reports how many items a category owns.
func (r *Repository) CountItems(ctx context.Context, categoryID string) (int, error) {
	var n int
	if err := r.store.Get(ctx, &n, `SELECT COUNT(*) FROM menu_items WHERE category_id = ?`, categoryID); err != nil {
		return 0, fmt.Errorf("menu: count items: %w", err)
	}
	return n, nil
}

// SaveCategory upserts by id.
func (r *Repository) SaveCategory(ctx context.Context, cat Category) error {
	return r.store.Write(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, upsertCategory, encodeCategory(cat))
		return err
	})
}

// SaveItem upserts by id.
func (r *Repository) SaveItem(ctx context.Context, item Item) error {
	row, err := encodeItem(item)
	if err != nil {
		return err
	}
	return r.store.Write(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, upsertItem, row)
		return err
	})
}

// DeleteCategory removes the category's items and then the category, in
// one transaction.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	return r.store.Write(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE category_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM menu_categories WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrCategoryNotFound
		}
		return nil
	})
}

// DeleteItem removes one item.
func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	return r.store.Write(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrItemNotFound
		}
		return nil
	})
}

// Seed upserts a whole catalog in one transaction.
func (r *Repository) Seed(ctx context.Context, sections []Section) error {
	return r.store.Write(ctx, func(tx *sqlx.Tx) error {
		for _, section := range sections {
			if _, err := tx.NamedExecContext(ctx, upsertCategory, encodeCategory(section.Category)); err != nil {
				return fmt.Errorf("seed category %s: %w", section.ID, err)
			}
			for _, item := range section.Items {
				row, err := encodeItem(item)
				if err != nil {
					return err
				}
				if _, err := tx.NamedExecContext(ctx, upsertItem, row); err != nil {
					return fmt.Errorf("seed item %s: %w", item.ID, err)
				}
			}
		}
		return nil
	})
}

func encodeCategory(cat Category) categoryRow {
	row := categoryRow{
		ID:        cat.ID,
		Name:      cat.Name,
		NameUrdu:  cat.NameUrdu,
		Icon:      cat.Icon,
		Color:     cat.Color,
		SortOrder: cat.SortOrder,
	}
	if cat.ShowOnMain {
		row.ShowOnMain = 1
	}
	return row
}

func (row categoryRow) decode() Category {
	return Category{
		ID:         row.ID,
		Name:       row.Name,
		NameUrdu:   row.NameUrdu,
		Icon:       row.Icon,
		Color:      row.Color,
		ShowOnMain: row.ShowOnMain != 0,
		SortOrder:  row.SortOrder,
	}
}

// encodeItem stores sizes as JSON and leaves price NULL for sized items.
func encodeItem(item Item) (itemRow, error) {
	row := itemRow{
		ID:         item.ID,
		CategoryID: item.CategoryID,
		Name:       item.Name,
		NameUrdu:   item.NameUrdu,
		SortOrder:  item.SortOrder,
	}
	if item.Sized() {
		raw, err := json.Marshal(item.Sizes)
		if err != nil {
			return itemRow{}, fmt.Errorf("menu: encode sizes of %s: %w", item.ID, err)
		}
		row.SizesJSON = sql.NullString{String: string(raw), Valid: true}
		return row, nil
	}
	if item.Price != nil {
		row.Price = sql.NullFloat64{Float64: *item.Price, Valid: true}
	}
	return row, nil
}

func (row itemRow) decode() (Item, error) {
	item := Item{
		ID:         row.ID,
		CategoryID: row.CategoryID,
		Name:       row.Name,
		NameUrdu:   row.NameUrdu,
		SortOrder:  row.SortOrder,
	}
	if row.SizesJSON.Valid && row.SizesJSON.String != "" {
		if err := json.Unmarshal([]byte(row.SizesJSON.String), &item.Sizes); err != nil {
			return Item{}, fmt.Errorf("menu: decode sizes of %s: %w", row.ID, err)
		}
	}
	if !item.Sized() && row.Price.Valid {
		price := row.Price.Float64
		item.Price = &price
	}
	return item, nil
}

func decodeItems(rows []itemRow) ([]Item, error) {
	out := make([]Item, 0, len(rows))
	for _, row := range rows {
		item, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
