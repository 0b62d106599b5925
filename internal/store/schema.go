package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/zamzam-pos/zamzam-pos/internal/platform/db"
	"github.com/zamzam-pos/zamzam-pos/internal/shared"
)

type migration struct {
	version int
	name    string
	apply   func(ctx context.Context, tx *sqlx.Tx) error
}

const nowExpr = `(strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))`

// Steps must stay idempotent: images written before schema_migrations existed
// already carry some of these objects.
var migrations = []migration{
	{version: 1, name: "ledger tables", apply: execAll(
		`CREATE TABLE IF NOT EXISTS receipts (
			id TEXT PRIMARY KEY,
			receipt_number TEXT NOT NULL UNIQUE,
			items TEXT NOT NULL,
			total REAL NOT NULL,
			date TEXT NOT NULL,
			customer_name TEXT,
			created_at TEXT DEFAULT `+nowExpr+`
		)`,
		`CREATE INDEX IF NOT EXISTS idx_receipts_date ON receipts(date)`,
		`CREATE INDEX IF NOT EXISTS idx_receipts_receipt_number ON receipts(receipt_number)`,
		`CREATE INDEX IF NOT EXISTS idx_receipts_created_at ON receipts(created_at)`,
		`CREATE TABLE IF NOT EXISTS menu_categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			name_urdu TEXT NOT NULL DEFAULT '',
			icon TEXT NOT NULL DEFAULT '📋',
			color TEXT NOT NULL DEFAULT 'bg-gray-500',
			show_on_main INTEGER NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS menu_items (
			id TEXT PRIMARY KEY,
			category_id TEXT NOT NULL,
			name TEXT NOT NULL,
			name_urdu TEXT NOT NULL DEFAULT '',
			price REAL,
			sizes_json TEXT,
			sort_order INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (category_id) REFERENCES menu_categories(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_menu_items_category ON menu_items(category_id)`,
		`CREATE TABLE IF NOT EXISTS inventory_items (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			name_urdu TEXT DEFAULT '',
			quantity REAL NOT NULL DEFAULT 0,
			unit TEXT NOT NULL DEFAULT 'pcs',
			low_stock_at REAL,
			created_at TEXT DEFAULT `+nowExpr+`,
			updated_at TEXT DEFAULT `+nowExpr+`
		)`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_quantity ON inventory_items(quantity)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			amount REAL NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'Other',
			created_at TEXT DEFAULT `+nowExpr+`
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(date)`,
	)},
	{version: 2, name: "inventory item details", apply: addColumns("inventory_items", []column{
		{name: "category", ddl: `category TEXT DEFAULT ''`},
		{name: "cost_price", ddl: `cost_price REAL`},
		{name: "notes", ddl: `notes TEXT DEFAULT ''`},
		{name: "max_stock", ddl: `max_stock REAL`},
	})},
	{version: 3, name: "inventory movement log", apply: execAll(
		`CREATE TABLE IF NOT EXISTS inventory_log (
			id TEXT PRIMARY KEY,
			item_id TEXT NOT NULL,
			type TEXT NOT NULL,
			quantity_change REAL NOT NULL,
			quantity_after REAL NOT NULL,
			reason TEXT,
			created_at TEXT DEFAULT `+nowExpr+`,
			FOREIGN KEY (item_id) REFERENCES inventory_items(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_log_item ON inventory_log(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_log_created ON inventory_log(created_at)`,
	)},
	{version: 4, name: "normalise legacy timestamps", apply: normaliseTimestamps(map[string][]string{
		"receipts":        {"date", "created_at"},
		"inventory_items": {"created_at", "updated_at"},
		"inventory_log":   {"created_at"},
		"expenses":        {"created_at"},
	})},
}

// SchemaVersion is the version reached after every migration has run.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// migrate applies each missing step once, in order, and reports how many ran.
func migrate(ctx context.Context, conn *sqlx.DB) (int, error) {
	if _, err := conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return 0, fmt.Errorf("store: create schema_migrations: %w", err)
	}

	var current int
	if err := conn.GetContext(ctx, &current, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return 0, fmt.Errorf("store: read schema version: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := db.WithTx(ctx, conn, func(tx *sqlx.Tx) error {
			if err := m.apply(ctx, tx); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
				m.version, m.name, shared.FormatTimestamp(time.Now()))
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("store: migration %d (%s): %w", m.version, m.name, err)
		}
		applied++
	}
	return applied, nil
}

func execAll(statements ...string) func(context.Context, *sqlx.Tx) error {
	return func(ctx context.Context, tx *sqlx.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

// legacyTimestamp matches datetime('now') text, which sorts before the
// stored ISO form on the same day.
const legacyTimestamp = `'[0-9][0-9][0-9][0-9]-[0-9][0-9]-[0-9][0-9] [0-9][0-9]:[0-9][0-9]:[0-9][0-9]*'`

// normaliseTimestamps rewrites UTC "YYYY-MM-DD HH:MM:SS" values to the
// stored "YYYY-MM-DDTHH:MM:SS.sssZ" form so text range filters see them.
func normaliseTimestamps(tables map[string][]string) func(context.Context, *sqlx.Tx) error {
	return func(ctx context.Context, tx *sqlx.Tx) error {
		names := make([]string, 0, len(tables))
		for table := range tables {
			names = append(names, table)
		}
		slices.Sort(names)
		for _, table := range names {
			for _, col := range tables[table] {
				stmt := fmt.Sprintf(`UPDATE %[1]s SET %[2]s = strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', %[2]s)
					WHERE %[2]s GLOB %[3]s AND strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', %[2]s) IS NOT NULL`, table, col, legacyTimestamp)
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("normalise %s.%s: %w", table, col, err)
				}
			}
		}
		return nil
	}
}

type column struct {
	name string
	ddl  string
}

func addColumns(table string, columns []column) func(context.Context, *sqlx.Tx) error {
	return func(ctx context.Context, tx *sqlx.Tx) error {
		for _, col := range columns {
			var exists int
			if err := tx.GetContext(ctx, &exists,
				`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, col.name); err != nil {
				return err
			}
			if exists > 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s`, table, col.ddl)); err != nil {
				return err
			}
		}
		return nil
	}
}
