// Package persistence provides SQLite storage for shop state, the host
// variable store and the trade journal.
package persistence

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/caravan-market/internal/economy"
)

// DB wraps a SQLite connection for economy persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shop_timers (
		shop TEXT PRIMARY KEY,
		timer INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shop_stock (
		shop TEXT NOT NULL,
		item_id INTEGER NOT NULL,
		stock INTEGER NOT NULL,
		PRIMARY KEY (shop, item_id)
	);

	CREATE TABLE IF NOT EXISTS variables (
		key INTEGER PRIMARY KEY,
		value REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		tick INTEGER NOT NULL,
		kind TEXT NOT NULL,
		shop TEXT NOT NULL,
		item_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		price INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_events_shop ON events(shop);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type stockRow struct {
	Shop   string `db:"shop"`
	ItemID int    `db:"item_id"`
	Stock  int    `db:"stock"`
}

type timerRow struct {
	Shop  string `db:"shop"`
	Timer int    `db:"timer"`
}

// SaveState writes the ledger and restock timers (full replace).
func (db *DB) SaveState(s economy.State) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM shop_timers"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM shop_stock"); err != nil {
		return err
	}

	stmt, err := tx.Preparex("INSERT INTO shop_stock (shop, item_id, stock) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for name, shop := range s.Shops {
		if _, err := tx.Exec("INSERT INTO shop_timers (shop, timer) VALUES (?, ?)", name, shop.Timer); err != nil {
			return fmt.Errorf("insert timer %q: %w", name, err)
		}
		for id, stock := range shop.Stock {
			if _, err := stmt.Exec(name, id, stock); err != nil {
				return fmt.Errorf("insert stock %q/%d: %w", name, id, err)
			}
		}
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		"global_timer", strconv.Itoa(s.GlobalTimer),
	); err != nil {
		return err
	}

	return tx.Commit()
}

// LoadState reads the saved ledger and timers. Shops with stock rows but
// no timer row load with timer 0.
func (db *DB) LoadState() (economy.State, error) {
	s := economy.State{Shops: make(map[string]economy.ShopState)}

	var timers []timerRow
	if err := db.conn.Select(&timers, "SELECT shop, timer FROM shop_timers"); err != nil {
		return s, fmt.Errorf("load timers: %w", err)
	}
	for _, r := range timers {
		s.Shops[r.Shop] = economy.ShopState{Timer: r.Timer, Stock: make(map[int]int)}
	}

	var stock []stockRow
	if err := db.conn.Select(&stock, "SELECT shop, item_id, stock FROM shop_stock"); err != nil {
		return s, fmt.Errorf("load stock: %w", err)
	}
	for _, r := range stock {
		shop, ok := s.Shops[r.Shop]
		if !ok {
			shop = economy.ShopState{Stock: make(map[int]int)}
			s.Shops[r.Shop] = shop
		}
		shop.Stock[r.ItemID] = r.Stock
	}

	if v, err := db.GetMeta("global_timer"); err == nil {
		s.GlobalTimer, _ = strconv.Atoi(v)
	}
	return s, nil
}

// HasShopState reports whether a ledger was saved before.
func (db *DB) HasShopState() bool {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM shop_timers"); err != nil {
		return false
	}
	return count > 0
}

type variableRow struct {
	Key   int     `db:"key"`
	Value float64 `db:"value"`
}

// SaveVariables writes the variable store (full replace).
func (db *DB) SaveVariables(values map[int]float64) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM variables"); err != nil {
		return err
	}
	for k, v := range values {
		if _, err := tx.Exec("INSERT INTO variables (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("insert variable %d: %w", k, err)
		}
	}

	return tx.Commit()
}

// LoadVariables reads the saved variable store.
func (db *DB) LoadVariables() (map[int]float64, error) {
	var rows []variableRow
	if err := db.conn.Select(&rows, "SELECT key, value FROM variables"); err != nil {
		return nil, err
	}
	out := make(map[int]float64, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// SaveEvents appends journal entries. Entries already stored are skipped.
func (db *DB) SaveEvents(events []economy.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.NamedExec(`INSERT OR IGNORE INTO events
			(id, tick, kind, shop, item_id, quantity, price)
			VALUES (:id, :tick, :kind, :shop, :item_id, :quantity, :price)`, e)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]economy.Event, error) {
	var events []economy.Event
	err := db.conn.Select(&events,
		"SELECT id, tick, kind, shop, item_id, quantity, price FROM events ORDER BY tick DESC, rowid DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// SaveEconomy performs a full save: ledger, timers, variables, pending
// journal entries and the tick.
func (db *DB) SaveEconomy(econ *economy.Economy, vars *economy.MemoryStore, tick uint64) error {
	state := econ.Snapshot()
	slog.Info("saving economy", "shops", len(state.Shops), "tick", tick)

	if err := db.SaveState(state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if vars != nil {
		if err := db.SaveVariables(vars.Snapshot()); err != nil {
			return fmt.Errorf("save variables: %w", err)
		}
	}
	if err := db.SaveEvents(econ.DrainEvents()); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_tick", strconv.FormatUint(tick, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("economy saved")
	return nil
}

// LastTick reads the tick of the last save, 0 if none.
func (db *DB) LastTick() uint64 {
	v, err := db.GetMeta("last_tick")
	if err != nil {
		return 0
	}
	t, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return t
}
