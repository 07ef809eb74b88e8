package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"FlipScout/internal/logger"
	"FlipScout/internal/model"
)

var log = logger.WithComponent("store")

// SQLiteStore persists items and price observations to a SQLite file.
// Each operation acquires its own handle, executes, and releases it on
// every exit path, so a failed call leaves the store usable for the
// next one.
type SQLiteStore struct {
	path string
}

// NewSQLiteStore ensures the database file's directory exists and runs
// migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	s := &SQLiteStore{path: path}
	if err := s.withConn(s.migrate); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.WithField("path", path).Info("sqlite store ready")
	return s, nil
}

// withConn opens a scoped handle, runs fn, and always releases the
// handle. Errors are reported to the caller without internal retry.
func (s *SQLiteStore) withConn(fn func(db *sql.DB) error) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()
	return fn(db)
}

func (s *SQLiteStore) migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id               INTEGER PRIMARY KEY,
			name             TEXT,
			buy_limit        INTEGER,
			effective_sell   REAL,
			effective_buy    REAL,
			avg_price        REAL,
			potential_profit REAL,
			profit_margin    REAL,
			fluctuation      REAL,
			roi              REAL,
			sell_volume      INTEGER,
			buy_volume       INTEGER,
			updated_at       INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS prices (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id   INTEGER NOT NULL,
			timestamp INTEGER NOT NULL,
			price     REAL,
			volume    INTEGER,
			FOREIGN KEY (item_id) REFERENCES items (id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_prices_item ON prices(item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_prices_ts ON prices(timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:32], err)
		}
	}
	return nil
}

func (s *SQLiteStore) UpsertItem(c *model.Candidate) error {
	return s.withConn(func(db *sql.DB) error {
		_, err := db.Exec(`INSERT INTO items
			(id, name, buy_limit, effective_sell, effective_buy, avg_price,
			 potential_profit, profit_margin, fluctuation, roi,
			 sell_volume, buy_volume, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT(id) DO UPDATE SET
			 name=excluded.name, buy_limit=excluded.buy_limit,
			 effective_sell=excluded.effective_sell, effective_buy=excluded.effective_buy,
			 avg_price=excluded.avg_price, potential_profit=excluded.potential_profit,
			 profit_margin=excluded.profit_margin, fluctuation=excluded.fluctuation,
			 roi=excluded.roi, sell_volume=excluded.sell_volume,
			 buy_volume=excluded.buy_volume, updated_at=excluded.updated_at`,
			c.ItemID, c.Name, c.BuyLimit, c.EffectiveSell, c.EffectiveBuy, c.AvgPrice,
			c.PotentialProfit, c.ProfitMargin, c.Fluctuation, c.ROI,
			c.SellVolume, c.BuyVolume, time.Now().Unix(),
		)
		if err != nil {
			return fmt.Errorf("upsert item %d: %w", c.ItemID, err)
		}
		return nil
	})
}

func (s *SQLiteStore) AppendPrice(itemID int, obs model.PriceObservation) error {
	return s.withConn(func(db *sql.DB) error {
		_, err := db.Exec(`INSERT INTO prices (item_id, timestamp, price, volume)
			VALUES (?,?,?,?)`,
			itemID, obs.Timestamp.Unix(), obs.Price, obs.Volume,
		)
		if err != nil {
			return fmt.Errorf("append price for item %d: %w", itemID, err)
		}
		return nil
	})
}

func (s *SQLiteStore) AllItems() ([]model.Candidate, error) {
	var items []model.Candidate
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query(`SELECT id, name, buy_limit, effective_sell, effective_buy,
			avg_price, potential_profit, profit_margin, fluctuation, roi,
			sell_volume, buy_volume
			FROM items ORDER BY id`)
		if err != nil {
			return fmt.Errorf("query items: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var c model.Candidate
			if err := rows.Scan(&c.ItemID, &c.Name, &c.BuyLimit,
				&c.EffectiveSell, &c.EffectiveBuy, &c.AvgPrice,
				&c.PotentialProfit, &c.ProfitMargin, &c.Fluctuation, &c.ROI,
				&c.SellVolume, &c.BuyVolume); err != nil {
				return fmt.Errorf("scan item: %w", err)
			}
			items = append(items, c)
		}
		return rows.Err()
	})
	return items, err
}

func (s *SQLiteStore) Prices(itemID int) ([]model.PriceObservation, error) {
	var obs []model.PriceObservation
	err := s.withConn(func(db *sql.DB) error {
		rows, err := db.Query(`SELECT id, item_id, timestamp, price, volume
			FROM prices WHERE item_id = ? ORDER BY id`, itemID)
		if err != nil {
			return fmt.Errorf("query prices: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var o model.PriceObservation
			var ts int64
			if err := rows.Scan(&o.ID, &o.ItemID, &ts, &o.Price, &o.Volume); err != nil {
				return fmt.Errorf("scan price: %w", err)
			}
			o.Timestamp = time.Unix(ts, 0)
			obs = append(obs, o)
		}
		return rows.Err()
	})
	return obs, err
}

// Close is a no-op: handles are scoped per operation.
func (s *SQLiteStore) Close() error { return nil }
