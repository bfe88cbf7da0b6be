// Package shop implements the demo shop's domain: accounts, sessions, the
// product catalog, carts and orders, backed by SQLite. The browser and API
// test suites run against this shop when no external deployment is
// configured.
package shop

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	// SQLCipher driver, registered under the "sqlite3" driver name. The shop
	// database holds disposable test data, so it stays unencrypted.
	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/kuitang/shopflow/internal/obs"
)

const (
	// MaxOpenConns stays low because SQLite is single-writer.
	MaxOpenConns = 10
	MaxIdleConns = 2
)

// Domain errors. Handlers translate these into the wire envelopes.
var (
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidPayment     = errors.New("payment details incomplete")
)

// Store is the shop's database handle.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the shop database at path and initializes the
// schema and the seed catalog. An empty path opens a private in-memory
// database, which is what tests and the embedded harness shop use.
func Open(path string) (*Store, error) {
	var dsn string
	if path == "" || path == ":memory:" {
		// Shared-cache named memory DB so the pool sees one database.
		dsn = fmt.Sprintf("file:shop-%s?mode=memory&cache=shared", uuid.NewString())
	} else {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create shop data directory: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s", path)
	}
	dsn = appendSQLiteParams(dsn, "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on")

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open shop database: %w", err)
	}
	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping shop database: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize shop schema: %w", err)
	}

	s := &Store{db: db, log: obs.Pkg("shop")}
	if err := s.seedCatalog(); err != nil {
		db.Close()
		return nil, err
	}

	s.log.Info("shop store opened", "path", path)
	return s, nil
}

// DB returns the underlying sql.DB for direct access when needed.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// seedCatalog inserts the fixed product catalog. Idempotent, so reopening a
// file database does not duplicate products.
func (s *Store) seedCatalog() error {
	for _, p := range seedProducts {
		_, err := s.db.Exec(`
			INSERT INTO products (id, name, price, category, brand, description_md)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, p.ID, p.Name, p.Price, p.Category, p.Brand, p.DescriptionMD)
		if err != nil {
			return fmt.Errorf("seed product %d: %w", p.ID, err)
		}
	}
	return nil
}

func appendSQLiteParams(dsn, params string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}
