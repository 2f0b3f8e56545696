// Package storage provides the data persistence layer for the shelfmatch application.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shelfmatch/shelfmatch/internal/common"
	"github.com/shelfmatch/shelfmatch/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the CatalogStore and LookupCache interfaces
// using SQLite. The products table deliberately carries no UNIQUE
// constraint on product_number: the append contract leaves the existence
// check to the classification engine, so concurrent growth of the same
// new product can produce duplicate rows.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// LoadAll reads the entire catalog in insertion order.
func (s *SQLiteStorage) LoadAll(ctx context.Context) ([]model.CatalogProduct, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_number, brand, name, price, was_price, image_url
		FROM products
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCatalogUnavailable, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var products []model.CatalogProduct
	for rows.Next() {
		var p model.CatalogProduct
		var price, wasPrice sql.NullFloat64
		var imageURL sql.NullString

		if err := rows.Scan(&p.ProductNumber, &p.Brand, &p.Name, &price, &wasPrice, &imageURL); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrCatalogUnavailable, err)
		}

		if price.Valid {
			p.Price = &price.Float64
		}
		if wasPrice.Valid {
			p.WasPrice = &wasPrice.Float64
		}
		if imageURL.Valid {
			p.ImageURL = &imageURL.String
		}

		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCatalogUnavailable, err)
	}

	return products, nil
}

// Append adds one product record. No uniqueness check is performed here;
// see the type comment.
func (s *SQLiteStorage) Append(ctx context.Context, product model.CatalogProduct) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProduct(&product); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (product_number, brand, name, price, was_price, image_url)
		VALUES (?, ?, ?, ?, ?, ?)`,
		product.ProductNumber,
		product.Brand,
		product.Name,
		nullFloat(product.Price),
		nullFloat(product.WasPrice),
		nullString(product.ImageURL),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCatalogWriteFailed, err)
	}

	return nil
}

// Get retrieves a memoized lookup result by product key.
func (s *SQLiteStorage) Get(ctx context.Context, key string) (*model.ProductDetails, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}

	var brand, name, price, wasPrice, productNumber, imageURL sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT brand, name, price, was_price, product_number, image_url
		FROM lookup_cache
		WHERE item_key = ?`, key).
		Scan(&brand, &name, &price, &wasPrice, &productNumber, &imageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup cache: %w", err)
	}

	details := model.ProductDetails{
		Brand:         stringPtr(brand),
		Name:          stringPtr(name),
		Price:         stringPtr(price),
		WasPrice:      stringPtr(wasPrice),
		ProductNumber: stringPtr(productNumber),
		ImageURL:      stringPtr(imageURL),
	}
	return &details, nil
}

// Put stores a lookup result, replacing any previous entry for the key.
// The write is durable as soon as Put returns.
func (s *SQLiteStorage) Put(ctx context.Context, key string, details model.ProductDetails) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO lookup_cache
			(item_key, brand, name, price, was_price, product_number, image_url, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key,
		nullString(details.Brand),
		nullString(details.Name),
		nullString(details.Price),
		nullString(details.WasPrice),
		nullString(details.ProductNumber),
		nullString(details.ImageURL),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write lookup cache: %w", err)
	}

	return nil
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
