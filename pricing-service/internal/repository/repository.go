package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_bookstore/pricing-service/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var ErrPriceNotFound = errors.New("price not found")

type Repository struct {
	db *sql.DB
}

type RepoInterface interface {
	GetPrice(ctx context.Context, bookID string) (*domain.BookPrice, error)
	ListPrices(ctx context.Context) ([]*domain.BookPrice, error)
	Close() error
}

// NewRepository opens the price list database at dbPath. ":memory:" gives a
// private database that lives as long as the repository.
func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps an in-memory database shared by every query
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

// RunMigrations applies the embedded migrations, which also seed the list.
func (r *Repository) RunMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *Repository) ListPrices(ctx context.Context) ([]*domain.BookPrice, error) {
	query := `
		SELECT book_id, title, price, currency, updated_at
		FROM book_prices
		ORDER BY CAST(book_id AS INTEGER), book_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var prices []*domain.BookPrice
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return prices, nil
}

func (r *Repository) GetPrice(ctx context.Context, bookID string) (*domain.BookPrice, error) {
	query := `
		SELECT book_id, title, price, currency, updated_at
		FROM book_prices
		WHERE book_id = ?
	`

	p, err := scanPrice(r.db.QueryRowContext(ctx, query, bookID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPriceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query price: %w", err)
	}
	return p, nil
}

// SetPrice inserts or replaces a list price.
func (r *Repository) SetPrice(ctx context.Context, p domain.BookPrice) error {
	query := `
		INSERT INTO book_prices (book_id, title, price, currency, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(book_id) DO UPDATE SET
			title = excluded.title,
			price = excluded.price,
			currency = excluded.currency,
			updated_at = excluded.updated_at
	`
	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}
	_, err := r.db.ExecContext(ctx, query, p.BookID, p.Title, p.Price.String(), currency, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set price: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrice(row rowScanner) (*domain.BookPrice, error) {
	var (
		p     domain.BookPrice
		price string
	)
	if err := row.Scan(&p.BookID, &p.Title, &price, &p.Currency, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan price: %w", err)
	}
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("bad price %q for %s: %w", price, p.BookID, err)
	}
	p.Price = amount
	return &p, nil
}
