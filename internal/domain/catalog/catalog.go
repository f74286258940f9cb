package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested category or product does not exist.
var ErrNotFound = errors.New("not found")

// Category groups products for browsing.
type Category struct {
	ID   string
	Name string
}

// Product is a catalog item offered for sale. Price uses decimal to avoid
// float rounding on money.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  string
	ImageURL    string
	Active      bool
}

// Repository defines read operations over the catalog. The chat engine never
// writes through this interface; catalog administration happens elsewhere.
type Repository interface {
	// ListCategories returns all categories ordered by name.
	ListCategories(ctx context.Context) ([]Category, error)
	// ListActiveProducts returns active products, optionally filtered by
	// category. An empty categoryID means all active products.
	ListActiveProducts(ctx context.Context, categoryID string) ([]Product, error)
	// GetProduct returns a single product by ID, active or not. It returns
	// ErrNotFound when no such product exists.
	GetProduct(ctx context.Context, id string) (*Product, error)
}
