package gateway

import (
	"context"

	"github.com/ecomdash/backoffice/internal/catalog"
	"github.com/ecomdash/backoffice/internal/query"
)

// ProductLister is the read API the session layer needs.
type ProductLister interface {
	ListProducts(ctx context.Context, f query.Filters) (catalog.ResultSet, error)
}

// ProductMutator is the write API the session layer needs.
type ProductMutator interface {
	CreateProduct(ctx context.Context, p catalog.Product) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, id string, p catalog.Product) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	BulkProducts(ctx context.Context, bulk catalog.BulkRequest) error
}

// ProductAPI is the full remote contract. Client implements it.
type ProductAPI interface {
	ProductLister
	ProductMutator
}
