// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/santinisystems/catalog/internal/model"
	"github.com/santinisystems/catalog/internal/repository"
)

// Service errors.
var (
	ErrManufacturerNotFound = errors.New("manufacturer not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrNotOwner             = errors.New("product can only be updated by the owner")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrInvalidPage          = errors.New("page should not be less than 1")
	ErrInvalidCredentials   = errors.New("invalid credentials")
)

// ReferenceNotFoundError reports a request body that points at a related
// resource which does not exist.
type ReferenceNotFoundError struct {
	Field string
	ID    int64
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Field, e.ID)
}

// CatalogStore is the persistence the catalog service needs.
// *repository.Repository satisfies it.
type CatalogStore interface {
	ListManufacturers(ctx context.Context, filter repository.ManufacturerFilter, limit, offset int) ([]*model.Manufacturer, int, error)
	GetManufacturer(ctx context.Context, id int64) (*model.Manufacturer, error)
	ManufacturerExists(ctx context.Context, id int64) (bool, error)
	CreateManufacturer(ctx context.Context, m *model.Manufacturer) error
	UpdateManufacturer(ctx context.Context, m *model.Manufacturer) error

	ListProducts(ctx context.Context, limit, offset int) ([]*model.Product, int, error)
	ListProductsByManufacturer(ctx context.Context, manufacturerID int64, limit, offset int) ([]*model.Product, int, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
}

// ProductCache caches product reads. *cache.Cache satisfies it.
//
// GetProduct returns the product's eviction generation on a miss; SetProduct
// only stores the row if no eviction happened since.
type ProductCache interface {
	GetProduct(ctx context.Context, id int64) (*model.Product, uint64, error)
	SetProduct(ctx context.Context, p *model.Product, generation uint64) (bool, error)
	DeleteProducts(ctx context.Context, ids ...int64) error
}

// TokenStore is the persistence the token service needs.
type TokenStore interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateAPIToken(ctx context.Context, token *model.APIToken) error
}

// Nullable holds a JSON field that may be absent, explicitly null, or set.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Of returns a Nullable set to v.
func Of[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns a Nullable explicitly set to null.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}
