package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/santinisystems/catalog/internal/cache"
	"github.com/santinisystems/catalog/internal/metrics"
	"github.com/santinisystems/catalog/internal/model"
	"github.com/santinisystems/catalog/internal/repository"
)

// CatalogOptions configures page sizes.
type CatalogOptions struct {
	ProductPageSize      int
	ManufacturerPageSize int
}

// CatalogService handles manufacturer and product business logic.
type CatalogService struct {
	store    CatalogStore
	cache    ProductCache
	validate *validator.Validate
	metrics  metrics.Recorder
	logger   *slog.Logger
	opts     CatalogOptions
}

// NewCatalogService creates a new CatalogService. cache may be nil.
func NewCatalogService(store CatalogStore, productCache ProductCache, opts CatalogOptions, recorder metrics.Recorder, logger *slog.Logger) *CatalogService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ProductPageSize <= 0 {
		opts.ProductPageSize = 5
	}
	if opts.ManufacturerPageSize <= 0 {
		opts.ManufacturerPageSize = 1
	}
	return &CatalogService{
		store:    store,
		cache:    productCache,
		validate: newValidator(),
		metrics:  recorder,
		logger:   logger,
		opts:     opts,
	}
}

// ============================================================================
// Manufacturers
// ============================================================================

// ManufacturerInput carries the writable manufacturer fields of a request.
// Nil or unset fields are left untouched on update.
type ManufacturerInput struct {
	Name        *string
	Description *string
	CountryCode *string
	ListDate    Nullable[time.Time]
}

func (in ManufacturerInput) applyTo(m *model.Manufacturer) {
	if in.Name != nil {
		m.Name = *in.Name
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.CountryCode != nil {
		m.CountryCode = *in.CountryCode
	}
	if in.ListDate.Set {
		m.ListDate = in.ListDate.Value
	}
}

// ManufacturerList is one page of manufacturers.
type ManufacturerList struct {
	Items []*model.Manufacturer
	Page  Page
}

// ListManufacturers returns one page of manufacturers matching the filter.
func (s *CatalogService) ListManufacturers(ctx context.Context, filter repository.ManufacturerFilter, pageNumber int) (*ManufacturerList, error) {
	page, err := newPage(pageNumber, s.opts.ManufacturerPageSize)
	if err != nil {
		return nil, err
	}

	items, total, err := s.store.ListManufacturers(ctx, filter, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	page.TotalItems = total

	return &ManufacturerList{Items: items, Page: page}, nil
}

// GetManufacturer retrieves a manufacturer by ID.
func (s *CatalogService) GetManufacturer(ctx context.Context, id int64) (*model.Manufacturer, error) {
	m, err := s.store.GetManufacturer(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrManufacturerNotFound) {
			return nil, ErrManufacturerNotFound
		}
		return nil, err
	}
	return m, nil
}

// CreateManufacturer validates and stores a new manufacturer.
func (s *CatalogService) CreateManufacturer(ctx context.Context, in ManufacturerInput) (*model.Manufacturer, error) {
	m := &model.Manufacturer{}
	in.applyTo(m)

	if err := s.validateEntity(m); err != nil {
		return nil, err
	}

	if err := s.store.CreateManufacturer(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create manufacturer: %w", err)
	}
	m.ProductIDs = []int64{}

	s.metrics.IncManufacturerCreated()
	return m, nil
}

// UpdateManufacturer merges the input into the stored manufacturer.
func (s *CatalogService) UpdateManufacturer(ctx context.Context, id int64, in ManufacturerInput) (*model.Manufacturer, error) {
	m, err := s.GetManufacturer(ctx, id)
	if err != nil {
		return nil, err
	}

	in.applyTo(m)

	if err := s.validateEntity(m); err != nil {
		return nil, err
	}

	if err := s.store.UpdateManufacturer(ctx, m); err != nil {
		if errors.Is(err, repository.ErrManufacturerNotFound) {
			return nil, ErrManufacturerNotFound
		}
		return nil, fmt.Errorf("failed to update manufacturer: %w", err)
	}

	s.metrics.IncManufacturerUpdated()

	// Product reads embed the manufacturer name
	s.evictProducts(ctx, m.ProductIDs...)

	return m, nil
}

// ============================================================================
// Products
// ============================================================================

// ProductInput carries the writable product fields of a request.
// Nil or unset fields are left untouched on update.
type ProductInput struct {
	MPN          Nullable[string]
	Name         *string
	Description  *string
	IssueDate    Nullable[time.Time]
	Manufacturer Nullable[int64]
}

func (in ProductInput) applyTo(p *model.Product) {
	if in.MPN.Set {
		p.MPN = in.MPN.Value
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.IssueDate.Set {
		p.IssueDate = in.IssueDate.Value
	}
	if in.Manufacturer.Set {
		p.ManufacturerID = in.Manufacturer.Value
	}
}

// ProductList is one page of products.
type ProductList struct {
	Items []*model.Product
	Page  Page
}

// ListProducts returns one page of all products.
func (s *CatalogService) ListProducts(ctx context.Context, pageNumber int) (*ProductList, error) {
	page, err := newPage(pageNumber, s.opts.ProductPageSize)
	if err != nil {
		return nil, err
	}

	items, total, err := s.store.ListProducts(ctx, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	page.TotalItems = total

	return &ProductList{Items: items, Page: page}, nil
}

// ListManufacturerProducts returns one page of a manufacturer's products.
func (s *CatalogService) ListManufacturerProducts(ctx context.Context, manufacturerID int64, pageNumber int) (*ProductList, error) {
	page, err := newPage(pageNumber, s.opts.ProductPageSize)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.ManufacturerExists(ctx, manufacturerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrManufacturerNotFound
	}

	items, total, err := s.store.ListProductsByManufacturer(ctx, manufacturerID, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	page.TotalItems = total

	return &ProductList{Items: items, Page: page}, nil
}

// GetProduct retrieves a product by ID, cache first.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveProductReadDuration(time.Since(start))
	}()

	if s.cache == nil {
		return s.loadProduct(ctx, id)
	}

	cached, generation, err := s.cache.GetProduct(ctx, id)
	if err == nil {
		s.metrics.IncProductCacheHit()
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("product cache read failed",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
		return s.loadProduct(ctx, id)
	}
	s.metrics.IncProductCacheMiss()

	p, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	stored, err := s.cache.SetProduct(ctx, p, generation)
	switch {
	case err != nil:
		s.logger.Warn("product cache write failed",
			slog.Int64("product_id", id),
			slog.String("error", err.Error()),
		)
	case !stored:
		s.logger.Debug("product evicted during read, not cached", slog.Int64("product_id", id))
	}

	return p, nil
}

// CreateProduct validates and stores a new product owned by the caller.
func (s *CatalogService) CreateProduct(ctx context.Context, caller *model.AuthContext, in ProductInput) (*model.Product, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	p := &model.Product{}
	in.applyTo(p)
	ownerID := caller.UserID
	p.OwnerID = &ownerID

	if err := s.checkManufacturerReference(ctx, in.Manufacturer); err != nil {
		return nil, err
	}

	if err := s.validateEntity(p); err != nil {
		return nil, err
	}

	if err := s.store.CreateProduct(ctx, p); err != nil {
		if errors.Is(err, repository.ErrManufacturerNotFound) {
			return nil, &ReferenceNotFoundError{Field: "manufacturer", ID: *p.ManufacturerID}
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.metrics.IncProductCreated()

	return s.loadProduct(ctx, p.ID)
}

// UpdateProduct merges the input into the stored product. The caller must
// hold ROLE_ADMIN and own the product; this is checked before anything is
// written.
func (s *CatalogService) UpdateProduct(ctx context.Context, caller *model.AuthContext, id int64, in ProductInput) (*model.Product, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}

	p, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if !caller.IsAdmin() || !p.IsOwnedBy(caller.UserID) {
		s.metrics.IncOwnershipDenied()
		return nil, ErrNotOwner
	}

	in.applyTo(p)

	if err := s.checkManufacturerReference(ctx, in.Manufacturer); err != nil {
		return nil, err
	}

	if err := s.validateEntity(p); err != nil {
		return nil, err
	}

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return nil, ErrProductNotFound
		case errors.Is(err, repository.ErrManufacturerNotFound):
			return nil, &ReferenceNotFoundError{Field: "manufacturer", ID: *p.ManufacturerID}
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.metrics.IncProductUpdated()
	s.evictProducts(ctx, id)

	return s.loadProduct(ctx, id)
}

// loadProduct reads a product from the store, bypassing the cache.
func (s *CatalogService) loadProduct(ctx context.Context, id int64) (*model.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// checkManufacturerReference fails when the request names a manufacturer
// that does not exist. An explicit null is left to validation.
func (s *CatalogService) checkManufacturerReference(ctx context.Context, ref Nullable[int64]) error {
	if !ref.Set || ref.Value == nil {
		return nil
	}

	exists, err := s.store.ManufacturerExists(ctx, *ref.Value)
	if err != nil {
		return err
	}
	if !exists {
		return &ReferenceNotFoundError{Field: "manufacturer", ID: *ref.Value}
	}
	return nil
}

func (s *CatalogService) validateEntity(entity any) error {
	err := validateEntity(s.validate, entity)
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		s.metrics.IncValidationFailed()
	}
	return err
}

// evictProducts drops cached product reads. Failures are logged only; the
// entries expire on their own.
func (s *CatalogService) evictProducts(ctx context.Context, ids ...int64) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	if err := s.cache.DeleteProducts(ctx, ids...); err != nil {
		s.logger.Warn("product cache eviction failed",
			slog.Int("count", len(ids)),
			slog.String("error", err.Error()),
		)
	}
}
