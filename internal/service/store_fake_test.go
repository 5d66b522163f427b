package service

import (
	"context"
	"sort"
	"sync"

	"github.com/santinisystems/catalog/internal/cache"
	"github.com/santinisystems/catalog/internal/model"
	"github.com/santinisystems/catalog/internal/repository"
)

// memStore is an in-memory CatalogStore and TokenStore.
type memStore struct {
	mu            sync.Mutex
	manufacturers map[int64]model.Manufacturer
	products      map[int64]model.Product
	users         map[string]model.User
	tokens        []model.APIToken
	nextID        int64

	updates int

	// afterGetProduct runs once GetProduct has copied the row, outside mu.
	afterGetProduct func()
}

func newMemStore() *memStore {
	return &memStore{
		manufacturers: map[int64]model.Manufacturer{},
		products:      map[int64]model.Product{},
		users:         map[string]model.User{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) ListManufacturers(_ context.Context, _ repository.ManufacturerFilter, limit, offset int) ([]*model.Manufacturer, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*model.Manufacturer, 0, len(s.manufacturers))
	for _, m := range s.manufacturers {
		m := m
		all = append(all, &m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, limit, offset), len(all), nil
}

func (s *memStore) GetManufacturer(_ context.Context, id int64) (*model.Manufacturer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.manufacturers[id]
	if !ok {
		return nil, repository.ErrManufacturerNotFound
	}
	m.ProductIDs = []int64{}
	for pid, p := range s.products {
		if p.ManufacturerID != nil && *p.ManufacturerID == id {
			m.ProductIDs = append(m.ProductIDs, pid)
		}
	}
	sort.Slice(m.ProductIDs, func(i, j int) bool { return m.ProductIDs[i] < m.ProductIDs[j] })
	return &m, nil
}

func (s *memStore) ManufacturerExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.manufacturers[id]
	return ok, nil
}

func (s *memStore) CreateManufacturer(_ context.Context, m *model.Manufacturer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	s.manufacturers[m.ID] = *m
	return nil
}

func (s *memStore) UpdateManufacturer(_ context.Context, m *model.Manufacturer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.manufacturers[m.ID]; !ok {
		return repository.ErrManufacturerNotFound
	}
	s.manufacturers[m.ID] = *m
	s.updates++
	return nil
}

func (s *memStore) ListProducts(_ context.Context, limit, offset int) ([]*model.Product, int, error) {
	return s.listProducts(nil, limit, offset)
}

func (s *memStore) ListProductsByManufacturer(_ context.Context, manufacturerID int64, limit, offset int) ([]*model.Product, int, error) {
	return s.listProducts(&manufacturerID, limit, offset)
}

func (s *memStore) listProducts(manufacturerID *int64, limit, offset int) ([]*model.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := []*model.Product{}
	for _, p := range s.products {
		if manufacturerID != nil && (p.ManufacturerID == nil || *p.ManufacturerID != *manufacturerID) {
			continue
		}
		all = append(all, s.withRef(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, limit, offset), len(all), nil
}

func (s *memStore) GetProduct(_ context.Context, id int64) (*model.Product, error) {
	s.mu.Lock()
	p, ok := s.products[id]
	var loaded *model.Product
	if ok {
		loaded = s.withRef(p)
	}
	hook := s.afterGetProduct
	s.mu.Unlock()

	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if hook != nil {
		hook()
	}
	return loaded, nil
}

func (s *memStore) CreateProduct(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ManufacturerID != nil {
		if _, ok := s.manufacturers[*p.ManufacturerID]; !ok {
			return repository.ErrManufacturerNotFound
		}
	}
	p.ID = s.id()
	s.products[p.ID] = *p
	return nil
}

func (s *memStore) UpdateProduct(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[p.ID]
	if !ok {
		return repository.ErrProductNotFound
	}
	updated := *p
	updated.OwnerID = existing.OwnerID
	s.products[p.ID] = updated
	s.updates++
	return nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (s *memStore) CreateAPIToken(_ context.Context, token *model.APIToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, *token)
	return nil
}

// withRef copies p and attaches its manufacturer reference. Callers hold mu.
func (s *memStore) withRef(p model.Product) *model.Product {
	p.Manufacturer = nil
	if p.ManufacturerID != nil {
		if m, ok := s.manufacturers[*p.ManufacturerID]; ok {
			p.Manufacturer = &model.ManufacturerRef{ID: m.ID, Name: m.Name}
		}
	}
	return &p
}

func window[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// memCache is an in-memory ProductCache with the same generation rules as
// the Redis cache.
type memCache struct {
	mu          sync.Mutex
	products    map[int64]model.Product
	generations map[int64]uint64
}

func newMemCache() *memCache {
	return &memCache{
		products:    map[int64]model.Product{},
		generations: map[int64]uint64{},
	}
}

func (c *memCache) GetProduct(_ context.Context, id int64) (*model.Product, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, c.generations[id], cache.ErrCacheMiss
	}
	return &p, c.generations[id], nil
}

func (c *memCache) SetProduct(_ context.Context, p *model.Product, generation uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[p.ID] != generation {
		return false, nil
	}
	c.products[p.ID] = *p
	return true, nil
}

func (c *memCache) DeleteProducts(_ context.Context, ids ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.products, id)
		c.generations[id]++
	}
	return nil
}

func (c *memCache) cached(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.products[id]
	return ok
}
