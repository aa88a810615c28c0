package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/fiscal-ao/internal/domain"
	"github.com/jhoicas/fiscal-ao/internal/domain/entity"
	"github.com/jhoicas/fiscal-ao/internal/domain/repository"
)

var (
	_ repository.CompanyRepository  = (*CompanyRepo)(nil)
	_ repository.CustomerRepository = (*CustomerRepo)(nil)
	_ repository.ProductRepository  = (*ProductRepo)(nil)
)

// masterData empresas, clientes y productos.
type masterData struct {
	mu        sync.RWMutex
	companies map[string]entity.Company
	customers map[string]entity.Customer // tenant|id
	products  map[string]entity.Product  // tenant|code
}

func newMasterData() masterData {
	return masterData{
		companies: make(map[string]entity.Company),
		customers: make(map[string]entity.Customer),
		products:  make(map[string]entity.Product),
	}
}

// PutCompany registra o reemplaza una empresa.
func (s *Store) PutCompany(c *entity.Company) {
	s.master.mu.Lock()
	defer s.master.mu.Unlock()
	s.master.companies[c.ID] = *c
}

// PutCustomer registra o reemplaza un cliente.
func (s *Store) PutCustomer(c *entity.Customer) {
	s.master.mu.Lock()
	defer s.master.mu.Unlock()
	s.master.customers[c.CompanyID+"|"+c.ID] = *c
}

// PutProduct registra o reemplaza un producto.
func (s *Store) PutProduct(p *entity.Product) {
	s.master.mu.Lock()
	defer s.master.mu.Unlock()
	s.master.products[p.CompanyID+"|"+p.Code] = *p
}

// Companies devuelve el repositorio de empresas.
func (s *Store) Companies() *CompanyRepo { return &CompanyRepo{m: &s.master} }

// Customers devuelve el repositorio de clientes.
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{m: &s.master} }

// Products devuelve el repositorio de productos.
func (s *Store) Products() *ProductRepo { return &ProductRepo{m: &s.master} }

// CompanyRepo implementación en memoria de CompanyRepository.
type CompanyRepo struct{ m *masterData }

// GetByID obtiene una empresa; nil, nil si no existe.
func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// Save crea o actualiza una empresa.
func (r *CompanyRepo) Save(_ context.Context, c *entity.Company) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, other := range r.m.companies {
		if id != c.ID && other.NIF == c.NIF {
			return fmt.Errorf("%w: NIF %s", domain.ErrDuplicate, c.NIF)
		}
	}
	r.m.companies[c.ID] = *c
	return nil
}

// CustomerRepo implementación en memoria de CustomerRepository.
type CustomerRepo struct{ m *masterData }

// GetByID obtiene un cliente de la empresa; nil, nil si no existe.
func (r *CustomerRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Customer, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.customers[tenantID+"|"+id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// Create registra un cliente nuevo.
func (r *CustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	key := c.CompanyID + "|" + c.ID
	if _, ok := r.m.customers[key]; ok {
		return fmt.Errorf("%w: cliente %s", domain.ErrDuplicate, c.ID)
	}
	r.m.customers[key] = *c
	return nil
}

// GetByTaxID busca un cliente por NIF; nil, nil si no existe.
func (r *CustomerRepo) GetByTaxID(_ context.Context, tenantID, taxID string) (*entity.Customer, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, c := range r.m.customers {
		if c.CompanyID == tenantID && c.TaxID == taxID {
			return &c, nil
		}
	}
	return nil, nil
}

// List clientes de la empresa ordenados por nombre.
func (r *CustomerRepo) List(_ context.Context, tenantID string, limit, offset int) ([]*entity.Customer, error) {
	r.m.mu.RLock()
	var all []*entity.Customer
	for _, c := range r.m.customers {
		if c.CompanyID == tenantID {
			c := c
			all = append(all, &c)
		}
	}
	r.m.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, limit, offset), nil
}

// ListByIDs devuelve los clientes encontrados en el orden pedido.
func (r *CustomerRepo) ListByIDs(_ context.Context, tenantID string, ids []string) ([]*entity.Customer, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*entity.Customer, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.m.customers[tenantID+"|"+id]; ok {
			out = append(out, &c)
		}
	}
	return out, nil
}

// ProductRepo implementación en memoria de ProductRepository.
type ProductRepo struct{ m *masterData }

// Create registra un producto; el código es único por empresa.
func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	key := p.CompanyID + "|" + p.Code
	if _, ok := r.m.products[key]; ok {
		return fmt.Errorf("%w: producto %s", domain.ErrDuplicate, p.Code)
	}
	r.m.products[key] = *p
	return nil
}

// List productos de la empresa ordenados por código.
func (r *ProductRepo) List(_ context.Context, tenantID string, limit, offset int) ([]*entity.Product, error) {
	r.m.mu.RLock()
	var all []*entity.Product
	for _, p := range r.m.products {
		if p.CompanyID == tenantID {
			p := p
			all = append(all, &p)
		}
	}
	r.m.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return page(all, limit, offset), nil
}

// ListByCodes devuelve los productos encontrados en el orden pedido.
func (r *ProductRepo) ListByCodes(_ context.Context, tenantID string, codes []string) ([]*entity.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]*entity.Product, 0, len(codes))
	for _, code := range codes {
		if p, ok := r.m.products[tenantID+"|"+code]; ok {
			out = append(out, &p)
		}
	}
	return out, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
