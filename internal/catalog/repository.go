package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/spintom/inserf/internal/apperr"
)

var (
	ErrVariantNotFound = apperr.New(apperr.NotFound, "variante no encontrada")
)

// InsufficientStock builds the error reported when qty exceeds stock.
func InsufficientStock(available int) error {
	return apperr.Newf(apperr.InsufficientStock, "Stock insuficiente. Solo hay %d unidades disponibles.", available)
}

// Repository provides read access to products and variants, plus the stock
// operations the checkout needs.
type Repository interface {
	ListActive(ctx context.Context) ([]Product, error)
	FindVariant(ctx context.Context, id int) (Variant, error)
	// FindVariants returns the variants keyed by id. Unknown ids are absent.
	FindVariants(ctx context.Context, ids []int) (map[int]Variant, error)
	// LockVariants is FindVariants with the rows locked until the enclosing
	// transaction ends.
	LockVariants(ctx context.Context, ids []int) (map[int]Variant, error)
	// DecrementStock lowers stock by qty, failing if stock would go negative.
	DecrementStock(ctx context.Context, id int, qty int) error
}

// InMemoryRepository is used for tests and local runs without Postgres.
type InMemoryRepository struct {
	mu       sync.RWMutex
	products []Product
	variants []Variant
}

// NewInMemoryRepository seeds the store. Variants nested in the products are
// flattened and their ProductID/ProductName filled in.
func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{}
	for _, p := range seed {
		for _, v := range p.Variants {
			v.ProductID = p.ID
			v.ProductName = p.Name
			r.variants = append(r.variants, v)
		}
		p.Variants = nil
		r.products = append(r.products, p)
	}
	return r
}

func (r *InMemoryRepository) ListActive(ctx context.Context) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		if !p.Active {
			continue
		}
		p.Variants = make([]Variant, 0)
		for _, v := range r.variants {
			if v.ProductID == p.ID {
				p.Variants = append(p.Variants, v)
			}
		}
		out = append(out, p)
	}
	sortProducts(out)
	return out, nil
}

func (r *InMemoryRepository) FindVariant(ctx context.Context, id int) (Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.variants {
		if v.ID == id {
			return v, nil
		}
	}
	return Variant{}, ErrVariantNotFound
}

func (r *InMemoryRepository) FindVariants(ctx context.Context, ids []int) (map[int]Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make(map[int]Variant, len(ids))
	for _, v := range r.variants {
		if _, ok := want[v.ID]; ok {
			out[v.ID] = v
		}
	}
	return out, nil
}

// LockVariants has nothing to lock in memory; isolation comes from MemoryTx.
func (r *InMemoryRepository) LockVariants(ctx context.Context, ids []int) (map[int]Variant, error) {
	return r.FindVariants(ctx, ids)
}

func (r *InMemoryRepository) DecrementStock(ctx context.Context, id int, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.variants {
		if r.variants[i].ID != id {
			continue
		}
		if r.variants[i].Stock < qty {
			return InsufficientStock(r.variants[i].Stock)
		}
		r.variants[i].Stock -= qty
		return nil
	}
	return ErrVariantNotFound
}

// UpdateVariant replaces the stored variant with the same ID, keeping its
// product link. Catalog edits happen outside this service; tests use it to
// change prices and attributes under an existing cart.
func (r *InMemoryRepository) UpdateVariant(v Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.variants {
		if r.variants[i].ID == v.ID {
			v.ProductID = r.variants[i].ProductID
			v.ProductName = r.variants[i].ProductName
			r.variants[i] = v
			return nil
		}
	}
	return ErrVariantNotFound
}

func (r *InMemoryRepository) Snapshot() func() {
	r.mu.RLock()
	products := append([]Product(nil), r.products...)
	variants := append([]Variant(nil), r.variants...)
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.products = products
		r.variants = variants
		r.mu.Unlock()
	}
}

// sortProducts orders by category then name, case-insensitively.
func sortProducts(ps []Product) {
	sort.SliceStable(ps, func(i, j int) bool {
		ci, cj := strings.ToLower(ps[i].Category), strings.ToLower(ps[j].Category)
		if ci != cj {
			return ci < cj
		}
		return strings.ToLower(ps[i].Name) < strings.ToLower(ps[j].Name)
	})
}
