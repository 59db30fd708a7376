package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spintom/inserf/internal/apperr"
)

var (
	// ErrNoCart is returned by FindCart for clients that never added anything.
	ErrNoCart          = errors.New("cart not found")
	ErrItemNotFound    = apperr.New(apperr.NotFound, "Producto no encontrado en el carrito")
	ErrInvalidQuantity = apperr.New(apperr.InvalidInput, "La cantidad debe ser un número entero positivo")
)

// Repository stores carts and their items. Items come back in insertion
// order.
type Repository interface {
	FindCart(ctx context.Context, clientID int) (Cart, error)
	GetOrCreateCart(ctx context.Context, clientID int) (Cart, error)
	// AddQuantity adds qty to the (cart, variant) line, creating it when
	// missing, and stores details as its descriptor.
	AddQuantity(ctx context.Context, cartID, variantID, qty int, details string) (Item, error)
	GetItem(ctx context.Context, cartID, itemID int) (Item, error)
	SetQuantity(ctx context.Context, itemID, qty int) error
	DeleteItem(ctx context.Context, cartID, itemID int) error
	ListItems(ctx context.Context, cartID int) ([]Item, error)
	// LockItems is ListItems with the rows locked until the transaction ends.
	LockItems(ctx context.Context, cartID int) ([]Item, error)
	CountItems(ctx context.Context, cartID int) (int, error)
	ClearItems(ctx context.Context, cartID int) error
}

// InMemoryRepository is used for tests and local runs.
type InMemoryRepository struct {
	mu         sync.RWMutex
	carts      map[int]Cart
	items      []Item
	nextCartID int
	nextItemID int
	now        func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		carts:      make(map[int]Cart),
		nextCartID: 1,
		nextItemID: 1,
		now:        time.Now,
	}
}

func (r *InMemoryRepository) FindCart(ctx context.Context, clientID int) (Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carts[clientID]
	if !ok {
		return Cart{}, ErrNoCart
	}
	return c, nil
}

func (r *InMemoryRepository) GetOrCreateCart(ctx context.Context, clientID int) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[clientID]; ok {
		return c, nil
	}
	c := Cart{ID: r.nextCartID, ClientID: clientID, CreatedAt: r.now()}
	r.nextCartID++
	r.carts[clientID] = c
	return c, nil
}

func (r *InMemoryRepository) AddQuantity(ctx context.Context, cartID, variantID, qty int, details string) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.CartID == cartID && it.VariantID == variantID {
			it.Quantity += qty
			it.Details = details
			r.items[i] = it
			return it, nil
		}
	}
	it := Item{ID: r.nextItemID, CartID: cartID, VariantID: variantID, Quantity: qty, Details: details}
	r.nextItemID++
	r.items = append(r.items, it)
	return it, nil
}

func (r *InMemoryRepository) GetItem(ctx context.Context, cartID, itemID int) (Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.items {
		if it.ID == itemID && it.CartID == cartID {
			return it, nil
		}
	}
	return Item{}, ErrItemNotFound
}

func (r *InMemoryRepository) SetQuantity(ctx context.Context, itemID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == itemID {
			r.items[i].Quantity = qty
			return nil
		}
	}
	return ErrItemNotFound
}

func (r *InMemoryRepository) DeleteItem(ctx context.Context, cartID, itemID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items {
		if it.ID == itemID && it.CartID == cartID {
			r.items = append(r.items[:i:i], r.items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

func (r *InMemoryRepository) ListItems(ctx context.Context, cartID int) ([]Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Item, 0)
	for _, it := range r.items {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) LockItems(ctx context.Context, cartID int) ([]Item, error) {
	return r.ListItems(ctx, cartID)
}

func (r *InMemoryRepository) CountItems(ctx context.Context, cartID int) (int, error) {
	items, err := r.ListItems(ctx, cartID)
	return len(items), err
}

func (r *InMemoryRepository) ClearItems(ctx context.Context, cartID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := make([]Item, 0, len(r.items))
	for _, it := range r.items {
		if it.CartID != cartID {
			kept = append(kept, it)
		}
	}
	r.items = kept
	return nil
}

func (r *InMemoryRepository) Snapshot() func() {
	r.mu.RLock()
	carts := make(map[int]Cart, len(r.carts))
	for k, v := range r.carts {
		carts[k] = v
	}
	items := append([]Item(nil), r.items...)
	nextCart, nextItem := r.nextCartID, r.nextItemID
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.carts = carts
		r.items = items
		r.nextCartID, r.nextItemID = nextCart, nextItem
		r.mu.Unlock()
	}
}
