package order

import (
	"context"
	"sort"
	"sync"

	"github.com/spintom/inserf/internal/apperr"
)

var (
	ErrNotFound  = apperr.New(apperr.NotFound, "Pedido no encontrado")
	ErrEmptyCart = apperr.New(apperr.EmptyCart, "El carrito está vacío")
)

// Repository persists purchase orders. Create stores the order and its items
// and fills in their ids.
type Repository interface {
	Create(ctx context.Context, po PurchaseOrder) (PurchaseOrder, error)
	// ListByClient returns the client's orders, newest first, without items.
	ListByClient(ctx context.Context, clientID int) ([]PurchaseOrder, error)
	// GetForClient returns the order with its items when it belongs to clientID.
	GetForClient(ctx context.Context, clientID, orderID int) (PurchaseOrder, error)
}

type InMemoryRepository struct {
	mu         sync.RWMutex
	orders     []PurchaseOrder
	nextID     int
	nextItemID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1, nextItemID: 1}
}

func (r *InMemoryRepository) Create(ctx context.Context, po PurchaseOrder) (PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	po.ID = r.nextID
	r.nextID++
	items := make([]Item, len(po.Items))
	for i, it := range po.Items {
		it.ID = r.nextItemID
		it.OrderID = po.ID
		r.nextItemID++
		items[i] = it
	}
	po.Items = items
	r.orders = append(r.orders, po)
	return po, nil
}

func (r *InMemoryRepository) ListByClient(ctx context.Context, clientID int) ([]PurchaseOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PurchaseOrder, 0)
	for _, po := range r.orders {
		if po.ClientID == clientID {
			po.Items = nil
			out = append(out, po)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *InMemoryRepository) GetForClient(ctx context.Context, clientID, orderID int) (PurchaseOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, po := range r.orders {
		if po.ID == orderID && po.ClientID == clientID {
			po.Items = append([]Item(nil), po.Items...)
			return po, nil
		}
	}
	return PurchaseOrder{}, ErrNotFound
}

// Count returns the number of stored orders.
func (r *InMemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

func (r *InMemoryRepository) Snapshot() func() {
	r.mu.RLock()
	orders := append([]PurchaseOrder(nil), r.orders...)
	nextID, nextItemID := r.nextID, r.nextItemID
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.orders = orders
		r.nextID, r.nextItemID = nextID, nextItemID
		r.mu.Unlock()
	}
}
