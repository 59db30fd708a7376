package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spintom/inserf/internal/cart"
	"github.com/spintom/inserf/internal/catalog"
	"github.com/spintom/inserf/internal/client"
	"github.com/spintom/inserf/internal/database"
	"github.com/spintom/inserf/internal/events"
	"github.com/spintom/inserf/internal/tax"
)

// CartStore is the part of the cart store checkout needs.
type CartStore interface {
	FindCart(ctx context.Context, clientID int) (cart.Cart, error)
	LockItems(ctx context.Context, cartID int) ([]cart.Item, error)
	ClearItems(ctx context.Context, cartID int) error
}

// VariantStore is the part of the catalog checkout needs.
type VariantStore interface {
	LockVariants(ctx context.Context, ids []int) (map[int]catalog.Variant, error)
	DecrementStock(ctx context.Context, id int, qty int) error
}

type ClientStore interface {
	GetByID(ctx context.Context, id int) (client.Client, error)
	UpdateContact(ctx context.Context, id int, contact client.Contact) error
}

// Options holds the settings and optional collaborators of Service. An empty
// StockPolicy means StockCheck. Without a Publisher no events are sent;
// without a Guard idempotency keys are ignored.
type Options struct {
	Rate        decimal.Decimal
	StockPolicy StockPolicy
	Publisher   events.Publisher
	Guard       IdempotencyGuard
	Log         zerolog.Logger
	Now         func() time.Time
}

type Service struct {
	orders    Repository
	carts     CartStore
	variants  VariantStore
	clients   ClientStore
	tx        database.Transactor
	rate      decimal.Decimal
	policy    StockPolicy
	publisher events.Publisher
	guard     IdempotencyGuard
	log       zerolog.Logger
	now       func() time.Time
}

func NewService(orders Repository, carts CartStore, variants VariantStore, clients ClientStore, tx database.Transactor, opts Options) *Service {
	s := &Service{
		orders:    orders,
		carts:     carts,
		variants:  variants,
		clients:   clients,
		tx:        tx,
		rate:      opts.Rate,
		policy:    opts.StockPolicy,
		publisher: opts.Publisher,
		guard:     opts.Guard,
		log:       opts.Log,
		now:       opts.Now,
	}
	if s.policy == "" {
		s.policy = StockCheck
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Checkout turns the client's cart into a pending purchase order. Everything
// happens in one transaction: on any failure no order exists, the cart is
// untouched and the client's contact data is unchanged.
func (s *Service) Checkout(ctx context.Context, clientID int, in CheckoutInput) (PurchaseOrder, error) {
	var created PurchaseOrder
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.carts.FindCart(ctx, clientID)
		if errors.Is(err, cart.ErrNoCart) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}
		items, err := s.carts.LockItems(ctx, c.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		variants, err := s.variants.LockVariants(ctx, cart.VariantIDs(items))
		if err != nil {
			return err
		}
		for _, it := range items {
			v, ok := variants[it.VariantID]
			if !ok {
				return catalog.ErrVariantNotFound
			}
			if it.Quantity > v.Stock {
				return catalog.InsufficientStock(v.Stock)
			}
		}

		if err := s.updateContact(ctx, clientID, in.Contact); err != nil {
			return err
		}

		lines, err := cart.Price(items, variants, s.rate)
		if err != nil {
			return err
		}
		po := PurchaseOrder{
			ClientID:      clientID,
			CreatedAt:     s.now().UTC(),
			Status:        StatusPending,
			PaymentMethod: strings.TrimSpace(in.PaymentMethod),
			Notes:         strings.TrimSpace(in.Notes),
			Totals:        cart.Totals(lines),
			Items:         make([]Item, len(lines)),
		}
		for i, l := range lines {
			po.Items[i] = Item{VariantID: l.VariantID, Details: l.Details, Line: l.Line}
		}

		if created, err = s.orders.Create(ctx, po); err != nil {
			return err
		}

		if s.policy == StockDecrement {
			for _, it := range items {
				if err := s.variants.DecrementStock(ctx, it.VariantID, it.Quantity); err != nil {
					return err
				}
			}
		}
		return s.carts.ClearItems(ctx, c.ID)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}

	s.log.Info().
		Int("order_id", created.ID).
		Int("client_id", clientID).
		Int("items", len(created.Items)).
		Str("total", created.Total.StringFixed(tax.Places)).
		Msg("order created")
	s.publishCreated(ctx, created)
	return created, nil
}

func (s *Service) updateContact(ctx context.Context, clientID int, in client.Contact) error {
	cl, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return err
	}
	merged, changed := cl.Contact.Merge(in)
	if !changed {
		return nil
	}
	return s.clients.UpdateContact(ctx, clientID, merged)
}

const publishTimeout = 5 * time.Second

// publishCreated runs after commit. A failure is logged; the order stands.
func (s *Service) publishCreated(ctx context.Context, po PurchaseOrder) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	e := events.NewOrderCreated(events.OrderCreated{
		OrderID:       po.ID,
		ClientID:      po.ClientID,
		Status:        po.Status,
		PaymentMethod: po.PaymentMethod,
		ItemCount:     len(po.Items),
		Total:         po.Total,
		NetTotal:      po.NetTotal,
		VATTotal:      po.VATTotal,
	}, s.now())
	if err := s.publisher.PublishOrderCreated(ctx, e); err != nil {
		s.log.Error().Err(err).Int("order_id", po.ID).Msg("publish order event")
	}
}

// List returns the client's orders, newest first.
func (s *Service) List(ctx context.Context, clientID int) ([]PurchaseOrder, error) {
	return s.orders.ListByClient(ctx, clientID)
}

// Get returns one of the client's orders with its items. Orders of other
// clients are reported as not found.
func (s *Service) Get(ctx context.Context, clientID, orderID int) (PurchaseOrder, error) {
	if orderID <= 0 {
		return PurchaseOrder{}, ErrNotFound
	}
	return s.orders.GetForClient(ctx, clientID, orderID)
}

// Contact returns the contact data the checkout form starts from.
func (s *Service) Contact(ctx context.Context, clientID int) (client.Contact, error) {
	cl, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		return client.Contact{}, err
	}
	return cl.Contact, nil
}
