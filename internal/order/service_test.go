package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spintom/inserf/internal/apperr"
	"github.com/spintom/inserf/internal/cart"
	"github.com/spintom/inserf/internal/catalog"
	"github.com/spintom/inserf/internal/client"
	"github.com/spintom/inserf/internal/database"
	"github.com/spintom/inserf/internal/events"
	"github.com/spintom/inserf/internal/tax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	clientA = 1
	clientB = 2

	lureRed  = 10
	hookPack = 20
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderCreated
	err    error
}

func (p *recordingPublisher) PublishOrderCreated(_ context.Context, e events.OrderCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

// failingOrders lets Create fail after the earlier checkout steps have
// already written.
type failingOrders struct {
	*InMemoryRepository
	err error
}

func (f *failingOrders) Create(ctx context.Context, po PurchaseOrder) (PurchaseOrder, error) {
	if f.err != nil {
		return PurchaseOrder{}, f.err
	}
	return f.InMemoryRepository.Create(ctx, po)
}

type fixture struct {
	svc       *Service
	cartSvc   *cart.Service
	orders    *failingOrders
	carts     *cart.InMemoryRepository
	catalog   *catalog.InMemoryRepository
	clients   *client.InMemoryRepository
	publisher *recordingPublisher
	guard     *MemoryGuard
	clock     time.Time
}

func newFixture(t *testing.T, policy StockPolicy) *fixture {
	t.Helper()
	f := &fixture{
		catalog: catalog.NewInMemoryRepository([]catalog.Product{
			{ID: 1, Name: "Señuelo", Category: "Pesca", Active: true, Variants: []catalog.Variant{
				{ID: lureRed, HasVariants: true, Color: "Rojo", Stock: 5, UnitPrice: decimal.RequireFromString("1190.00")},
			}},
			{ID: 2, Name: "Anzuelos", Category: "Pesca", Active: true, Variants: []catalog.Variant{
				{ID: hookPack, Stock: 50, UnitPrice: decimal.RequireFromString("595.00")},
			}},
		}),
		carts: cart.NewInMemoryRepository(),
		clients: client.NewInMemoryRepository([]client.Client{
			{ID: clientA, Contact: client.Contact{CompanyName: "Pesca Sur", TaxID: "76.111.111-1", Email: "a@pescasur.cl"}},
			{ID: clientB, Contact: client.Contact{CompanyName: "Camping Norte"}},
		}),
		orders:    &failingOrders{InMemoryRepository: NewInMemoryRepository()},
		publisher: &recordingPublisher{},
		guard:     NewMemoryGuard(time.Hour),
		clock:     time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
	}
	tx := database.NewMemoryTx(f.carts, f.catalog, f.clients, f.orders.InMemoryRepository)
	f.cartSvc = cart.NewService(f.carts, f.catalog, tx, tax.DefaultRate)
	f.svc = NewService(f.orders, f.carts, f.catalog, f.clients, tx, Options{
		Rate:        tax.DefaultRate,
		StockPolicy: policy,
		Publisher:   f.publisher,
		Guard:       f.guard,
		Log:         zerolog.Nop(),
		Now: func() time.Time {
			f.clock = f.clock.Add(time.Minute)
			return f.clock
		},
	})
	return f
}

func (f *fixture) add(t *testing.T, clientID, variantID, qty int) {
	t.Helper()
	_, err := f.cartSvc.AddItem(context.Background(), clientID, variantID, qty)
	require.NoError(t, err)
}

func (f *fixture) cartLen(t *testing.T, clientID int) int {
	t.Helper()
	view, err := f.cartSvc.View(context.Background(), clientID)
	require.NoError(t, err)
	return len(view.Items)
}

func (f *fixture) stock(t *testing.T, variantID int) int {
	t.Helper()
	v, err := f.catalog.FindVariant(context.Background(), variantID)
	require.NoError(t, err)
	return v.Stock
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCheckout_TwoLines(t *testing.T) {
	f := newFixture(t, StockCheck)
	ctx := context.Background()
	f.add(t, clientA, lureRed, 2)
	f.add(t, clientA, hookPack, 1)

	po, err := f.svc.Checkout(ctx, clientA, CheckoutInput{PaymentMethod: " transferencia ", Notes: "entregar en bodega"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.orders.Count())
	assert.Equal(t, StatusPending, po.Status)
	assert.Equal(t, "transferencia", po.PaymentMethod)
	assert.Equal(t, "entregar en bodega", po.Notes)
	require.Len(t, po.Items, 2)

	assert.True(t, po.Total.Equal(dec("2975.00")), po.Total.String())
	assert.True(t, po.NetTotal.Equal(dec("2500.00")), po.NetTotal.String())
	assert.True(t, po.VATTotal.Equal(dec("475.00")), po.VATTotal.String())

	sum := tax.Totals{Total: decimal.Zero, NetTotal: decimal.Zero, VATTotal: decimal.Zero}
	for _, it := range po.Items {
		assert.True(t, it.NetSubtotal.Add(it.VATSubtotal).Equal(it.Subtotal))
		sum.Total = sum.Total.Add(it.Subtotal)
		sum.NetTotal = sum.NetTotal.Add(it.NetSubtotal)
		sum.VATTotal = sum.VATTotal.Add(it.VATSubtotal)
	}
	assert.True(t, sum.Total.Equal(po.Total))
	assert.True(t, sum.NetTotal.Equal(po.NetTotal))
	assert.True(t, sum.VATTotal.Equal(po.VATTotal))

	assert.Equal(t, "Rojo", po.Items[0].Details)
	assert.Equal(t, catalog.NoVariantLabel, po.Items[1].Details)

	assert.Zero(t, f.cartLen(t, clientA))
	assert.Equal(t, 5, f.stock(t, lureRed))
	assert.Equal(t, 50, f.stock(t, hookPack))
}

func TestCheckout_ScenarioFigures(t *testing.T) {
	f := newFixture(t, StockCheck)
	f.add(t, clientA, lureRed, 3)

	po, err := f.svc.Checkout(context.Background(), clientA, CheckoutInput{})
	require.NoError(t, err)
	require.Len(t, po.Items, 1)

	it := po.Items[0]
	assert.True(t, it.Price.Equal(dec("1190.00")))
	assert.True(t, it.Net.Equal(dec("1000.00")))
	assert.True(t, it.VAT.Equal(dec("190.00")))
	assert.Equal(t, 3, it.Quantity)
	assert.True(t, it.Subtotal.Equal(dec("3570.00")))
	assert.True(t, it.NetSubtotal.Equal(dec("3000.00")))
	assert.True(t, it.VATSubtotal.Equal(dec("570.00")))
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t, StockCheck)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, clientA, CheckoutInput{})
	assert.Equal(t, apperr.EmptyCart, apperr.KindOf(err), "client without a cart")

	f.add(t, clientA, hookPack, 1)
	_, err = f.svc.Checkout(ctx, clientA, CheckoutInput{})
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, clientA, CheckoutInput{})
	assert.Equal(t, apperr.EmptyCart, apperr.KindOf(err), "cart emptied by the first checkout")
	assert.Equal(t, 1, f.orders.Count())
	assert.Len(t, f.publisher.events, 1)
}

func TestCheckout_StockDroppedSinceAdd(t *testing.T) {
	f := newFixture(t, StockCheck)
	ctx := context.Background()
	f.add(t, clientA, hookPack, 1)
	f.add(t, clientA, lureRed, 4)

	v, err := f.catalog.FindVariant(ctx, lureRed)
	require.NoError(t, err)
	v.Stock = 3
	require.NoError(t, f.catalog.UpdateVariant(v))

	_, err = f.svc.Checkout(ctx, clientA, CheckoutInput{Contact: client.Contact{Phone: "999"}})
	require.Equal(t, apperr.InsufficientStock, apperr.KindOf(err))

	assert.Zero(t, f.orders.Count())
	assert.Equal(t, 2, f.cartLen(t, clientA))
	c, _ := f.clients.GetByID(ctx, clientA)
	assert.Empty(t, c.Phone)
	assert.Empty(t, f.publisher.events)
}

func TestCheckout_RollsBackOnStoreFailure(t *testing.T) {
	f := newFixture(t, StockDecrement)
	ctx := context.Background()
	f.add(t, clientA, lureRed, 2)
	f.orders.err = errors.New("disk full")

	_, err := f.svc.Checkout(ctx, clientA, CheckoutInput{Contact: client.Contact{CompanyName: "Nuevo Nombre"}})
	require.Error(t, err)
	assert.Equal(t, apperr.Unexpected, apperr.KindOf(err))

	c, _ := f.clients.GetByID(ctx, clientA)
	assert.Equal(t, "Pesca Sur", c.CompanyName)
	assert.Equal(t, 1, f.cartLen(t, clientA))
	assert.Equal(t, 5, f.stock(t, lureRed))
	assert.Zero(t, f.orders.Count())
}

func TestCheckout_UpdatesContact(t *testing.T) {
	f := newFixture(t, StockCheck)
	ctx := context.Background()
	f.add(t, clientA, hookPack, 1)

	_, err := f.svc.Checkout(ctx, clientA, CheckoutInput{Contact: client.Contact{
		CompanyName: "Pesca Sur",
		Address:     "Av. Costanera 123",
		Phone:       "+56 9 1234 5678",
	}})
	require.NoError(t, err)

	contact, err := f.svc.Contact(ctx, clientA)
	require.NoError(t, err)
	assert.Equal(t, "Pesca Sur", contact.CompanyName)
	assert.Equal(t, "Av. Costanera 123", contact.Address)
	assert.Equal(t, "+56 9 1234 5678", contact.Phone)
	assert.Equal(t, "76.111.111-1", contact.TaxID)
}

func TestCheckout_DecrementPolicy(t *testing.T) {
	f := newFixture(t, StockDecrement)
	f.add(t, clientA, lureRed, 2)
	f.add(t, clientA, hookPack, 10)

	_, err := f.svc.Checkout(context.Background(), clientA, CheckoutInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, f.stock(t, lureRed))
	assert.Equal(t, 40, f.stock(t, hookPack))
}

func TestCheckout_FrozenAfterCreation(t *testing.T) {
	f := newFixture(t, StockCheck)
	ctx := context.Background()
	f.add(t, clientA, lureRed, 1)

	po, err := f.svc.Checkout(ctx, clientA, CheckoutInput{})
	require.NoError(t, err)

	v, _ := f.catalog.FindVariant(ctx, lureRed)
	v.UnitPrice = dec("2000.00")
	v.Color = "Azul"
	require.NoError(t, f.catalog.UpdateVariant(v))

	got, err := f.svc.Get(ctx, clientA, po.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Price.Equal(dec("1190.00")))
	assert.Equal(t, "Rojo", got.Items[0].Details)
	assert.True(t, got.Total.Equal(dec("1190.00")))
}

func TestCheckout_BlankDescriptorFallsBack(t *testing.T) {
	f := newFixture(t, StockCheck)
	ctx := context.Background()
	c, err := f.carts.GetOrCreateCart(ctx, clientA)
	require.NoError(t, err)
	_, err = f.carts.AddQuantity(ctx, c.ID, lureRed, 1, "")
	require.NoError(t, err)

	po, err := f.svc.Checkout(ctx, clientA, CheckoutInput{})
	require.NoError(t, err)
	assert.Equal(t, "Rojo", po.Items[0].Details)
}

func TestCheckout_PublishesAfterCommit(t *testing.T) {
	f := newFixture(t, StockCheck)
	f.add(t, clientA, lureRed, 1)
	f.publisher.err = errors.New("broker down")

	po, err := f.svc.Checkout(context.Background(), clientA, CheckoutInput{PaymentMethod: "transferencia"})
	require.NoError(t, err, "a publish failure must not fail the checkout")

	require.Len(t, f.publisher.events, 1)
	e := f.publisher.events[0]
	assert.Equal(t, events.TypeOrderCreated, e.Type)
	assert.Equal(t, po.ID, e.OrderID)
	assert.Equal(t, clientA, e.ClientID)
	assert.Equal(t, 1, e.ItemCount)
	assert.True(t, e.Total.Equal(po.Total))
	assert.NotEmpty(t, e.EventID)
}

func TestList_NewestFirstAndScoped(t *testing.T) {
	f := newFixture(t, StockCheck)
	ctx := context.Background()

	var ids []int
	for i := 0; i < 3; i++ {
		f.add(t, clientA, hookPack, 1)
		po, err := f.svc.Checkout(ctx, clientA, CheckoutInput{})
		require.NoError(t, err)
		ids = append(ids, po.ID)
	}
	f.add(t, clientB, hookPack, 1)
	other, err := f.svc.Checkout(ctx, clientB, CheckoutInput{})
	require.NoError(t, err)

	orders, err := f.svc.List(ctx, clientA)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []int{ids[2], ids[1], ids[0]}, []int{orders[0].ID, orders[1].ID, orders[2].ID})

	_, err = f.svc.Get(ctx, clientA, other.ID)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	_, err = f.svc.Get(ctx, clientA, 0)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestCheckoutIdempotent(t *testing.T) {
	f := newFixture(t, StockCheck)
	ctx := context.Background()
	f.add(t, clientA, lureRed, 1)

	first, replayed, err := f.svc.CheckoutIdempotent(ctx, clientA, "k-1", CheckoutInput{})
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := f.svc.CheckoutIdempotent(ctx, clientA, "k-1", CheckoutInput{})
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Items, 1)
	assert.Equal(t, 1, f.orders.Count())

	// same key from another client is a different checkout
	_, _, err = f.svc.CheckoutIdempotent(ctx, clientB, "k-1", CheckoutInput{})
	assert.Equal(t, apperr.EmptyCart, apperr.KindOf(err))
}

func TestCheckoutIdempotent_FailureReleasesKey(t *testing.T) {
	f := newFixture(t, StockCheck)
	ctx := context.Background()

	_, _, err := f.svc.CheckoutIdempotent(ctx, clientA, "k-2", CheckoutInput{})
	assert.Equal(t, apperr.EmptyCart, apperr.KindOf(err))

	f.add(t, clientA, hookPack, 1)
	po, replayed, err := f.svc.CheckoutIdempotent(ctx, clientA, "k-2", CheckoutInput{})
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotZero(t, po.ID)
}

func TestCheckoutIdempotent_InFlight(t *testing.T) {
	f := newFixture(t, StockCheck)
	ctx := context.Background()
	f.add(t, clientA, hookPack, 1)

	_, err := f.guard.Begin(ctx, "1:k-3")
	require.NoError(t, err)

	_, _, err = f.svc.CheckoutIdempotent(ctx, clientA, "k-3", CheckoutInput{})
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))
	assert.Equal(t, 1, f.cartLen(t, clientA))
}

func TestMemoryGuard_Expiry(t *testing.T) {
	g := NewMemoryGuard(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	ctx := context.Background()

	id, err := g.Begin(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, id)
	require.NoError(t, g.Complete(ctx, "k", 77))

	id, err = g.Begin(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 77, id)

	now = now.Add(2 * time.Minute)
	id, err = g.Begin(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestParseStockPolicy(t *testing.T) {
	p, err := ParseStockPolicy("")
	require.NoError(t, err)
	assert.Equal(t, StockCheck, p)

	p, err = ParseStockPolicy("DECREMENT")
	require.NoError(t, err)
	assert.Equal(t, StockDecrement, p)

	_, err = ParseStockPolicy("reserve")
	assert.Error(t, err)
}
