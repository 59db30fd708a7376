package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spintom/inserf/internal/catalog"
	"github.com/spintom/inserf/internal/database"
)

// VariantReader is the part of the catalog the cart needs.
type VariantReader interface {
	FindVariant(ctx context.Context, id int) (catalog.Variant, error)
	FindVariants(ctx context.Context, ids []int) (map[int]catalog.Variant, error)
}

// Service implements the cart operations for a signed-in client.
type Service struct {
	repo     Repository
	variants VariantReader
	tx       database.Transactor
	rate     decimal.Decimal
}

func NewService(repo Repository, variants VariantReader, tx database.Transactor, rate decimal.Decimal) *Service {
	return &Service{repo: repo, variants: variants, tx: tx, rate: rate}
}

const (
	msgAdded   = "Producto agregado al carrito"
	msgUpdated = "Cantidad actualizada"
	msgRemoved = "Producto eliminado del carrito"
)

// AddItem adds qty units of a variant to the client's cart. Re-adding a
// variant increments its line and refreshes the stored descriptor.
func (s *Service) AddItem(ctx context.Context, clientID, variantID, qty int) (Result, error) {
	if qty < 1 {
		return Result{}, ErrInvalidQuantity
	}

	var res Result
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		v, err := s.variants.FindVariant(ctx, variantID)
		if err != nil {
			return err
		}
		if qty > v.Stock {
			return catalog.InsufficientStock(v.Stock)
		}

		c, err := s.repo.GetOrCreateCart(ctx, clientID)
		if err != nil {
			return err
		}
		details := catalog.Describe(v)
		if _, err := s.repo.AddQuantity(ctx, c.ID, v.ID, qty, details); err != nil {
			return err
		}
		count, err := s.repo.CountItems(ctx, c.ID)
		if err != nil {
			return err
		}

		res = Result{CartCount: count, Message: msgAdded}
		if v.HasVariants {
			res.Message = fmt.Sprintf("Producto con variante %q agregado al carrito", details)
		}
		return nil
	})
	return res, err
}

// UpdateItemQuantity overwrites the quantity of one of the client's lines.
// The stored descriptor is left as it is.
func (s *Service) UpdateItemQuantity(ctx context.Context, clientID, itemID, qty int) (Result, error) {
	if qty < 1 {
		return Result{}, ErrInvalidQuantity
	}

	var res Result
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.findCart(ctx, clientID)
		if err != nil {
			return err
		}
		it, err := s.repo.GetItem(ctx, c.ID, itemID)
		if err != nil {
			return err
		}
		v, err := s.variants.FindVariant(ctx, it.VariantID)
		if err != nil {
			return err
		}
		if qty > v.Stock {
			return catalog.InsufficientStock(v.Stock)
		}
		if err := s.repo.SetQuantity(ctx, it.ID, qty); err != nil {
			return err
		}
		count, err := s.repo.CountItems(ctx, c.ID)
		if err != nil {
			return err
		}
		res = Result{CartCount: count, Message: msgUpdated}
		return nil
	})
	return res, err
}

// RemoveItem deletes one of the client's lines. Removing a line twice fails
// the second time.
func (s *Service) RemoveItem(ctx context.Context, clientID, itemID int) (Result, error) {
	var res Result
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.findCart(ctx, clientID)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteItem(ctx, c.ID, itemID); err != nil {
			return err
		}
		count, err := s.repo.CountItems(ctx, c.ID)
		if err != nil {
			return err
		}
		res = Result{CartCount: count, Message: msgRemoved}
		return nil
	})
	return res, err
}

// View prices the client's cart at current catalog prices.
func (s *Service) View(ctx context.Context, clientID int) (View, error) {
	view := View{Items: make([]Line, 0)}
	view.Totals = Totals(nil)

	c, err := s.repo.FindCart(ctx, clientID)
	if errors.Is(err, ErrNoCart) {
		return view, nil
	}
	if err != nil {
		return View{}, err
	}

	items, err := s.repo.ListItems(ctx, c.ID)
	if err != nil {
		return View{}, err
	}
	variants, err := s.variants.FindVariants(ctx, VariantIDs(items))
	if err != nil {
		return View{}, err
	}
	lines, err := Price(items, variants, s.rate)
	if err != nil {
		return View{}, err
	}

	view.Items = lines
	view.Totals = Totals(lines)
	view.CartCount = len(lines)
	return view, nil
}

// findCart maps a missing cart to a missing item, since the caller is always
// asking about a line.
func (s *Service) findCart(ctx context.Context, clientID int) (Cart, error) {
	c, err := s.repo.FindCart(ctx, clientID)
	if errors.Is(err, ErrNoCart) {
		return Cart{}, ErrItemNotFound
	}
	return c, err
}
