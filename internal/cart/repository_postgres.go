package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spintom/inserf/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	findCartQuery = `SELECT id, client_id, created_at FROM carts WHERE client_id = $1`
	// The no-op update makes RETURNING yield the existing row on conflict.
	getOrCreateCartQuery = `
		INSERT INTO carts (client_id) VALUES ($1)
		ON CONFLICT (client_id) DO UPDATE SET client_id = EXCLUDED.client_id
		RETURNING id, client_id, created_at
	`
	addQuantityQuery = `
		INSERT INTO cart_items (cart_id, variant_id, quantity, variant_details)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, variant_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity,
			variant_details = EXCLUDED.variant_details
		RETURNING id, cart_id, variant_id, quantity, variant_details
	`
	itemColumns      = `SELECT id, cart_id, variant_id, quantity, variant_details FROM cart_items `
	getItemQuery     = itemColumns + `WHERE id = $1 AND cart_id = $2`
	listItemsQuery   = itemColumns + `WHERE cart_id = $1 ORDER BY id`
	lockItemsQuery   = listItemsQuery + ` FOR UPDATE`
	setQuantityQuery = `UPDATE cart_items SET quantity = $1 WHERE id = $2`
	deleteItemQuery  = `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`
	countItemsQuery  = `SELECT count(*) FROM cart_items WHERE cart_id = $1`
	clearItemsQuery  = `DELETE FROM cart_items WHERE cart_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.CartID, &it.VariantID, &it.Quantity, &it.Details)
	return it, err
}

func (r *PostgresRepository) FindCart(ctx context.Context, clientID int) (Cart, error) {
	var c Cart
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, findCartQuery, clientID).Scan(&c.ID, &c.ClientID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Cart{}, ErrNoCart
	}
	return c, err
}

func (r *PostgresRepository) GetOrCreateCart(ctx context.Context, clientID int) (Cart, error) {
	var c Cart
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, getOrCreateCartQuery, clientID).Scan(&c.ID, &c.ClientID, &c.CreatedAt)
	return c, err
}

func (r *PostgresRepository) AddQuantity(ctx context.Context, cartID, variantID, qty int, details string) (Item, error) {
	return scanItem(database.Conn(ctx, r.db).QueryRowContext(ctx, addQuantityQuery, cartID, variantID, qty, details))
}

func (r *PostgresRepository) GetItem(ctx context.Context, cartID, itemID int) (Item, error) {
	it, err := scanItem(database.Conn(ctx, r.db).QueryRowContext(ctx, getItemQuery, itemID, cartID))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrItemNotFound
	}
	return it, err
}

func (r *PostgresRepository) SetQuantity(ctx context.Context, itemID, qty int) error {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, setQuantityQuery, qty, itemID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepository) DeleteItem(ctx context.Context, cartID, itemID int) error {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, deleteItemQuery, itemID, cartID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PostgresRepository) ListItems(ctx context.Context, cartID int) ([]Item, error) {
	return r.queryItems(ctx, listItemsQuery, cartID)
}

func (r *PostgresRepository) LockItems(ctx context.Context, cartID int) ([]Item, error) {
	return r.queryItems(ctx, lockItemsQuery, cartID)
}

func (r *PostgresRepository) queryItems(ctx context.Context, query string, cartID int) ([]Item, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) CountItems(ctx context.Context, cartID int) (int, error) {
	var n int
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, countItemsQuery, cartID).Scan(&n)
	return n, err
}

func (r *PostgresRepository) ClearItems(ctx context.Context, cartID int) error {
	_, err := database.Conn(ctx, r.db).ExecContext(ctx, clearItemsQuery, cartID)
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}
