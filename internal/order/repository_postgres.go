package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/spintom/inserf/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	insertOrderQuery = `
		INSERT INTO purchase_orders (client_id, created_at, status, total_amount, net_total, vat_total, payment_method, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	insertItemQuery = `
		INSERT INTO order_items (order_id, variant_id, quantity, unit_price, net_unit_price, vat_amount,
			subtotal, net_subtotal, vat_subtotal, variant_details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	orderColumns = `
		SELECT id, client_id, created_at, status, total_amount, net_total, vat_total, payment_method, notes
		FROM purchase_orders
	`
	listOrdersQuery   = orderColumns + `WHERE client_id = $1 ORDER BY created_at DESC, id DESC`
	getOrderQuery     = orderColumns + `WHERE id = $1 AND client_id = $2`
	itemsByOrderQuery = `
		SELECT id, order_id, variant_id, quantity, unit_price, net_unit_price, vat_amount,
			subtotal, net_subtotal, vat_subtotal, variant_details
		FROM order_items
		WHERE order_id = ANY($1::int[])
		ORDER BY order_id, id
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := row.Scan(&po.ID, &po.ClientID, &po.CreatedAt, &po.Status,
		&po.Total, &po.NetTotal, &po.VATTotal, &po.PaymentMethod, &po.Notes)
	return po, err
}

// Create must run inside a transaction so the order and its items commit
// together.
func (r *PostgresRepository) Create(ctx context.Context, po PurchaseOrder) (PurchaseOrder, error) {
	q := database.Conn(ctx, r.db)
	err := q.QueryRowContext(ctx, insertOrderQuery,
		po.ClientID, po.CreatedAt, po.Status, po.Total, po.NetTotal, po.VATTotal, po.PaymentMethod, po.Notes).
		Scan(&po.ID)
	if err != nil {
		return PurchaseOrder{}, err
	}

	items := make([]Item, len(po.Items))
	for i, it := range po.Items {
		it.OrderID = po.ID
		err := q.QueryRowContext(ctx, insertItemQuery,
			it.OrderID, it.VariantID, it.Quantity, it.Price, it.Net, it.VAT,
			it.Subtotal, it.NetSubtotal, it.VATSubtotal, it.Details).Scan(&it.ID)
		if err != nil {
			return PurchaseOrder{}, err
		}
		items[i] = it
	}
	po.Items = items
	return po, nil
}

func (r *PostgresRepository) ListByClient(ctx context.Context, clientID int) ([]PurchaseOrder, error) {
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, listOrdersQuery, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]PurchaseOrder, 0)
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, po)
	}
	return orders, rows.Err()
}

func (r *PostgresRepository) GetForClient(ctx context.Context, clientID, orderID int) (PurchaseOrder, error) {
	q := database.Conn(ctx, r.db)
	po, err := scanOrder(q.QueryRowContext(ctx, getOrderQuery, orderID, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PurchaseOrder{}, ErrNotFound
		}
		return PurchaseOrder{}, err
	}

	rows, err := q.QueryContext(ctx, itemsByOrderQuery, pq.Array([]int{po.ID}))
	if err != nil {
		return PurchaseOrder{}, err
	}
	defer rows.Close()

	po.Items = make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.VariantID, &it.Quantity, &it.Price, &it.Net, &it.VAT,
			&it.Subtotal, &it.NetSubtotal, &it.VATSubtotal, &it.Details); err != nil {
			return PurchaseOrder{}, err
		}
		po.Items = append(po.Items, it)
	}
	return po, rows.Err()
}
