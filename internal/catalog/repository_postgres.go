package catalog

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
	listActiveProductsQuery = `
		SELECT id, name, description, brand, category, image_url, is_active
		FROM products
		WHERE is_active
		ORDER BY lower(category), lower(name), id
	`
	variantColumns = `
		SELECT v.id, v.product_id, p.name, v.color, v.size, v.weight, v.is_luminous, v.has_variants,
		       v.stock, v.unit_price, v.bulk_price, v.image_url
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
	`
	variantsByProductQuery = variantColumns + `WHERE v.product_id = ANY($1::int[]) ORDER BY v.id`
	variantByIDQuery       = variantColumns + `WHERE v.id = $1`
	variantsByIDQuery      = variantColumns + `WHERE v.id = ANY($1::int[])`
	lockVariantsQuery      = variantsByIDQuery + ` ORDER BY v.id FOR UPDATE OF v`
	currentStockQuery      = `SELECT stock FROM product_variants WHERE id = $1`
	decrementStockQuery    = `UPDATE product_variants SET stock = stock - $1 WHERE id = $2 AND stock >= $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVariant(row rowScanner) (Variant, error) {
	var v Variant
	err := row.Scan(&v.ID, &v.ProductID, &v.ProductName, &v.Color, &v.Size, &v.Weight, &v.Luminous, &v.HasVariants,
		&v.Stock, &v.UnitPrice, &v.BulkPrice, &v.ImageURL)
	return v, err
}

func (r *PostgresRepository) ListActive(ctx context.Context) ([]Product, error) {
	q := database.Conn(ctx, r.db)
	rows, err := q.QueryContext(ctx, listActiveProductsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]Product, 0)
	index := make(map[int]int)
	ids := make([]int, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Brand, &p.Category, &p.ImageURL, &p.Active); err != nil {
			return nil, err
		}
		p.Variants = make([]Variant, 0)
		index[p.ID] = len(products)
		ids = append(ids, p.ID)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return products, nil
	}

	vrows, err := q.QueryContext(ctx, variantsByProductQuery, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer vrows.Close()
	for vrows.Next() {
		v, err := scanVariant(vrows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[v.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}
	return products, vrows.Err()
}

func (r *PostgresRepository) FindVariant(ctx context.Context, id int) (Variant, error) {
	v, err := scanVariant(database.Conn(ctx, r.db).QueryRowContext(ctx, variantByIDQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Variant{}, ErrVariantNotFound
		}
		return Variant{}, err
	}
	return v, nil
}

func (r *PostgresRepository) FindVariants(ctx context.Context, ids []int) (map[int]Variant, error) {
	return r.queryVariants(ctx, variantsByIDQuery, ids)
}

func (r *PostgresRepository) LockVariants(ctx context.Context, ids []int) (map[int]Variant, error) {
	return r.queryVariants(ctx, lockVariantsQuery, ids)
}

func (r *PostgresRepository) queryVariants(ctx context.Context, query string, ids []int) (map[int]Variant, error) {
	out := make(map[int]Variant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := database.Conn(ctx, r.db).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		out[v.ID] = v
	}
	return out, rows.Err()
}

func (r *PostgresRepository) DecrementStock(ctx context.Context, id int, qty int) error {
	q := database.Conn(ctx, r.db)
	res, err := q.ExecContext(ctx, decrementStockQuery, qty, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var stock int
	if err := q.QueryRowContext(ctx, currentStockQuery, id).Scan(&stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVariantNotFound
		}
		return err
	}
	return InsufficientStock(stock)
}
