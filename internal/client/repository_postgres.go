package client

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
	getClientQuery = `
		SELECT id, company_name, tax_id, address, phone, email
		FROM clients
		WHERE id = $1
	`
	updateContactQuery = `
		UPDATE clients
		SET company_name = $1,
			tax_id = $2,
			address = $3,
			phone = $4,
			email = $5
		WHERE id = $6
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Client, error) {
	var c Client
	err := database.Conn(ctx, r.db).QueryRowContext(ctx, getClientQuery, id).
		Scan(&c.ID, &c.CompanyName, &c.TaxID, &c.Address, &c.Phone, &c.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, err
	}
	return c, nil
}

func (r *PostgresRepository) UpdateContact(ctx context.Context, id int, c Contact) error {
	res, err := database.Conn(ctx, r.db).ExecContext(ctx, updateContactQuery,
		c.CompanyName, c.TaxID, c.Address, c.Phone, c.Email, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
