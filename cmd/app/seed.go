package main

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/spintom/inserf/internal/auth"
	"github.com/spintom/inserf/internal/catalog"
	"github.com/spintom/inserf/internal/client"
	"github.com/spintom/inserf/internal/user"
)

// Demo data for runs without DATABASE_URL.

func seedProducts() []catalog.Product {
	price := decimal.RequireFromString
	return []catalog.Product{
		{ID: 1, Name: "Señuelo Minnow", Brand: "Rapala", Category: "Señuelos", Active: true, Variants: []catalog.Variant{
			{ID: 1, HasVariants: true, Color: "Rojo", Size: "9 cm", Weight: 12, Stock: 40, UnitPrice: price("4990.00"), BulkPrice: price("4190.00")},
			{ID: 2, HasVariants: true, Color: "Plata", Size: "9 cm", Weight: 12, Luminous: true, Stock: 25, UnitPrice: price("5490.00"), BulkPrice: price("4590.00")},
		}},
		{ID: 2, Name: "Anzuelos Circle N°2", Brand: "Mustad", Category: "Anzuelos", Active: true, Variants: []catalog.Variant{
			{ID: 3, Stock: 300, UnitPrice: price("1190.00"), BulkPrice: price("990.00")},
		}},
		{ID: 3, Name: "Línea Monofilamento", Brand: "Shimano", Category: "Líneas", Active: true, Variants: []catalog.Variant{
			{ID: 4, HasVariants: true, Size: "0.30 mm", Stock: 60, UnitPrice: price("7990.00"), BulkPrice: price("6990.00")},
			{ID: 5, HasVariants: true, Size: "0.40 mm", Stock: 0, UnitPrice: price("8990.00"), BulkPrice: price("7990.00")},
		}},
		{ID: 4, Name: "Caña Telescópica", Brand: "Daiwa", Category: "Cañas", Active: false, Variants: []catalog.Variant{
			{ID: 6, Stock: 5, UnitPrice: price("39990.00"), BulkPrice: price("35990.00")},
		}},
	}
}

func seedClients() []client.Client {
	return []client.Client{
		{ID: 1, Contact: client.Contact{
			CompanyName: "Pesca y Camping del Sur Ltda.",
			TaxID:       "76.543.210-K",
			Address:     "Av. Costanera 1450, Puerto Montt",
			Phone:       "+56 65 223 4455",
			Email:       "compras@pescasur.cl",
		}},
	}
}

type seedUser struct {
	user     user.User
	password string
}

func seedUsers() []seedUser {
	clientID := 1
	return []seedUser{
		{user.User{Username: "admin", Name: "Administrador", Role: auth.RoleAdmin, Active: true}, "admin1234"},
		{user.User{Username: "pescasur", Name: "Compras Pesca Sur", Role: auth.RoleClient, ClientID: &clientID, Active: true}, "cliente1234"},
	}
}

func createSeedUsers(ctx context.Context, svc *user.Service) error {
	for _, su := range seedUsers() {
		if _, err := svc.Create(ctx, su.user, su.password); err != nil {
			return err
		}
	}
	return nil
}
