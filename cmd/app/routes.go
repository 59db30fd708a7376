package main

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/spintom/inserf/internal/auth"
	"github.com/spintom/inserf/internal/cart"
	"github.com/spintom/inserf/internal/catalog"
	"github.com/spintom/inserf/internal/client"
	"github.com/spintom/inserf/internal/config"
	"github.com/spintom/inserf/internal/database"
	"github.com/spintom/inserf/internal/events"
	"github.com/spintom/inserf/internal/httpx"
	"github.com/spintom/inserf/internal/logging"
	"github.com/spintom/inserf/internal/order"
	"github.com/spintom/inserf/internal/user"
)

// stores groups the repositories of one backend with its transaction manager.
type stores struct {
	catalog catalog.Repository
	carts   cart.Repository
	clients client.Repository
	users   user.Repository
	orders  order.Repository
	tx      database.Transactor
}

func postgresStores(db *sql.DB) stores {
	return stores{
		catalog: catalog.NewPostgresRepository(db),
		carts:   cart.NewPostgresRepository(db),
		clients: client.NewPostgresRepository(db),
		users:   user.NewPostgresRepository(db),
		orders:  order.NewPostgresRepository(db),
		tx:      database.NewTxManager(db),
	}
}

func memoryStores() stores {
	catalogRepo := catalog.NewInMemoryRepository(seedProducts())
	cartRepo := cart.NewInMemoryRepository()
	clientRepo := client.NewInMemoryRepository(seedClients())
	orderRepo := order.NewInMemoryRepository()
	return stores{
		catalog: catalogRepo,
		carts:   cartRepo,
		clients: clientRepo,
		users:   user.NewInMemoryRepository(nil),
		orders:  orderRepo,
		tx:      database.NewMemoryTx(catalogRepo, cartRepo, clientRepo, orderRepo),
	}
}

type services struct {
	users   *user.Service
	catalog *catalog.Service
	carts   *cart.Service
	orders  *order.Service
}

func newServices(cfg config.Config, st stores, pub events.Publisher, guard order.IdempotencyGuard, log zerolog.Logger) (services, error) {
	policy, err := order.ParseStockPolicy(cfg.StockPolicy)
	if err != nil {
		return services{}, err
	}
	catalogService := catalog.NewService(st.catalog)
	return services{
		users:   user.NewService(st.users),
		catalog: catalogService,
		carts:   cart.NewService(st.carts, catalogService, st.tx, cfg.VATRate),
		orders: order.NewService(st.orders, st.carts, st.catalog, st.clients, st.tx, order.Options{
			Rate:        cfg.VATRate,
			StockPolicy: policy,
			Publisher:   pub,
			Guard:       guard,
			Log:         log,
		}),
	}, nil
}

func newApp(cfg config.Config, svc services, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "inserf",
		ErrorHandler: httpx.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logging.Middleware(log))
	setupCORS(app)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	secret := []byte(cfg.JWTSecret)
	user.NewHandler(svc.users, secret, log).RegisterPublicRoutes(app)
	catalog.NewHandler(svc.catalog, log).RegisterPublicRoutes(app)

	app.Use(auth.Middleware(secret, log))
	storefront := app.Group("", auth.Require(log, auth.RoleClient))
	cart.NewHandler(svc.carts, log).RegisterProtectedRoutes(storefront)
	order.NewHandler(svc.orders, svc.carts, log).RegisterProtectedRoutes(storefront)

	return app
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,HEAD,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		ExposeHeaders: "Location, Idempotent-Replayed",
	}))
}
