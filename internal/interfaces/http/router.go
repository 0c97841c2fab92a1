package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/warehouse-monitoring/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockQuery    *inventory.StockQueryUseCase
	MovementQuery *inventory.MovementQueryUseCase
	JWTSecret     string // vacío = API sin autenticación
	JWTIssuer     string // vacío = no se verifica iss
	RateLimit     string // formato ulule/limiter; vacío = sin límite
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) error {
	var middlewares []fiber.Handler
	if deps.RateLimit != "" {
		rl, err := RateLimitMiddleware(deps.RateLimit)
		if err != nil {
			return fmt.Errorf("rate limit %q: %w", deps.RateLimit, err)
		}
		middlewares = append(middlewares, rl)
	}
	if deps.JWTSecret != "" {
		middlewares = append(middlewares, AuthMiddleware(deps.JWTSecret, deps.JWTIssuer), RequireRole(ReadRoles...))
	}

	api := app.Group("/api", middlewares...)

	stockHandler := NewStockHandler(deps.StockQuery)
	warehouses := api.Group("/warehouses")
	warehouses.Get("/:warehouse_id/products", stockHandler.ListByWarehouse)
	warehouses.Get("/:warehouse_id/products/:product_id", stockHandler.GetStock)

	movementHandler := NewMovementHandler(deps.MovementQuery)
	api.Get("/movements/:movement_id", movementHandler.GetMovement)
	return nil
}
