package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pharmacy-register/internal/application/register"
	"github.com/jhoicas/pharmacy-register/internal/application/usecase"
	"github.com/jhoicas/pharmacy-register/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC   *usecase.ProductUseCase
	RecordEntry *register.RecordEntryUseCase
	Query       *register.QueryUseCase
	SaleHook    *register.SaleCompletionUseCase
	ReceiptHook *register.StockReceiptUseCase
	JWTSecret   string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	writers := RequireRole(entity.RoleAdmin, entity.RolePharmacist)
	adminOnly := RequireRole(entity.RoleAdmin)

	// Catálogo
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", adminOnly, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)

	// Registro de sustancias controladas
	reg := api.Group("/register")
	h := NewRegisterHandler(deps.RecordEntry, deps.Query, deps.SaleHook, deps.ReceiptHook)
	reg.Post("/entries", writers, h.CreateEntry)
	reg.Get("/entries/:id", h.GetEntry)
	reg.Patch("/entries/:id", adminOnly, h.UpdateEntry)
	reg.Get("/products/:id/balance", h.Balance)
	reg.Get("/products/:id/entries", h.ProductEntries)
	reg.Post("/products/:id/recalculate", adminOnly, h.Recalculate)
	reg.Get("/counts", h.Counts)
	reg.Get("/monthly-return", h.MonthlyReturn)

	// Hooks de colaboradores (POS, recepción de stock)
	reg.Post("/sales", writers, h.RecordSale)
	reg.Post("/receipts", writers, h.RecordReceipt)
}
