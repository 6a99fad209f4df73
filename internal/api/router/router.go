package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"frotastock/internal/api/bus"
	"frotastock/internal/api/catalog"
	"frotastock/internal/api/disposal"
	"frotastock/internal/api/item"
	"frotastock/internal/api/stock"
	"frotastock/internal/api/supplier"
	"frotastock/internal/api/user"
	"frotastock/internal/domain"
	"frotastock/internal/pkg/cache"
	"frotastock/internal/pkg/logger"
	"frotastock/internal/pkg/middleware"
)

// Deps agrupa tudo que o roteador precisa, já inicializado por injeção de
// dependências no main.
type Deps struct {
	StockHandler    *stock.Handler
	ItemHandler     *item.Handler
	CatalogHandler  *catalog.Handler
	SupplierHandler *supplier.Handler
	BusHandler      *bus.Handler
	DisposalHandler *disposal.Handler
	UserHandler     *user.Handler

	TokenSvc       middleware.TokenService
	Cache          cache.Client
	ServiceAPIKeys []string
	RateLimit      int
	RateWindow     time.Duration
	Logger         logger.Logger
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(d.TokenSvc)
	writers := middleware.PermissionMiddleware(domain.RoleAdmin, domain.RoleManager)
	serviceKey := middleware.NewServiceKeyMiddleware(d.ServiceAPIKeys, d.Logger)

	// Leituras exigem um usuário autenticado; escritas exigem ADMIN ou MANAGER.
	read := func(h http.HandlerFunc) http.HandlerFunc { return auth(h) }
	write := func(h http.HandlerFunc) http.HandlerFunc { return auth(writers(h)) }

	// machine aceita um JWT de usuário OU uma chave de API de serviço: as rotas
	// de lotes e de dedução também são chamadas por outros backends.
	machine := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("x-api-key") != "" {
				serviceKey(h).ServeHTTP(w, r)
				return
			}
			auth(h).ServeHTTP(w, r)
		}
	}

	// --- Health check e documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// --- Autenticação (v1) ---
	mux.HandleFunc("POST /v1/register", d.UserHandler.RegisterUserHandler)
	mux.HandleFunc("POST /v1/login", d.UserHandler.LoginUserHandler)

	// --- Estoques e lotes (v1) ---
	mux.HandleFunc("GET /v1/stocks", read(d.StockHandler.ListStocksHandler))
	mux.HandleFunc("POST /v1/stocks", write(d.StockHandler.CreateStockHandler))
	mux.HandleFunc("GET /v1/stocks/{id}", read(d.StockHandler.GetStockByIDHandler))
	mux.HandleFunc("PATCH /v1/stocks/{id}", write(d.StockHandler.UpdateStockHandler))
	mux.HandleFunc("DELETE /v1/stocks/{id}", write(d.StockHandler.DeleteStockHandler))
	mux.HandleFunc("POST /v1/stocks/{id}/deduct", machine(d.StockHandler.DeductStockHandler))
	mux.HandleFunc("DELETE /v1/stocks/{id}/batches/{batchId}", write(d.StockHandler.DeleteBatchHandler))
	mux.HandleFunc("GET /v1/batches/consumables", machine(d.StockHandler.GetConsumableBatchesHandler))
	mux.HandleFunc("GET /v1/batches/non-consumables", machine(d.StockHandler.GetNonConsumableBatchesHandler))

	// --- Catálogo de itens (v1) ---
	mux.HandleFunc("GET /v1/items", read(d.ItemHandler.ListItemsHandler))
	mux.HandleFunc("POST /v1/items", write(d.ItemHandler.CreateItemHandler))
	mux.HandleFunc("GET /v1/items/{id}", read(d.ItemHandler.GetItemByIDHandler))
	mux.HandleFunc("PUT /v1/items/{id}", write(d.ItemHandler.UpdateItemHandler))
	mux.HandleFunc("DELETE /v1/items/{id}", write(d.ItemHandler.DeleteItemHandler))

	// --- Tabelas de referência (v1) ---
	mux.HandleFunc("GET /v1/categories", read(d.CatalogHandler.ListCategoriesHandler))
	mux.HandleFunc("GET /v1/categories/{id}", read(d.CatalogHandler.GetCategoryByIDHandler))
	mux.HandleFunc("GET /v1/units", read(d.CatalogHandler.ListUnitsHandler))
	mux.HandleFunc("GET /v1/units/{id}", read(d.CatalogHandler.GetUnitByIDHandler))

	// --- Fornecedores e preços (v1) ---
	mux.HandleFunc("GET /v1/suppliers", read(d.SupplierHandler.ListSuppliersHandler))
	mux.HandleFunc("POST /v1/suppliers", write(d.SupplierHandler.CreateSupplierHandler))
	mux.HandleFunc("GET /v1/suppliers/{id}", read(d.SupplierHandler.GetSupplierByIDHandler))
	mux.HandleFunc("PUT /v1/suppliers/{id}", write(d.SupplierHandler.UpdateSupplierHandler))
	mux.HandleFunc("DELETE /v1/suppliers/{id}", write(d.SupplierHandler.DeleteSupplierHandler))
	mux.HandleFunc("GET /v1/suppliers/{id}/prices", read(d.SupplierHandler.ListItemPricesHandler))
	mux.HandleFunc("POST /v1/suppliers/{id}/prices", write(d.SupplierHandler.RegisterItemPriceHandler))

	// --- Frota (v1) ---
	mux.HandleFunc("GET /v1/buses", read(d.BusHandler.ListBusesHandler))
	mux.HandleFunc("POST /v1/buses", write(d.BusHandler.CreateBusHandler))
	mux.HandleFunc("GET /v1/buses/{id}", read(d.BusHandler.GetBusByIDHandler))
	mux.HandleFunc("PUT /v1/buses/{id}", write(d.BusHandler.UpdateBusHandler))
	mux.HandleFunc("DELETE /v1/buses/{id}", write(d.BusHandler.DeleteBusHandler))

	// --- Baixas (v1) ---
	mux.HandleFunc("GET /v1/disposals", read(d.DisposalHandler.ListDisposalsHandler))
	mux.HandleFunc("POST /v1/disposals", write(d.DisposalHandler.CreateDisposalHandler))

	// Rate limiting global por IP, contadores no Redis.
	return middleware.RateLimiter(d.Cache, d.RateLimit, d.RateWindow)(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
