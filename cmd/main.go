package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"frotastock/config"
	"frotastock/internal/pkg/cache"
	"frotastock/internal/pkg/database"
	"frotastock/internal/pkg/logger"
	"frotastock/internal/pkg/token"

	// Camadas da aplicação para Injeção de Dependências
	"frotastock/internal/api/bus"
	"frotastock/internal/api/catalog"
	"frotastock/internal/api/disposal"
	"frotastock/internal/api/item"
	"frotastock/internal/api/router"
	"frotastock/internal/api/stock"
	"frotastock/internal/api/supplier"
	"frotastock/internal/api/user"
	"frotastock/internal/repository/busrepo"
	"frotastock/internal/repository/catalogrepo"
	"frotastock/internal/repository/disposalrepo"
	"frotastock/internal/repository/itemrepo"
	"frotastock/internal/repository/stockrepo"
	"frotastock/internal/repository/supplierrepo"
	"frotastock/internal/repository/userrepo"
	"frotastock/internal/service/busservice"
	"frotastock/internal/service/catalogservice"
	"frotastock/internal/service/disposalservice"
	"frotastock/internal/service/itemservice"
	"frotastock/internal/service/stockservice"
	"frotastock/internal/service/supplierservice"
	"frotastock/internal/service/userservice"
)

func main() {
	stdlog.Println("⚡ Inicializando serviço FrotaStock...")

	// O godotenv.Load() procura por um arquivo .env na raiz. Se não existir,
	// seguimos com as variáveis do ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		stdlog.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// --- Infraestrutura ---

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	log.Debug("Serviço de Tokens JWT inicializado.", nil)

	// --- Injeção de Dependências (Repository -> Service -> Handler) ---

	stockRepo := stockrepo.NewStockRepository(db, cacheClient, cfg.DBTimeout, cfg.StockCacheTTL, log)
	itemRepo := itemrepo.NewItemRepository(db, cfg.DBTimeout, log)
	catalogRepo := catalogrepo.NewCatalogRepository(db, cfg.DBTimeout, log)
	supplierRepo := supplierrepo.NewSupplierRepository(db, cfg.DBTimeout, log)
	busRepo := busrepo.NewBusRepository(db, cfg.DBTimeout, log)
	disposalRepo := disposalrepo.NewDisposalRepository(db, cfg.DBTimeout, log)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	log.Debug("Repositórios inicializados.", nil)

	stockSvc := stockservice.NewService(stockRepo, itemRepo, log)
	itemSvc := itemservice.NewService(itemRepo, catalogRepo, log)
	catalogSvc := catalogservice.NewService(catalogRepo, log)
	supplierSvc := supplierservice.NewService(supplierRepo, itemRepo, log)
	busSvc := busservice.NewService(busRepo, log)
	disposalSvc := disposalservice.NewService(disposalRepo, stockRepo, busRepo, log)
	userSvc := userservice.NewService(userRepo, tokenSvc)
	log.Debug("Serviços inicializados.", nil)

	r := router.NewRouter(router.Deps{
		StockHandler:    stock.NewHandler(stockSvc, log),
		ItemHandler:     item.NewHandler(itemSvc, log),
		CatalogHandler:  catalog.NewHandler(catalogSvc, log),
		SupplierHandler: supplier.NewHandler(supplierSvc, log),
		BusHandler:      bus.NewHandler(busSvc, log),
		DisposalHandler: disposal.NewHandler(disposalSvc, log),
		UserHandler:     user.NewHandler(userSvc, log),

		TokenSvc:       tokenSvc,
		Cache:          cacheClient,
		ServiceAPIKeys: cfg.ServiceAPIKeys,
		RateLimit:      cfg.RateLimitMaxRequests,
		RateWindow:     cfg.RateLimitPeriod,
		Logger:         log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Execução e Graceful Shutdown ---
	go func() {
		log.Info("Servidor FrotaStock ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
