package main

import (
	"context"
	"log"

	"go-ticket-storefront/config"
	"go-ticket-storefront/internal/cache"
	"go-ticket-storefront/internal/database"
	"go-ticket-storefront/internal/handler"
	"go-ticket-storefront/internal/inventory"
	"go-ticket-storefront/internal/queue"
	"go-ticket-storefront/internal/repository"
	"go-ticket-storefront/internal/service"
	"go-ticket-storefront/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 庫存核心：Postgres 帳本 + Redis 可售數量快取
	availabilityCache := cache.NewRedisAvailabilityCache(rdb)
	ledgerStore := inventory.NewPostgresLedgerStore(pool)
	engine := inventory.NewEngine(ledgerStore, availabilityCache, cfg.Inventory.MaxRetries)

	// Repositories
	eventRepo := repository.NewEventRepository(pool)
	ticketTypeRepo := repository.NewTicketTypeRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	discountRepo := repository.NewDiscountRepository(pool)

	// 履約事件隊列與 worker
	fulfillmentQueue, err := queue.NewRedisStreamFulfillmentQueue(rdb, "", nil)
	if err != nil {
		log.Fatalf("Failed to initialize fulfillment queue: %v", err)
	}
	fulfillmentWorker := worker.NewFulfillmentWorker(worker.LogNotifier{}, fulfillmentQueue)
	if err := fulfillmentWorker.Start(ctx); err != nil {
		log.Fatalf("Failed to start fulfillment worker: %v", err)
	}

	// Services
	discountService := service.NewDiscountService(discountRepo)
	orderService := service.NewOrderService(
		orderRepo, ticketTypeRepo, ticketRepo, discountRepo,
		discountService, engine, fulfillmentQueue,
	)
	eventService := service.NewEventService(eventRepo, ticketTypeRepo, availabilityCache)
	ticketTypeService := service.NewTicketTypeService(ticketTypeRepo, eventRepo)
	ticketService := service.NewTicketService(ticketRepo)

	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	handler.NewEventHandler(eventService).RegisterRoutes(router)
	handler.NewTicketTypeHandler(ticketTypeService).RegisterRoutes(router)
	handler.NewOrderHandler(orderService).RegisterRoutes(router)
	handler.NewDiscountHandler(discountService).RegisterRoutes(router)
	handler.NewAvailabilityHandler(engine).RegisterRoutes(router)
	handler.NewTicketHandler(ticketService).RegisterRoutes(router)

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
