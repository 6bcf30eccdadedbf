package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"wms-service/internal/clients"
	"wms-service/internal/config"
	"wms-service/internal/events"
	"wms-service/internal/handlers"
	"wms-service/internal/middleware"
	"wms-service/internal/models"
	"wms-service/internal/repository"
	"wms-service/internal/services"
)

// eventNotifier forwards ledger change announcements to the event bus.
type eventNotifier struct {
	publisher *events.Publisher
}

func (n eventNotifier) InventoryChanged(tenantID string, variantIDs []uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n.publisher.PublishInventoryChanged(ctx, tenantID, variantIDs)
}

// fanoutNotifier delivers one announcement to every registered notifier.
type fanoutNotifier struct {
	targets []services.InventoryNotifier
}

func (f fanoutNotifier) InventoryChanged(tenantID string, variantIDs []uuid.UUID) {
	for _, t := range f.targets {
		t.InventoryChanged(tenantID, variantIDs)
	}
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	// Initialize logrus logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// Initialize database
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.Warehouse{},
		&models.Location{},
		&models.InventoryBalance{},
		&models.InventoryTransaction{},
		&models.InventoryLot{},
		&models.Vendor{},
		&models.VendorProduct{},
		&models.ApprovalTier{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderLine{},
		&models.PoRevision{},
		&models.InboundShipment{},
		&models.InboundShipmentLine{},
		&models.ShipmentCost{},
		&models.ShipmentCostAllocation{},
		&models.LandedCostSnapshot{},
		&models.ReceivingOrder{},
		&models.ReceivingLine{},
		&models.SalesOrder{},
		&models.SalesOrderLine{},
		&models.OMSSettings{},
		&models.PickWave{},
		&models.PickTask{},
		&models.ReplenRule{},
		&models.ReplenTask{},
		&models.Channel{},
		&models.ChannelFeed{},
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&repository.DocumentSequence{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Redis session store (optional outside production)
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal("Invalid REDIS_URL:", err)
		}
		redisClient = redis.NewClient(opts)
		log.Println("✓ Redis session store configured")
	} else {
		log.Println("REDIS_URL not configured, sessions held in tokens only")
	}

	// NATS event publisher (graceful degradation if unavailable)
	var publisher *events.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = events.NewPublisher(cfg.NATS.URL, cfg.NATS.StreamName, logger)
		if err != nil {
			log.Printf("Warning: event publishing disabled: %v", err)
			publisher = nil
		} else {
			log.Println("✓ Connected to NATS JetStream for event publishing")
			defer publisher.Close()
		}
	} else {
		log.Println("NATS_URL not configured, event publishing disabled")
	}

	// Repositories
	catalogRepo := repository.NewCatalogRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	purchasingRepo := repository.NewPurchasingRepository(db)
	shipmentRepo := repository.NewShipmentRepository(db)
	receivingRepo := repository.NewReceivingRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	pickingRepo := repository.NewPickingRepository(db)
	replenRepo := repository.NewReplenRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	userRepo := repository.NewUserRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)

	// Services
	catalogService := services.NewCatalogService(catalogRepo, ledgerRepo, logger)
	locationService := services.NewLocationService(locationRepo, ledgerRepo, logger)
	ledgerService := services.NewLedgerService(ledgerRepo, catalogRepo, logger)
	atpService := services.NewATPService(ledgerRepo, catalogRepo, locationRepo)
	purchasingService := services.NewPurchasingService(purchasingRepo, catalogRepo, sequenceRepo, logger)
	landedCostService := services.NewLandedCostService(shipmentRepo, purchasingRepo, logger)
	shipmentService := services.NewShipmentService(shipmentRepo, purchasingRepo, catalogRepo, sequenceRepo, landedCostService, logger)
	receivingService := services.NewReceivingService(receivingRepo, locationRepo, shipmentRepo, catalogService, ledgerService, purchasingService, sequenceRepo, logger)
	orderService := services.NewOrderService(orderRepo, catalogRepo, locationRepo, ledgerService, sequenceRepo, logger)
	pickingService := services.NewPickingService(pickingRepo, orderRepo, locationRepo, catalogRepo, ledgerRepo, ledgerService, sequenceRepo, logger)
	replenService := services.NewReplenService(replenRepo, catalogRepo, locationRepo, ledgerRepo, ledgerService, logger)
	authService := services.NewAuthService(userRepo, redisClient, cfg.App.JWTSecret, cfg.Redis.SessionTTL, logger)

	drivers := clients.NewRegistry(
		clients.NewShopifyDriver(cfg.Sync.RequestTimeout, logger),
		clients.NewAmazonDriver(cfg.Sync.RequestTimeout, logger),
	)
	syncService := services.NewSyncService(channelRepo, catalogRepo, locationRepo, atpService, drivers, cfg.Sync.PushInterval, cfg.Sync.RequestTimeout, cfg.Sync.ExternalDefaultLocationID, logger)

	// Ledger changes fan out to reactive channel sync and the event bus.
	notifiers := []services.InventoryNotifier{syncService}
	if publisher != nil {
		notifiers = append(notifiers, eventNotifier{publisher: publisher})
	}
	ledgerService.SetNotifier(fanoutNotifier{targets: notifiers})

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, redisClient, publisher)
	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	locationHandler := handlers.NewLocationHandler(locationService)
	inventoryHandler := handlers.NewInventoryHandler(ledgerService, atpService)
	purchasingHandler := handlers.NewPurchasingHandler(purchasingService)
	shipmentHandler := handlers.NewShipmentHandler(shipmentService)
	receivingHandler := handlers.NewReceivingHandler(receivingService)
	orderHandler := handlers.NewOrderHandler(orderService)
	pickingHandler := handlers.NewPickingHandler(pickingService)
	replenHandler := handlers.NewReplenHandler(replenService)
	channelHandler := handlers.NewChannelHandler(syncService)

	// Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.SetupCORS())

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.TenantMiddleware())

	// Login needs tenant context but no session.
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	if cfg.App.JWTSecret != "" {
		protected.Use(middleware.AuthMiddleware(authService))
	} else {
		protected.Use(middleware.DevelopmentAuthMiddleware())
	}

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/auth/me", authHandler.Me)

	users := protected.Group("/users")
	{
		users.POST("", middleware.RequirePermission("users", "manage"), authHandler.CreateUser)
		users.GET("", middleware.RequirePermission("users", "read"), authHandler.ListUsers)
		users.GET("/:id", middleware.RequirePermission("users", "read"), authHandler.GetUser)
		users.PATCH("/:id", middleware.RequirePermission("users", "manage"), authHandler.UpdateUser)
	}
	roles := protected.Group("/roles")
	{
		roles.POST("", middleware.RequirePermission("users", "manage"), authHandler.CreateRole)
		roles.GET("", middleware.RequirePermission("users", "read"), authHandler.ListRoles)
		roles.PUT("/:id/permissions", middleware.RequirePermission("users", "manage"), authHandler.UpdateRolePermissions)
	}
	protected.GET("/permissions", authHandler.ListPermissions)

	products := protected.Group("/products")
	{
		products.POST("", middleware.RequirePermission("catalog", "write"), catalogHandler.CreateProduct)
		products.GET("", middleware.RequirePermission("catalog", "read"), catalogHandler.ListProducts)
		products.GET("/:id", middleware.RequirePermission("catalog", "read"), catalogHandler.GetProduct)
		products.PATCH("/:id", middleware.RequirePermission("catalog", "write"), catalogHandler.UpdateProduct)
		products.POST("/:id/variants", middleware.RequirePermission("catalog", "write"), catalogHandler.AddVariant)
		products.GET("/:id/atp", middleware.RequirePermission("inventory", "read"), inventoryHandler.ProductATP)
		products.GET("/import/template", middleware.RequirePermission("catalog", "read"), catalogHandler.ImportTemplate)
		products.POST("/import", middleware.RequirePermission("catalog", "write"), catalogHandler.ImportProducts)
	}
	variants := protected.Group("/variants")
	{
		variants.DELETE("/:id", middleware.RequirePermission("catalog", "write"), catalogHandler.DeleteVariant)
		variants.GET("/:id/balances", middleware.RequirePermission("inventory", "read"), inventoryHandler.VariantBalances)
		variants.GET("/:id/atp", middleware.RequirePermission("inventory", "read"), inventoryHandler.VariantATP)
	}
	skus := protected.Group("/skus")
	{
		skus.GET("/search", middleware.RequirePermission("catalog", "read"), catalogHandler.SearchSKUs)
		skus.GET("/:code", middleware.RequirePermission("catalog", "read"), catalogHandler.ResolveSKU)
	}

	warehouses := protected.Group("/warehouses")
	{
		warehouses.POST("", middleware.RequirePermission("locations", "write"), locationHandler.CreateWarehouse)
		warehouses.GET("", middleware.RequirePermission("locations", "read"), locationHandler.ListWarehouses)
		warehouses.GET("/:id", middleware.RequirePermission("locations", "read"), locationHandler.GetWarehouse)
		warehouses.PATCH("/:id", middleware.RequirePermission("locations", "write"), locationHandler.UpdateWarehouse)
		warehouses.GET("/:id/locations", middleware.RequirePermission("locations", "read"), locationHandler.ListLocations)
		warehouses.GET("/import/template", middleware.RequirePermission("locations", "read"), locationHandler.ImportTemplate)
		warehouses.POST("/import", middleware.RequirePermission("locations", "write"), locationHandler.ImportWarehouses)
	}
	locations := protected.Group("/locations")
	{
		locations.POST("", middleware.RequirePermission("locations", "write"), locationHandler.CreateLocation)
		locations.DELETE("/:id", middleware.RequirePermission("locations", "write"), locationHandler.DeleteLocation)
		locations.GET("/:id/balances", middleware.RequirePermission("inventory", "read"), inventoryHandler.LocationBalances)
	}

	inventory := protected.Group("/inventory")
	{
		inventory.POST("/receive", middleware.RequirePermission("inventory", "adjust"), inventoryHandler.Receive)
		inventory.POST("/adjust", middleware.RequirePermission("inventory", "adjust"), inventoryHandler.Adjust)
		inventory.POST("/transfer", middleware.RequirePermission("inventory", "adjust"), inventoryHandler.Transfer)
		inventory.POST("/transfer/undo/:token", middleware.RequirePermission("inventory", "adjust"), inventoryHandler.UndoTransfer)
		inventory.GET("/transactions", middleware.RequirePermission("inventory", "read"), inventoryHandler.History)
	}

	vendors := protected.Group("/vendors")
	{
		vendors.POST("", middleware.RequirePermission("purchasing", "write"), purchasingHandler.CreateVendor)
		vendors.GET("", middleware.RequirePermission("purchasing", "read"), purchasingHandler.ListVendors)
		vendors.GET("/:id", middleware.RequirePermission("purchasing", "read"), purchasingHandler.GetVendor)
		vendors.PUT("/:id/products", middleware.RequirePermission("purchasing", "write"), purchasingHandler.SetVendorProduct)
	}
	purchaseOrders := protected.Group("/purchase-orders")
	{
		purchaseOrders.POST("", middleware.RequirePermission("purchasing", "write"), purchasingHandler.CreatePO)
		purchaseOrders.GET("", middleware.RequirePermission("purchasing", "read"), purchasingHandler.ListPOs)
		purchaseOrders.GET("/:id", middleware.RequirePermission("purchasing", "read"), purchasingHandler.GetPO)
		purchaseOrders.PUT("/:id/lines", middleware.RequirePermission("purchasing", "write"), purchasingHandler.UpdateDraftLines)
		purchaseOrders.POST("/:id/submit", middleware.RequirePermission("purchasing", "write"), purchasingHandler.Submit)
		purchaseOrders.PUT("/:id/status", middleware.RequirePermission("purchasing", "approve"), purchasingHandler.Transition)
		purchaseOrders.POST("/:id/revisions", middleware.RequirePermission("purchasing", "write"), purchasingHandler.ReviseLines)
		purchaseOrders.GET("/:id/revisions", middleware.RequirePermission("purchasing", "read"), purchasingHandler.ListRevisions)
	}
	protected.POST("/reorder", middleware.RequirePermission("purchasing", "write"), purchasingHandler.Reorder)
	protected.POST("/on-order", middleware.RequirePermission("purchasing", "read"), purchasingHandler.OnOrder)

	shipments := protected.Group("/shipments")
	{
		shipments.POST("", middleware.RequirePermission("shipments", "write"), shipmentHandler.Create)
		shipments.GET("", middleware.RequirePermission("shipments", "read"), shipmentHandler.List)
		shipments.GET("/:id", middleware.RequirePermission("shipments", "read"), shipmentHandler.Get)
		shipments.POST("/:id/lines", middleware.RequirePermission("shipments", "write"), shipmentHandler.AddLine)
		shipments.DELETE("/:id/lines/:lineId", middleware.RequirePermission("shipments", "write"), shipmentHandler.RemoveLine)
		shipments.POST("/:id/costs", middleware.RequirePermission("shipments", "write"), shipmentHandler.AddCost)
		shipments.PATCH("/:id/costs/:costId", middleware.RequirePermission("shipments", "write"), shipmentHandler.UpdateCost)
		shipments.PUT("/:id/status", middleware.RequirePermission("shipments", "write"), shipmentHandler.Transition)
		shipments.POST("/:id/allocate", middleware.RequirePermission("shipments", "write"), shipmentHandler.Allocate)
		shipments.GET("/:id/allocations", middleware.RequirePermission("shipments", "read"), shipmentHandler.ListAllocations)
		shipments.GET("/:id/snapshots", middleware.RequirePermission("shipments", "read"), shipmentHandler.ListSnapshots)
	}

	receiving := protected.Group("/receiving-orders")
	{
		receiving.POST("", middleware.RequirePermission("receiving", "write"), receivingHandler.Create)
		receiving.GET("", middleware.RequirePermission("receiving", "read"), receivingHandler.List)
		receiving.GET("/:id", middleware.RequirePermission("receiving", "read"), receivingHandler.Get)
		receiving.PUT("/:id/status", middleware.RequirePermission("receiving", "write"), receivingHandler.Transition)
		receiving.POST("/:id/close", middleware.RequirePermission("receiving", "write"), receivingHandler.Close)
		receiving.POST("/:id/lines", middleware.RequirePermission("receiving", "write"), receivingHandler.AddLine)
		receiving.PATCH("/:id/lines/:lineId", middleware.RequirePermission("receiving", "write"), receivingHandler.UpdateLine)
		receiving.DELETE("/:id/lines/:lineId", middleware.RequirePermission("receiving", "write"), receivingHandler.DeleteLine)
		receiving.GET("/import/template", middleware.RequirePermission("receiving", "read"), receivingHandler.ImportTemplate)
		receiving.POST("/:id/import", middleware.RequirePermission("receiving", "write"), receivingHandler.ImportLines)
	}

	orders := protected.Group("/orders")
	{
		orders.POST("", middleware.RequirePermission("orders", "write"), orderHandler.Create)
		orders.GET("", middleware.RequirePermission("orders", "read"), orderHandler.List)
		orders.GET("/:id", middleware.RequirePermission("orders", "read"), orderHandler.Get)
		orders.PUT("/:id/status", middleware.RequirePermission("orders", "write"), orderHandler.Transition)
		orders.POST("/:id/cancel", middleware.RequirePermission("orders", "write"), orderHandler.Cancel)
		orders.POST("/:id/hold", middleware.RequirePermission("orders", "write"), orderHandler.Hold)
		orders.POST("/combine", middleware.RequirePermission("orders", "write"), orderHandler.Combine)
	}
	groups := protected.Group("/order-groups")
	{
		groups.GET("/:groupId", middleware.RequirePermission("orders", "read"), orderHandler.GroupMembers)
		groups.POST("/:groupId/uncombine", middleware.RequirePermission("orders", "write"), orderHandler.Uncombine)
	}
	protected.GET("/oms/settings", middleware.RequirePermission("orders", "read"), orderHandler.GetSettings)
	protected.PUT("/oms/settings", middleware.RequirePermission("orders", "write"), orderHandler.UpdateSettings)

	waves := protected.Group("/waves")
	{
		waves.POST("", middleware.RequirePermission("picking", "write"), pickingHandler.GenerateWave)
		waves.GET("", middleware.RequirePermission("picking", "read"), pickingHandler.List)
		waves.GET("/:id", middleware.RequirePermission("picking", "read"), pickingHandler.Get)
		waves.POST("/:id/tasks/:taskId/confirm", middleware.RequirePermission("picking", "write"), pickingHandler.ConfirmPick)
		waves.POST("/:id/cancel", middleware.RequirePermission("picking", "write"), pickingHandler.CancelWave)
	}
	protected.POST("/pick-tasks/:taskId/assign", middleware.RequirePermission("picking", "write"), pickingHandler.AssignTask)

	replenRules := protected.Group("/replen/rules")
	{
		replenRules.POST("", middleware.RequirePermission("replen", "write"), replenHandler.CreateRule)
		replenRules.GET("", middleware.RequirePermission("replen", "read"), replenHandler.ListRules)
		replenRules.GET("/import/template", middleware.RequirePermission("replen", "read"), replenHandler.ImportRulesTemplate)
		replenRules.POST("/import", middleware.RequirePermission("replen", "write"), replenHandler.ImportRules)
		replenRules.GET("/:id", middleware.RequirePermission("replen", "read"), replenHandler.GetRule)
		replenRules.DELETE("/:id", middleware.RequirePermission("replen", "write"), replenHandler.DeleteRule)
	}
	replenTasks := protected.Group("/replen/tasks")
	{
		replenTasks.GET("", middleware.RequirePermission("replen", "read"), replenHandler.ListTasks)
		replenTasks.GET("/:id", middleware.RequirePermission("replen", "read"), replenHandler.GetTask)
		replenTasks.PATCH("/:id", middleware.RequirePermission("replen", "write"), replenHandler.UpdateTask)
		replenTasks.POST("/:id/complete", middleware.RequirePermission("replen", "write"), replenHandler.CompleteTask)
	}
	protected.POST("/replen/sweep", middleware.RequirePermission("replen", "write"), replenHandler.Sweep)

	channels := protected.Group("/channels")
	{
		channels.POST("", middleware.RequirePermission("channels", "write"), channelHandler.Create)
		channels.GET("", middleware.RequirePermission("channels", "read"), channelHandler.List)
		channels.GET("/:id", middleware.RequirePermission("channels", "read"), channelHandler.Get)
		channels.PATCH("/:id", middleware.RequirePermission("channels", "write"), channelHandler.Update)
		channels.POST("/:id/feeds", middleware.RequirePermission("channels", "write"), channelHandler.AddFeed)
		channels.GET("/:id/feeds", middleware.RequirePermission("channels", "read"), channelHandler.ListFeeds)
		channels.POST("/:id/sync", middleware.RequirePermission("channels", "write"), channelHandler.Sync)
	}

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("WMS service starting on %s", cfg.GetServerAddress())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down wms-service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("WMS service stopped")
}
