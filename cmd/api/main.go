package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dealio-backend/internal/handler"
	"dealio-backend/internal/middleware"
	"dealio-backend/internal/model"
	"dealio-backend/internal/repository"
	"dealio-backend/internal/service"
	"dealio-backend/internal/ws"
	"dealio-backend/pkg/cache"
	"dealio-backend/pkg/database"
	"dealio-backend/pkg/logger"
	"dealio-backend/pkg/mpesa"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// .env is optional outside local dev
	_ = godotenv.Load()

	log := logger.New()
	defer log.Sync()

	// Database
	db := database.ConnectDB()
	if err := db.AutoMigrate(
		&model.Organization{}, &model.User{},
		&model.Product{}, &model.ProductVariant{},
		&model.Location{}, &model.StockRecord{}, &model.StockMovement{},
		&model.Sale{}, &model.SaleItem{},
		&model.Customer{}, &model.LoyaltyTransaction{},
		&model.Supplier{}, &model.Expense{}, &model.Attendance{},
		&model.MpesaPaymentRequest{},
		&model.OutboxEntry{}, &model.AuditLog{},
	); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	seedDefaultOrganization(db, log)

	// Cache: Redis when configured, in-process fallback otherwise
	var c cache.Cache
	if redisCache, err := cache.NewRedis(); err == nil {
		c = redisCache
	} else {
		log.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		c = cache.NewMemory()
	}

	// Realtime hub
	hub := ws.NewHub(log)
	go hub.Run()

	// Repositories
	userRepo := repository.NewUserRepo(db)
	orgRepo := repository.NewOrganizationRepo(db)
	productRepo := repository.NewProductRepo(db)
	locationRepo := repository.NewLocationRepo(db)
	stockRepo := repository.NewStockRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	expenseRepo := repository.NewExpenseRepo(db)
	attendanceRepo := repository.NewAttendanceRepo(db)
	mpesaRepo := repository.NewMpesaRepo(db)
	outboxRepo := repository.NewOutboxRepo(db)

	// Outbox worker drains persisted side effects
	dispatcher := service.NewOutboxDispatcher(outboxRepo, saleRepo, c, hub, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(ctx)

	// Services
	authService := service.NewAuthService(userRepo)
	teamService := service.NewTeamService(userRepo)
	productService := service.NewProductService(productRepo, locationRepo, c, log)
	locationService := service.NewLocationService(locationRepo, stockRepo)
	stockService := service.NewStockService(db, stockRepo, productRepo, supplierRepo, log)
	posService := service.NewPOSService(db, productRepo, stockRepo, saleRepo, customerRepo, orgRepo, outboxRepo, c, dispatcher, log)
	customerService := service.NewCustomerService(customerRepo)
	supplierService := service.NewSupplierService(supplierRepo)
	financeService := service.NewFinanceService(expenseRepo, saleRepo)
	attendanceService := service.NewAttendanceService(attendanceRepo, locationRepo)
	reportService := service.NewReportService(productRepo, stockRepo, saleRepo)
	mpesaService := service.NewMpesaService(mpesaRepo, posService, mpesa.NewClient(), hub, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	teamHandler := handler.NewTeamHandler(teamService)
	productHandler := handler.NewProductHandler(productService)
	locationHandler := handler.NewLocationHandler(locationService)
	stockHandler := handler.NewStockHandler(stockService)
	posHandler := handler.NewPOSHandler(posService)
	customerHandler := handler.NewCustomerHandler(customerService)
	supplierHandler := handler.NewSupplierHandler(supplierService)
	financeHandler := handler.NewFinanceHandler(financeService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService)
	reportHandler := handler.NewReportHandler(reportService)
	mpesaHandler := handler.NewMpesaHandler(mpesaService, log)

	app := fiber.New(fiber.Config{
		AppName: "Dealio Backend v1.0",
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/change-password", middleware.RequireAuth(userRepo), authHandler.ChangePassword)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)

	// Payment gateway webhook; authenticated by obscurity of the callback URL
	api.Post("/payments/mpesa/callback", mpesaHandler.Callback)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))
	manages := middleware.RequireRole(model.RoleOwner, model.RoleAdmin)

	// Team
	protected.Get("/team", teamHandler.List)
	protected.Post("/team", manages, teamHandler.Create)
	protected.Put("/team/:id", manages, teamHandler.Update)
	protected.Delete("/team/:id", manages, teamHandler.Remove)

	// Catalog
	protected.Get("/products", productHandler.GetAll)
	protected.Get("/products/:id", productHandler.GetByID)
	protected.Post("/products", manages, productHandler.Create)
	protected.Put("/products/:id", manages, productHandler.Update)
	protected.Delete("/products/:id", manages, productHandler.Delete)

	// Locations
	protected.Get("/locations", locationHandler.GetAll)
	protected.Get("/locations/:id", locationHandler.GetByID)
	protected.Post("/locations", manages, locationHandler.Create)
	protected.Put("/locations/:id", manages, locationHandler.Update)
	protected.Delete("/locations/:id", manages, locationHandler.Delete)

	// Stock
	protected.Get("/stock", stockHandler.List)
	protected.Get("/stock/low", stockHandler.ListLow)
	protected.Get("/stock/movements", stockHandler.ListMovements)
	protected.Post("/stock/adjust", manages, stockHandler.Adjust)
	protected.Post("/stock/transfer", manages, stockHandler.Transfer)
	protected.Post("/stock/purchase", manages, stockHandler.ReceivePurchase)
	protected.Put("/stock/reorder", manages, stockHandler.SetReorder)

	// POS
	protected.Get("/pos/products/:locationId", posHandler.ListProducts)
	protected.Post("/pos/checkout", posHandler.Checkout)
	protected.Get("/sales", posHandler.ListSales)
	protected.Get("/sales/:id", posHandler.GetSale)
	protected.Post("/sales/:id/void", manages, posHandler.VoidSale)
	protected.Post("/sales/:id/restore", manages, posHandler.RestoreSale)

	// Payments
	protected.Post("/payments/mpesa/initiate", mpesaHandler.InitiatePayment)

	// Customers
	protected.Get("/customers", customerHandler.GetAll)
	protected.Get("/customers/:id", customerHandler.GetByID)
	protected.Get("/customers/:id/loyalty", customerHandler.LoyaltyHistory)
	protected.Post("/customers", customerHandler.Create)
	protected.Put("/customers/:id", customerHandler.Update)
	protected.Delete("/customers/:id", manages, customerHandler.Delete)

	// Suppliers
	protected.Get("/suppliers", supplierHandler.GetAll)
	protected.Get("/suppliers/:id", supplierHandler.GetByID)
	protected.Post("/suppliers", manages, supplierHandler.Create)
	protected.Put("/suppliers/:id", manages, supplierHandler.Update)
	protected.Delete("/suppliers/:id", manages, supplierHandler.Delete)

	// Finance
	protected.Get("/expenses", manages, financeHandler.ListExpenses)
	protected.Post("/expenses", manages, financeHandler.CreateExpense)
	protected.Put("/expenses/:id", manages, financeHandler.UpdateExpense)
	protected.Delete("/expenses/:id", manages, financeHandler.DeleteExpense)
	protected.Get("/finance/summary", manages, financeHandler.Summary)

	// Attendance
	protected.Post("/attendance/clock-in", attendanceHandler.ClockIn)
	protected.Post("/attendance/clock-out", attendanceHandler.ClockOut)
	protected.Get("/attendance", attendanceHandler.ListAll)
	protected.Get("/attendance/:memberId", attendanceHandler.History)

	// Reports
	protected.Get("/dashboard/stats", reportHandler.Dashboard)
	protected.Get("/dashboard/sales", reportHandler.SalesChart)
	protected.Get("/dashboard/stock-movement", reportHandler.MovementChart)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		channel := conn.Query("channel")
		hub.Subscribe(conn, channel)
		defer func() { hub.Unregister <- conn }()

		for {
			// Keep alive loop
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}))

	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()
	if err := app.Shutdown(); err != nil {
		log.Fatal("forced shutdown", zap.Error(err))
	}
}

// seedDefaultOrganization creates a starter organization and owner account on
// a fresh database.
func seedDefaultOrganization(db *gorm.DB, log *zap.Logger) {
	userRepo := repository.NewUserRepo(db)
	orgRepo := repository.NewOrganizationRepo(db)

	if _, err := userRepo.FindByEmail("owner@example.com"); err == nil {
		return
	}

	org := &model.Organization{
		Name:             "Demo Store",
		Currency:         "KES",
		PointsPerUnit:    decimal.NewFromInt(100),
		PointRedeemValue: decimal.NewFromInt(1),
		TaxRate:          decimal.Zero,
	}
	org.CreatedBy = "system"
	org.UpdatedBy = "system"
	if err := orgRepo.Create(org); err != nil {
		log.Warn("failed to seed organization", zap.Error(err))
		return
	}

	owner := &model.User{
		OrganizationID: org.ID,
		Email:          "owner@example.com",
		FullName:       "Store Owner",
		Role:           model.RoleOwner,
		IsActive:       true,
	}
	owner.CreatedBy = "system"
	owner.UpdatedBy = "system"
	if err := owner.SetPassword("owner123"); err != nil {
		log.Warn("failed to hash owner password", zap.Error(err))
		return
	}
	if err := userRepo.Create(owner); err != nil {
		log.Warn("failed to seed owner user", zap.Error(err))
		return
	}
	log.Info("seeded owner account", zap.String("email", "owner@example.com"))
}
