package config

import (
	"os"
	"time"

	"github.com/Hakheem/TibaPoint-sub001/internal/api/handlers"
	"github.com/Hakheem/TibaPoint-sub001/internal/api/routes"
	"github.com/Hakheem/TibaPoint-sub001/internal/middleware"
	"github.com/Hakheem/TibaPoint-sub001/internal/utils"
	"github.com/Hakheem/TibaPoint-sub001/internal/utils/cache"
	"github.com/Hakheem/TibaPoint-sub001/pkg/booking"
	"github.com/Hakheem/TibaPoint-sub001/pkg/jwt"
	"github.com/Hakheem/TibaPoint-sub001/pkg/ledger"
	"github.com/Hakheem/TibaPoint-sub001/pkg/notification"
	"github.com/Hakheem/TibaPoint-sub001/pkg/payment"
	"github.com/Hakheem/TibaPoint-sub001/pkg/plan"
	"github.com/Hakheem/TibaPoint-sub001/pkg/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Africa/Nairobi",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	redisClient := cache.NewRedisClient()
	referenceStore := cache.NewReferenceStore(redisClient)
	catalog, err := utils.GetPlanCatalog()
	if err != nil {
		return nil, err
	}
	emailEnabled := utils.GetConfig("EMAIL_ENABLED") == "true"

	// Repository
	userRepository := user.NewUserRepository(db)
	ledgerRepository := ledger.NewLedgerRepository(db)
	planRepository := plan.NewPlanRepository(db)
	bookingRepository := booking.NewBookingRepository(db)
	notificationRepository := notification.NewNotificationRepository(db)

	// Service
	jwtService := jwt.NewJWTService()
	notificationService := notification.NewNotificationService(notificationRepository, emailEnabled)
	ledgerService := ledger.NewLedgerService(db, ledgerRepository, notificationService)
	paymentService := payment.NewPaymentService()
	planService := plan.NewPlanService(
		db,
		catalog,
		planRepository,
		ledgerService,
		paymentService,
		notificationService,
		referenceStore,
	)
	bookingService := booking.NewBookingService(db, bookingRepository, ledgerService, notificationService)
	userService := user.NewUserService(db, userRepository, ledgerService, jwtService)

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	creditHandler := handlers.NewCreditHandler(ledgerService)
	planHandler := handlers.NewPlanHandler(planService, validator)
	bookingHandler := handlers.NewBookingHandler(bookingService, validator)
	paymentHandler := handlers.NewPaymentHandler(paymentService, planService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// routes
	routesConfig := routes.Config{
		App:                 app,
		UserHandler:         userHandler,
		CreditHandler:       creditHandler,
		PlanHandler:         planHandler,
		BookingHandler:      bookingHandler,
		PaymentHandler:      paymentHandler,
		NotificationHandler: notificationHandler,
		Middleware:          middlewares,
		JWTService:          jwtService,
	}
	routesConfig.Setup()
	return app, nil
}
