package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/rentdesk/internal/config"
	"github.com/example/rentdesk/internal/handlers"
	"github.com/example/rentdesk/internal/middleware"
	"github.com/example/rentdesk/internal/services"
	"github.com/example/rentdesk/internal/utils"
)

// Services holds the domain services behind the HTTP surface.
type Services struct {
	Sessions   *utils.SessionIssuer
	Accounts   *services.AccountStore
	OTP        *services.OTPService
	Quota      *services.QuotaService
	Orders     *services.OrderService
	Properties *services.PropertyService
}

// NewServices builds the production service graph.
func NewServices(db *gorm.DB, cfg *config.Config, log *zap.Logger) *Services {
	gateway := services.NewRazorpayGateway(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.GatewayTimeout)

	var paymentNotifier services.PaymentNotifier
	telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	if telegram.Enabled() {
		paymentNotifier = telegram
	} else {
		log.Info("telegram notifications disabled")
	}

	var otpNotifier services.OTPNotifier = services.NewLogNotifier(log, !cfg.IsProduction())
	smsCfg := services.SMSConfig{BaseURL: cfg.SMSBaseURL, Username: cfg.SMSUsername, Password: cfg.SMSPassword}
	if smsCfg.Enabled() {
		otpNotifier = services.NewSMSNotifier(smsCfg, otpNotifier)
	}

	return NewServicesWith(db, cfg, log, gateway, otpNotifier, paymentNotifier)
}

// NewServicesWith builds the service graph around the given collaborators.
func NewServicesWith(
	db *gorm.DB,
	cfg *config.Config,
	log *zap.Logger,
	gateway services.PaymentGateway,
	otpNotifier services.OTPNotifier,
	paymentNotifier services.PaymentNotifier,
	otpOpts ...services.OTPOption,
) *Services {
	sessions := utils.NewSessionIssuer(cfg.JWTSecret, cfg.TokenExpires)
	accounts := services.NewAccountStore(db)
	quota := services.NewQuotaService(db, log)

	return &Services{
		Sessions:   sessions,
		Accounts:   accounts,
		OTP:        services.NewOTPService(accounts, sessions, otpNotifier, log, otpOpts...),
		Quota:      quota,
		Orders:     services.NewOrderService(db, gateway, paymentNotifier, log, services.WithMinimumAmount(cfg.MinUnlockAmount)),
		Properties: services.NewPropertyService(db, quota, log),
	}
}

// NewApp creates the fiber application with the shared error handler and
// global middleware.
func NewApp(log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Rentdesk Backend",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, svc *Services, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(svc.Accounts, svc.OTP)
	quotaHandler := handlers.NewQuotaHandler(svc.Quota)
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	propertyHandler := handlers.NewPropertyHandler(svc.Properties)
	adminHandler := handlers.NewAdminHandler(svc.Accounts, svc.Orders)

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})

	// Auth routes
	api.Post("/auth/register", authHandler.Register)

	otp := api.Group("/otp")
	otp.Post("/challenge", otpRateLimit(cfg), authHandler.RequestOTP)
	otp.Post("/verify", authHandler.VerifyOTP)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(svc.Sessions, svc.Accounts))

	protected.Get("/quota", quotaHandler.GetQuota)

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Post("/orders/verify", orderHandler.VerifyPayment)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Delete("/orders/:id", orderHandler.DeleteOrder)

	protected.Post("/properties", propertyHandler.CreateProperty)
	protected.Get("/properties", propertyHandler.ListProperties)
	protected.Delete("/properties/:id", propertyHandler.DeleteProperty)

	// Admin routes
	admin := protected.Group("/admin", middleware.RequireAdmin())
	admin.Get("/accounts", adminHandler.ListAccounts)
	admin.Put("/accounts/:id/block", adminHandler.BlockAccount)
	admin.Put("/accounts/:id/unblock", adminHandler.UnblockAccount)
	admin.Get("/orders", adminHandler.ListAllOrders)
}

func otpRateLimit(cfg *config.Config) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.OTPRateLimit,
		Expiration: cfg.OTPRateWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many otp requests, try again later")
		},
	})
}
