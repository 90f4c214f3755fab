package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"partyflow/config"
	"partyflow/internal/dialogue"
	"partyflow/internal/handlers"
	"partyflow/internal/ledger"
	"partyflow/internal/notify"
	"partyflow/internal/promo"
	"partyflow/internal/services"
	"partyflow/internal/services/payment"
	"partyflow/models"
	"partyflow/monitoring"
	"partyflow/security"
	"partyflow/utils"

	_ "partyflow/migrations"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub ops feed
	var pn *pubnub.PubNub
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		pn = pubnub.NewPubNub(pnConfig)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider, err := payment.NewProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer provider.Close(ctx)

	notifier := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramAPIBase)

	// Initialize services
	store := ledger.NewPBStore(app)
	ledgerService := ledger.NewService(store)
	checkoutService := services.NewCheckoutService(ledgerService, provider, cfg)
	fulfillmentService := services.NewFulfillmentService(ledgerService, provider, notifier, pn, cfg.OpsChannel)
	broadcastService := services.NewBroadcastService(ledgerService, notifier)
	promoService := promo.NewService(promo.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel))

	sessionStore := dialogue.NewRedisStore(redisClient, cfg.SessionTTL)
	machine := dialogue.NewMachine(
		sessionStore,
		func(ctx context.Context, eventID string, buyer models.Purchaser, quantity int) (string, error) {
			return checkoutService.Begin(ctx, services.BeginCheckout{
				EventID:  eventID,
				ChatID:   buyer.ChatID,
				UserName: buyer.Name,
				Phone:    buyer.Phone,
				Quantity: quantity,
			})
		},
		cfg.DefaultPhoneRegion,
		cfg.MaxQuantity,
		cfg.PhoneMaxRetries,
	)

	// Initialize handlers
	botHandler := handlers.NewBotHandler(machine, ledgerService, notifier, cfg.MaxQuantity)
	eventHandler := handlers.NewEventHandler(ledgerService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, cfg.DefaultPhoneRegion)
	paymentHandler := handlers.NewPaymentHandler(fulfillmentService, provider, cfg.Environment)
	adminHandler := handlers.NewAdminHandler(ledgerService, store, broadcastService, promoService, redisClient, cfg)

	limiter := security.NewRateLimiter(redisClient, 30, time.Minute)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Interactive event management CLI
	registerManageCommand(app, ledgerService)

	// Day-of-event reminders
	app.Cron().MustAdd("daily-reminders", cfg.ReminderCron, func() {
		if err := broadcastService.SendDailyReminders(context.Background()); err != nil {
			slog.Error("daily reminders failed", "error", err)
		}
	})

	// Start background tasks
	monitor := monitoring.NewMonitor(redisClient)
	go monitor.Start(ctx)

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Telegram webhook
		e.Router.POST("/bot/webhook", botHandler.HandleWebhook).BindFunc(limiter.Limit("webhook"))

		// Public API
		e.Router.GET("/events", eventHandler.ListEvents)
		e.Router.GET("/api/events", eventHandler.ListEvents)
		e.Router.GET("/api/tickets/{userId}", eventHandler.UserTickets)

		// Checkout flow
		e.Router.POST("/create_checkout_session", checkoutHandler.CreateCheckoutSession).BindFunc(limiter.Limit("checkout"))
		e.Router.GET("/payment_success", paymentHandler.PaymentSuccess)
		e.Router.GET("/payment_cancel", paymentHandler.PaymentCancel)

		// Admin dashboard
		e.Router.POST("/api/login", adminHandler.Login).BindFunc(limiter.Limit("admin-login"))
		e.Router.POST("/api/admin/login", adminHandler.Login).BindFunc(limiter.Limit("admin-login"))
		e.Router.POST("/api/admin/logout", adminHandler.Logout)
		e.Router.GET("/api/admin/stats", adminHandler.GetStats)
		e.Router.GET("/api/admin/events", adminHandler.ListEvents)
		e.Router.POST("/api/events", adminHandler.CreateEvent)
		e.Router.POST("/api/admin/events", adminHandler.CreateEvent)
		e.Router.POST("/api/admin/events/{id}/archive", adminHandler.ArchiveEvent)
		e.Router.POST("/api/admin/events/{id}/restore", adminHandler.RestoreEvent)
		e.Router.GET("/api/admin/export/events.csv", adminHandler.ExportEventsCSV)
		e.Router.GET("/api/admin/export/guests.csv", adminHandler.ExportGuestsCSV)
		e.Router.POST("/api/admin/broadcast", adminHandler.Broadcast)
		e.Router.POST("/api/admin/promo", adminHandler.GeneratePromo)

		// Test endpoint for payment simulation
		if cfg.Environment == "development" {
			e.Router.POST("/api/test/simulate-payment", paymentHandler.SimulatePayment)
		}

		// Metrics
		if cfg.EnableMetrics {
			e.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	return app.Start()
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
