package main

import (
	"context"
	"log"
	"time"

	"cakeshop-backend/internal/core/cache"
	"cakeshop-backend/internal/core/config"
	"cakeshop-backend/internal/core/database"
	"cakeshop-backend/internal/core/logger"
	"cakeshop-backend/internal/core/server"
	accountadapter "cakeshop-backend/internal/features/accounts/adapters"
	cakeadapter "cakeshop-backend/internal/features/cakes/adapters"
	cakehandler "cakeshop-backend/internal/features/cakes/handler"
	cakeservice "cakeshop-backend/internal/features/cakes/service"
	notifadapter "cakeshop-backend/internal/features/notifications/adapters"
	notifhandler "cakeshop-backend/internal/features/notifications/handler"
	notifports "cakeshop-backend/internal/features/notifications/ports"
	notifservice "cakeshop-backend/internal/features/notifications/service"
	orderadapter "cakeshop-backend/internal/features/orders/adapters"
	orderhandler "cakeshop-backend/internal/features/orders/handler"
	orderservice "cakeshop-backend/internal/features/orders/service"
	sitemaphandler "cakeshop-backend/internal/features/sitemap/handler"

	"go.uber.org/zap"
)

// @title Cakeshop API
// @version 1.0
// @description Backend for the eggless cake storefront: catalog, orders, payments and notifications.
// @contact.name API Support
// @contact.email support@egglesscakes.in
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		l.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()
	l.Info("Database connection verified")

	redisCache, err := cache.NewRedisAdapter(cfg.Redis.URL)
	if err != nil {
		l.Fatal("Redis connection failed", zap.Error(err))
	}
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		l.Fatal("Redis ping failed", zap.Error(err))
	}
	l.Info("Redis connection verified")

	// Realtime transport shares the Redis instance with the cache. When
	// disabled, the no-op transport keeps the fan-out path intact.
	var transport notifports.RealtimeTransport = notifadapter.NewNoopTransport()
	if cfg.Redis.RealtimeEnabled {
		rt, err := notifadapter.NewRedisTransport(cfg.Redis.URL)
		if err != nil {
			l.Fatal("Realtime transport init failed", zap.Error(err))
		}
		defer rt.Close()
		transport = rt
	}

	var events notifports.EventPublisher
	if cfg.RabbitMQ.Enabled {
		publisher, err := notifadapter.NewRabbitMQPublisher(cfg.RabbitMQ)
		if err != nil {
			l.Fatal("RabbitMQ connection failed", zap.Error(err))
		}
		defer publisher.Close()
		events = publisher
		l.Info("RabbitMQ connection verified")
	}

	directory := accountadapter.NewPostgresDirectory(db)
	pushSender := notifadapter.NewHTTPPushAdapter(cfg.Push)
	notifier := notifservice.NewNotifierService(
		transport,
		pushSender,
		directory,
		directory,
		events,
		time.Duration(cfg.Push.TokenTimeoutSeconds)*time.Second,
	)

	orderRepo := orderadapter.NewPostgresOrderRepository(db)
	orderSvc := orderservice.NewOrderService(orderRepo, notifier)
	orderHdl := orderhandler.NewOrderHandler(orderSvc)

	cakeRepo := cakeadapter.NewCachedCakeRepository(
		cakeadapter.NewPostgresCakeRepository(db), redisCache)
	cakeSvc := cakeservice.NewCakeService(cakeRepo)
	cakeHdl := cakehandler.NewCakeHandler(cakeSvc)

	notifHdl := notifhandler.NewNotificationHandler(notifier)
	sitemapHdl := sitemaphandler.NewSitemapHandler(cakeRepo, cfg.Sitemap.BaseURL)

	srv := server.New(cfg)

	srv.App.Post("/orders", orderHdl.PlaceOrder)
	srv.App.Get("/orders", orderHdl.ListOrders)
	srv.App.Get("/orders/:orderId", orderHdl.GetOrder)
	srv.App.Patch("/orders/:orderId/status", orderHdl.UpdateStatus)
	srv.App.Post("/orders/:orderId/payment/verify", orderHdl.VerifyPayment)
	srv.App.Patch("/orders/:orderId/assign", orderHdl.Assign)

	srv.App.Get("/notifications/sessions", notifHdl.GetSessions)

	srv.App.Get("/cakes", cakeHdl.ListCakes)
	srv.App.Post("/cakes", cakeHdl.CreateCake)
	srv.App.Post("/cakes/many", cakeHdl.CreateCakes)
	srv.App.Get("/cakes/slug/:slug", cakeHdl.GetCakeBySlug)
	srv.App.Get("/cakes/flavor/:flavor", cakeHdl.GetCakesByFlavor)
	srv.App.Get("/cakes/:id", cakeHdl.GetCake)
	srv.App.Put("/cakes/:id", cakeHdl.UpdateCake)
	srv.App.Delete("/cakes/:id", cakeHdl.DeleteCake)
	srv.App.Post("/cakes/:slug/reviews", cakeHdl.AddReview)

	srv.App.Get("/sitemap.xml", sitemapHdl.GetSitemap)

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
