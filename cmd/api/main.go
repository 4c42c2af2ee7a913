package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"frontdesk/internal/backend"
	"frontdesk/internal/cache"
	"frontdesk/internal/config"
	"frontdesk/internal/database"
	"frontdesk/internal/invoicepdf"
	"frontdesk/internal/middleware"
	"frontdesk/internal/modules/checkout"
	"frontdesk/internal/modules/housekeeping"
	jwtsvc "frontdesk/internal/pkg/jwt"
	"frontdesk/internal/pkg/response"
	"frontdesk/internal/realtime"
	"frontdesk/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.Database.URL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.MigrateCheckoutAttempts(db); err != nil {
		log.Fatalf("migrate checkout attempts: %v", err)
	}
	attemptRepo := repository.NewCheckoutAttemptRepository(db)

	appCache, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	if err != nil {
		log.Printf("level=warn msg=redis unavailable, caching disabled addr=%s err=%v", cfg.Redis.Addr, err)
	}
	defer appCache.Close()

	jwtOpts := []jwtsvc.Option{jwtsvc.WithLeeway(cfg.JWT.Leeway)}
	if cfg.JWT.Issuer != "" {
		jwtOpts = append(jwtOpts, jwtsvc.WithIssuer(cfg.JWT.Issuer))
	}
	j := jwtsvc.New(cfg.JWT.Secret, 24*time.Hour, jwtOpts...)
	hotel := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, log.Printf)
	hub := realtime.NewHub(log.Printf)
	defer hub.Close()

	checkoutService := checkout.NewService(hotel, attemptRepo, hub, appCache, checkout.Options{
		PollInterval:      cfg.Checkout.PollInterval,
		RepollDelay:       cfg.Checkout.AssignmentRepollDelay,
		PendingStaleAfter: cfg.Checkout.PendingStaleAfter,
		Bank: checkout.BankAccount{
			Bin:         cfg.Bank.Bin,
			Account:     cfg.Bank.Account,
			AccountName: cfg.Bank.AccountName,
			QRTemplate:  cfg.Bank.QRTemplate,
		},
	}, log.Printf)
	defer checkoutService.Close()
	checkoutHandler := checkout.NewHandler(checkoutService, invoicepdf.NewRenderer(cfg.HotelName))

	housekeepingService := housekeeping.NewService(hotel, appCache, log.Printf)
	housekeepingService.OnAssignmentSuccess(checkoutService.RepollAfter)
	housekeepingHandler := housekeeping.NewHandler(housekeepingService)

	wsHandler := realtime.NewHandler(hub, j, middleware.AllowedOrigins(cfg.Server.CorsAllowedOrigins), func(userID int64) interface{} {
		return checkoutService.View(userID)
	})

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), middleware.RequestID(), middleware.ErrorLogger(log.Printf), middleware.Metrics(), middleware.CORS(cfg.Server.CorsAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "realtimeConnections": hub.ConnectionCount()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	wsHandler.RegisterRoutes(r)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(j), middleware.FrontDeskStaff())
	{
		checkoutHandler.RegisterRoutes(v1)
		housekeepingHandler.RegisterRoutes(v1)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("level=info msg=front desk api listening addr=%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("level=info msg=shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("level=error msg=shutdown failed err=%v", err)
	}
}
