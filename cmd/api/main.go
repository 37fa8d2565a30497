package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taxsavings-backend/internal/admin"
	"taxsavings-backend/internal/app"
	"taxsavings-backend/internal/calculators"
	"taxsavings-backend/internal/config"
	"taxsavings-backend/internal/leads"
	"taxsavings-backend/internal/middleware"
	"taxsavings-backend/internal/notifications"
	"taxsavings-backend/internal/validation"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := app.NewLogger(cfg)
	ctx := context.Background()

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("lead store unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer stores.Close()

	cacheStore, closeCache, err := app.NewCache(ctx, cfg, logger)
	if err != nil {
		logger.Error("cache unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeCache()

	jwtManager := app.NewTokenManager(cfg)

	opts := leads.Options{
		Location:      cfg.Timezone,
		Cache:         cacheStore,
		CacheTTL:      cfg.CacheTTL(),
		SubmitTimeout: cfg.LeadSubmitTimeout,
		Logger:        logger,
	}
	mailer := notifications.NewBrevoClient(notifications.BrevoConfig{
		APIKey:      cfg.BrevoAPIKey,
		SenderEmail: cfg.BrevoSenderEmail,
		SenderName:  cfg.BrevoSenderName,
		NotifyEmail: cfg.NotifyEmail,
		NotifyName:  cfg.NotifyName,
		Sandbox:     cfg.BrevoSandbox,
	})
	if mailer == nil {
		logger.Info("brevo mailer disabled")
	} else {
		logger.Info("brevo mailer enabled", slog.String("sender", cfg.BrevoSenderEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
		opts.Notifier = mailer
	}

	val := validation.New()
	leadsService := leads.NewService(stores.Leads, opts)
	leadsHandler := leads.NewHandler(leadsService, val, logger)
	calcHandler := calculators.NewHandler(leadsService, val, cfg.Timezone, logger)
	adminHandler := admin.NewHandler(
		admin.NewAuthenticator(stores.Users, cfg.AdminUser, cfg.AdminPassword),
		jwtManager, val, cfg.CookieSecure, logger,
	)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigins))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	estimateLimiter := middleware.NewRateLimiter(cfg.RateLimitEstimates, cfg.RateLimitWindow())
	leadLimiter := middleware.NewRateLimiter(cfg.RateLimitLeads, cfg.RateLimitWindow())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/estimates", func(est chi.Router) {
			est.Get("/property-types", calcHandler.PropertyTypes)
			est.Get("/rd-credit/activities", calcHandler.Activities)

			est.Group(func(limited chi.Router) {
				limited.Use(estimateLimiter.Middleware)
				limited.Post("/cost-segregation", calcHandler.CostSegregation)
				limited.Post("/rd-credit", calcHandler.RDCredit)
				limited.Post("/cost-segregation/report", calcHandler.CostSegregationReport)
				limited.Post("/rd-credit/report", calcHandler.RDCreditReport)
			})
			est.Group(func(limited chi.Router) {
				limited.Use(leadLimiter.Middleware)
				limited.Post("/cost-segregation/leads", calcHandler.CostSegregationLead)
				limited.Post("/rd-credit/leads", calcHandler.RDCreditLead)
			})
		})

		api.Route("/admin", func(adm chi.Router) {
			adm.With(leadLimiter.Middleware).Post("/login", adminHandler.Login)
			adm.Post("/refresh", adminHandler.Refresh)
			adm.Post("/logout", adminHandler.Logout)

			adm.Group(func(protected chi.Router) {
				protected.Use(middleware.AdminAuth(cfg.AdminAPIKey, jwtManager))
				protected.Get("/leads", leadsHandler.AdminList)
				protected.Get("/leads/stats", leadsHandler.AdminStats)
				protected.Get("/leads/export", leadsHandler.AdminExport)
				protected.Get("/leads/{id}", leadsHandler.AdminGetByID)
				protected.Patch("/leads/{id}/status", leadsHandler.AdminUpdateStatus)
				protected.Patch("/leads/{id}/stage", leadsHandler.AdminUpdateStage)
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr), slog.String("lead_store", cfg.LeadStore))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	// Let queued lead emails finish before the stores close.
	if err := leadsService.Wait(shutdownCtx); err != nil {
		logger.Warn("pending notifications abandoned", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
}
