package http

import (
	"net/http"

	"github.com/dealer-transfers-api/internal/application/location"
	"github.com/dealer-transfers-api/internal/application/notification"
	"github.com/dealer-transfers-api/internal/application/transfer"
	"github.com/dealer-transfers-api/internal/application/user"
	"github.com/dealer-transfers-api/internal/application/vehicle"
	"github.com/dealer-transfers-api/internal/config"
	"github.com/dealer-transfers-api/internal/domain"
	"github.com/dealer-transfers-api/internal/pkg/logger"
	"github.com/dealer-transfers-api/internal/transport/http/handler"
	appmiddleware "github.com/dealer-transfers-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.Verifier != nil {
		authMw = appmiddleware.Auth(deps.Verifier)
	} else {
		authMw = func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"error":"authentication not configured"}`, http.StatusServiceUnavailable)
			})
		}
	}

	// 5 requests/second, burst of 20 for the provider webhook.
	webhookRL := appmiddleware.NewRateLimiter(rate.Limit(5), 20)

	locationSvc := location.NewService(location.ServiceDeps{LocationRepo: deps.LocationRepo})
	userSvc := user.NewService(user.ServiceDeps{UserRepo: deps.UserRepo, LocationRepo: deps.LocationRepo})
	vehicleSvc := vehicle.NewService(vehicle.ServiceDeps{
		VehicleRepo:  deps.VehicleRepo,
		CommentRepo:  deps.CommentRepo,
		LocationRepo: deps.LocationRepo,
		UserRepo:     deps.UserRepo,
		Notifier:     deps.Notifier,
		Logger:       log,
	})
	transferSvc := transfer.NewService(transfer.ServiceDeps{
		TransferRepo: deps.TransferRepo,
		VehicleRepo:  deps.VehicleRepo,
		LocationRepo: deps.LocationRepo,
		UserRepo:     deps.UserRepo,
		ActivityRepo: deps.CommentRepo,
		Notifier:     deps.Notifier,
		Logger:       log,
	})
	templateSvc := notification.NewTemplateService(notification.TemplateServiceDeps{
		TemplateRepo: deps.TemplateRepo,
		RuleRepo:     deps.RuleRepo,
	})
	ruleSvc := notification.NewRuleService(notification.RuleServiceDeps{
		RuleRepo:     deps.RuleRepo,
		TemplateRepo: deps.TemplateRepo,
		Resolver:     deps.Resolver,
	})
	activitySvc := notification.NewActivityService(notification.ActivityServiceDeps{ActivityRepo: deps.ActivityRepo})

	healthH := handler.NewHealthHandler(deps.DB)
	locationH := handler.NewLocationHandler(locationSvc)
	userH := handler.NewUserHandler(userSvc)
	vehicleH := handler.NewVehicleHandler(vehicleSvc)
	transferH := handler.NewTransferHandler(transferSvc)
	templateH := handler.NewTemplateHandler(templateSvc)
	ruleH := handler.NewRuleHandler(ruleSvc)
	activityH := handler.NewActivityHandler(activitySvc)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(webhookRL.Limit, appmiddleware.WebhookSecret(cfg.Webhooks.DeliverySecret)).
			Post("/webhooks/delivery", activityH.Delivery)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			// Any authenticated user
			r.Get("/me", userH.Me)
			r.Get("/users/{id}", userH.Get)
			r.Get("/locations", locationH.List)
			r.Get("/locations/{id}", locationH.Get)

			r.Get("/vehicles", vehicleH.List)
			r.Get("/vehicles/{id}", vehicleH.Get)
			r.Get("/vehicles/{id}/comments", vehicleH.ListComments)
			r.Post("/vehicles/{id}/comments", vehicleH.AddComment)
			r.Get("/vehicles/{id}/activity", vehicleH.ListActivity)

			r.Get("/transfers", transferH.List)
			r.Get("/transfers/{id}", transferH.Get)
			r.Post("/transfers", transferH.Create)
			r.Put("/transfers/{id}/status", transferH.UpdateStatus)

			// Inventory changes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin, domain.RoleManager))

				r.Post("/vehicles", vehicleH.Create)
				r.Put("/vehicles/{id}", vehicleH.Update)
				r.Put("/vehicles/{id}/status", vehicleH.UpdateStatus)
			})

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Post("/locations", locationH.Create)
				r.Put("/locations/{id}", locationH.Update)
				r.Delete("/locations/{id}", locationH.Deactivate)

				r.Get("/users", userH.List)
				r.Post("/users", userH.Create)
				r.Put("/users/{id}", userH.Update)
				r.Delete("/users/{id}", userH.Deactivate)

				r.Route("/notifications", func(r chi.Router) {
					r.Get("/templates", templateH.List)
					r.Post("/templates", templateH.Create)
					r.Get("/templates/{id}", templateH.Get)
					r.Put("/templates/{id}", templateH.Update)
					r.Delete("/templates/{id}", templateH.Delete)
					r.Post("/templates/{id}/preview", templateH.Preview)

					r.Get("/rules", ruleH.List)
					r.Post("/rules", ruleH.Create)
					r.Get("/rules/{id}", ruleH.Get)
					r.Put("/rules/{id}", ruleH.Update)
					r.Delete("/rules/{id}", ruleH.Delete)
					r.Put("/rules/{id}/active", ruleH.SetActive)
					r.Post("/rules/{id}/test", ruleH.Test)

					r.Get("/activities", activityH.List)
					r.Get("/activities/{id}", activityH.Get)
				})
			})
		})
	})

	return r
}
