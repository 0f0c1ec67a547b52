package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dealer-transfers-api/internal/config"
	"github.com/dealer-transfers-api/internal/infrastructure/db"
	"github.com/dealer-transfers-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/dealer-transfers-api/internal/infrastructure/jwt"
	"github.com/dealer-transfers-api/internal/infrastructure/ses"
	"github.com/dealer-transfers-api/internal/infrastructure/smtp"
	"github.com/dealer-transfers-api/internal/infrastructure/sns"
	"github.com/dealer-transfers-api/internal/notify"
	"github.com/dealer-transfers-api/internal/pkg/logger"
	"github.com/dealer-transfers-api/internal/pkg/metrics"
	transporthttp "github.com/dealer-transfers-api/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: cfg.App.Name,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "database connection failed", err)
		os.Exit(1)
	}
	defer dbClient.Close()
	if cfg.DB.AutoMigrate {
		if err := dbClient.AutoMigrate(ctx); err != nil {
			logg.Error(ctx, "database migration failed", err)
			os.Exit(1)
		}
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(ctx, dynamo.ClientConfig{
		Region:      cfg.AWS.Region,
		EndpointURL: cfg.AWS.EndpointURL,
		AccessKeyID: cfg.AWS.AccessKeyID,
		SecretKey:   cfg.AWS.SecretKey,
	})
	if err != nil {
		logg.Error(ctx, "dynamodb client failed", err)
		os.Exit(1)
	}
	dynamo.Bootstrap(ctx, dynamoClient, dynamo.Tables{
		Templates:  cfg.Dynamo.Templates,
		Rules:      cfg.Dynamo.Rules,
		Activities: cfg.Dynamo.Activities,
	}, logg)

	// JWT verification (optional: protected routes answer 503 without it).
	var verifier *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		verifier = p
	} else {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "JWT provider not available")
	}

	emailSender, err := newEmailSender(ctx, cfg)
	if err != nil {
		logg.Error(ctx, "email sender failed", err)
		os.Exit(1)
	}
	var smsSender notify.SMSSender
	if cfg.SNS.Enabled {
		if sender, err := sns.NewSender(ctx, cfg); err == nil {
			smsSender = sender
		} else {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "SNS sender not available, SMS disabled")
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	conn := dbClient.DB()
	userRepo := db.NewUserRepo(conn)
	templateRepo := dynamo.NewTemplateRepo(dynamoClient, cfg.Dynamo.Templates)
	ruleRepo := dynamo.NewRuleRepo(dynamoClient, cfg.Dynamo.Rules)
	activityRepo := dynamo.NewActivityRepo(dynamoClient, cfg.Dynamo.Activities)

	resolver := notify.NewResolver(userRepo)
	dispatcher := notify.NewDispatcher(notify.DispatcherDeps{
		Rules:      ruleRepo,
		Templates:  templateRepo,
		Activities: activityRepo,
		Resolver:   resolver,
		Email:      emailSender,
		SMS:        smsSender,
		Logger:     logg,
		Metrics:    metrics.NewDispatchMetrics(reg),
		Config: notify.DispatcherConfig{
			SendTimeout:      cfg.Notify.SendTimeout,
			MaxParallelRules: cfg.Notify.MaxParallelRules,
		},
	})
	notifier := notify.NewNotifier(notify.NewContextBuilder(cfg.App.Name, cfg.App.BaseURL), dispatcher)

	deps := &transporthttp.Deps{
		DB:           dbClient,
		UserRepo:     userRepo,
		LocationRepo: db.NewLocationRepo(conn),
		VehicleRepo:  db.NewVehicleRepo(conn),
		TransferRepo: db.NewTransferRepo(conn),
		CommentRepo:  db.NewCommentRepo(conn),
		TemplateRepo: templateRepo,
		RuleRepo:     ruleRepo,
		ActivityRepo: activityRepo,
		Notifier:     notifier,
		Resolver:     resolver,
		Logger:       logg,
		Gatherer:     reg,
	}
	if verifier != nil {
		deps.Verifier = verifier
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logg.Info(logg.WithFields(ctx, map[string]any{"port": cfg.App.Port, "env": cfg.App.Env}), "server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "server error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info(ctx, "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "forced shutdown", err)
		return
	}
	logg.Info(ctx, "server stopped")
}

func newEmailSender(ctx context.Context, cfg *config.Config) (notify.EmailSender, error) {
	switch strings.ToLower(cfg.Email.Provider) {
	case config.EmailProviderSES:
		return ses.NewSender(ctx, cfg)
	default:
		return smtp.NewMailer(cfg), nil
	}
}
