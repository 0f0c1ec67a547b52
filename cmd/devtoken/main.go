// Command devtoken mints a signed bearer token for local development.
// It needs JWT_PRIVATE_KEY_PATH; production deployments only hold the public key.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dealer-transfers-api/internal/config"
	"github.com/dealer-transfers-api/internal/domain"
	jwtinfra "github.com/dealer-transfers-api/internal/infrastructure/jwt"
	"github.com/dealer-transfers-api/internal/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "devtoken", Format: "console", Output: os.Stderr})

	_ = godotenv.Load()

	userID := flag.String("user", "", "user id (token subject)")
	email := flag.String("email", "", "user email")
	role := flag.String("role", domain.RoleAdmin, "role: admin|manager|sales")
	locationID := flag.String("location", "", "home location id")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "missing -user")
		os.Exit(2)
	}
	if !domain.ValidRole(*role) {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	var jwtCfg config.JWTConfig
	if err := envconfig.Process("", &jwtCfg); err != nil {
		logg.Error(ctx, "parsing jwt config", err)
		os.Exit(1)
	}
	provider, err := jwtinfra.NewProvider(&config.Config{JWT: jwtCfg})
	if err != nil {
		logg.Error(ctx, "loading keys", err)
		os.Exit(1)
	}
	token, err := provider.Sign(*userID, *email, *role, *locationID)
	if err != nil {
		logg.Error(ctx, "signing token", err)
		os.Exit(1)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"user_id": *userID, "role": *role}), "token minted")
	fmt.Println(token)
}
