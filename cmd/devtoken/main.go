package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/noah-isme/tutor-shift-api/internal/models"
	"github.com/noah-isme/tutor-shift-api/internal/service"
	"github.com/noah-isme/tutor-shift-api/pkg/config"
)

// devtoken mints a bearer token for local testing against the configured JWT secret.
func main() {
	var (
		userID   string
		role     string
		fullName string
		ttl      time.Duration
	)
	flag.StringVar(&userID, "user", "dev-user", "subject user id")
	flag.StringVar(&role, "role", string(models.RoleStaff), "OWNER, STAFF or TEACHER")
	flag.StringVar(&fullName, "name", "Developer", "display name")
	flag.DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Env == config.EnvProduction {
		log.Fatal("devtoken refuses to run with ENV=production")
	}

	auth := service.NewAuthService(service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: ttl,
		Issuer:            cfg.JWT.Issuer,
	}, service.NewSystemClock(cfg.Schedule.Timezone), nil)

	token, expiresAt, err := auth.IssueToken(userID, models.UserRole(role), fullName)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Println(token)
	log.Printf("expires at %s", expiresAt.Format(time.RFC3339))
}
