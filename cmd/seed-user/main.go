// seed-user creates a login, or resets its password when the email is already registered.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	SEED_EMAIL=chef@example.com SEED_PASSWORD=... go run ./cmd/seed-user
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/recipe_backend/config"
	"bitbucket.org/mmdatafocus/recipe_backend/models"
	"bitbucket.org/mmdatafocus/recipe_backend/utils"
)

const defaultName = "Kitchen Admin"

func main() {
	ctx := context.Background()
	email := strings.TrimSpace(os.Getenv("SEED_EMAIL"))
	password := os.Getenv("SEED_PASSWORD")
	name := strings.TrimSpace(os.Getenv("SEED_NAME"))
	if name == "" {
		name = defaultName
	}
	if email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "SEED_EMAIL and SEED_PASSWORD are required.")
		os.Exit(2)
	}

	input := &models.NewUser{Email: email, Name: name, Password: password}
	if err := utils.ValidateStruct(input); err != nil {
		fmt.Fprintf(os.Stderr, "invalid user: %v\n", err)
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	// user cache invalidation is a no-op when redis is not configured
	if strings.TrimSpace(os.Getenv("REDIS_ADDRESS")) != "" {
		config.ConnectRedisWithRetry()
	}
	if !config.SkipMigrations() {
		models.MigrateTable()
	}

	user, err := models.CreateUser(ctx, input)
	if err == nil {
		fmt.Printf("Created user: email=%q id=%s\n", user.Email, user.ID)
		return
	}
	if !errors.Is(err, utils.ErrDuplicateEmail) {
		fmt.Fprintf(os.Stderr, "failed to create user: %v\n", err)
		os.Exit(1)
	}

	user, err = models.SetUserPassword(ctx, email, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to update user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated password for user: email=%q id=%s\n", user.Email, user.ID)
}
