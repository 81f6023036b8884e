package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"voxscribe/internal/adapter/repo"
	"voxscribe/internal/domain"
	"voxscribe/internal/events"
	"voxscribe/internal/infra"
)

func main() {
	var (
		idFlag     string
		emailFlag  string
		tokensFlag int64
	)

	flag.StringVar(&idFlag, "id", "", "user ID to credit (UUID)")
	flag.StringVar(&emailFlag, "email", "", "user email to credit")
	flag.Int64Var(&tokensFlag, "tokens", 0, "tokens to add; negative values remove tokens, never below zero")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)

	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	if userID != "" {
		if _, err := uuid.Parse(userID); err != nil {
			exitWithError(fmt.Errorf("invalid -id %q: %w", userID, err))
		}
	}
	if tokensFlag == 0 {
		exitWithError(errors.New("-tokens must be non-zero"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger(infra.LogOptions{Env: os.Getenv("APP_ENV"), Level: os.Getenv("LOG_LEVEL"), Component: "granttokens", Out: os.Stderr})
	runner := infra.NewSQLRunner(pool, logger)
	users := repo.NewUserRepository(runner)

	var user *domain.User
	if userID != "" {
		user, err = users.GetByID(ctx, userID)
	} else {
		user, err = users.GetByEmail(ctx, email)
	}
	if err != nil {
		exitWithError(fmt.Errorf("failed to load user: %w", err))
	}

	balance, err := users.GrantTokens(ctx, user.ID, tokensFlag)
	if err != nil {
		exitWithError(fmt.Errorf("failed to grant tokens: %w", err))
	}

	// Open dashboards pick the new balance up through the API's listener.
	broker := events.NewPGBroker(nil, runner, nil, logger)
	if ev, err := events.New(events.TypeProfileUpdated, user.ID, map[string]int64{"tokens": balance}); err == nil {
		if err := broker.Publish(ctx, ev); err != nil {
			logger.Warn().Err(err).Msg("balance notification failed")
		}
	}

	fmt.Printf("User %s (%s) balance: %d -> %d\n", user.ID, user.Email, user.Tokens, balance)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
