package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"statusboard-backend/internal/clock"
	"statusboard-backend/internal/config"
	"statusboard-backend/internal/database"
	"statusboard-backend/internal/models"
	"statusboard-backend/internal/services"
)

var createUserCmd = &cobra.Command{
	Use:   "create-user NAME PIN",
	Short: "Create an account with a 4-digit PIN (or the admin code)",
	Args:  cobra.ExactArgs(2),
	RunE:  runCreateUser,
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync()

	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClients.Close()

	st, err := openStores(cfg, redisClients, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	// Account creation never touches sessions or tokens.
	auth := services.NewAuthService(st.users, st.statuses, nil, nil, nil, cfg.AdminCode, clock.Real{}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := auth.CreateAccount(ctx, models.CreateAccountRequest{Name: args[0], Pin: args[1]}); err != nil {
		if verr, ok := err.(*services.ValidationError); ok {
			return fmt.Errorf("invalid input: %v", verr.Fields)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", args[0])
	return nil
}
