package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"statusboard-backend/internal/clock"
	"statusboard-backend/internal/config"
	"statusboard-backend/internal/database"
	"statusboard-backend/internal/services"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report users whose status record is behind their latest log entry",
	RunE:  runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	auditor := services.NewConsistencyAuditor(st.users, st.statuses, st.logs, clock.Real{}, cfg.AuditInterval, logger)
	found := auditor.RunOnce(ctx)

	out := cmd.OutOrStdout()
	for _, d := range found {
		if d.MissingStatus {
			fmt.Fprintf(out, "%s: no status record, last log %s -> %s\n", d.User, d.LastLogAt.Format(time.RFC3339), d.LastLogStatus)
			continue
		}
		fmt.Fprintf(out, "%s: status updated %s, last log %s -> %s\n",
			d.User, d.UpdatedAt.Format(time.RFC3339), d.LastLogAt.Format(time.RFC3339), d.LastLogStatus)
	}
	fmt.Fprintf(out, "%d divergent user(s)\n", len(found))
	return nil
}
