package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/IMRiesen/avitolike/internal/agent"
	"github.com/IMRiesen/avitolike/internal/bootstrap"
	"github.com/IMRiesen/avitolike/internal/config"
	"github.com/IMRiesen/avitolike/internal/server"
	"github.com/IMRiesen/avitolike/pkg/database"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "avitolike",
		Short:         "Classifieds marketplace API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServerCmd(), newMigrateCmd(), newAgentCmd())
	return root
}

func newServerCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API",
		Long: `Runs the HTTP API. Tables are migrated and roles and default
categories are seeded before the server starts listening.

	avitolike server
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := setup()
			if err != nil {
				return err
			}

			if !skipMigrate {
				if err := bootstrap.Run(db); err != nil {
					return err
				}
			}

			redisClient, err := connectRedis(cmd.Context(), cfg.RedisURL)
			if err != nil {
				return err
			}
			if redisClient != nil {
				defer redisClient.Close()
			}

			srv, err := server.NewServer(cfg, db, redisClient)
			if err != nil {
				return fmt.Errorf("failed to build server: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "start without migrating and seeding")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Migrate tables and seed roles and categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := setup()
			if err != nil {
				return err
			}
			if err := bootstrap.Run(db); err != nil {
				return err
			}
			logrus.Info("migration completed")
			return nil
		},
	}
}

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Inspect and run maintenance agents",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			scheduler, cleanup, err := setupScheduler(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			for _, name := range scheduler.RegisteredAgents() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "run <name>",
		Short: "Run one agent immediately",
		Example: `  avitolike agent run search-reindexer
  avitolike agent run view-history-pruner`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scheduler, cleanup, err := setupScheduler(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			return scheduler.RunAgentByName(cmd.Context(), args[0])
		},
	})

	return cmd
}

func setupScheduler(ctx context.Context) (*agent.Scheduler, func(), error) {
	cfg, db, err := setup()
	if err != nil {
		return nil, nil, err
	}

	redisClient, err := connectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	scheduler, err := server.NewScheduler(cfg, db, redisClient)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return scheduler, cleanup, nil
}

func setup() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	setupLogger(cfg)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func setupLogger(cfg *config.Config) {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// connectRedis returns nil when no URL is configured.
func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		logrus.Warn("REDIS_URL not set, caching and live notifications disabled")
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
