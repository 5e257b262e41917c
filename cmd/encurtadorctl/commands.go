package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-qr/internal/config"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/logger"
	"github.com/IgorGrieder/encurtador-qr/internal/processing/shortcode"
	postgresStorage "github.com/IgorGrieder/encurtador-qr/internal/storage/postgres"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "encurtadorctl",
		Short:         "Operator tooling for the encurtador-qr service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newSchemaCmd(), newHashCmd(), newDecodeCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema",
		Long:  "Connects with DB_DSN (or the DB_* variables) and applies the embedded schema. Safe to run repeatedly.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(config.GetEnv("APP_ENV", "development"), config.GetEnv("LOG_LEVEL", "info"), zap.String("component", "encurtadorctl")); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			pgConn, err := db.ConnectPostgres(ctx, config.GetEnv("DB_DSN", config.DefaultPostgresDSN()), "encurtadorctl")
			if err != nil {
				return err
			}
			defer pgConn.Close()

			if err := postgresStorage.Migrate(ctx, pgConn); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("schema applied", zap.Duration("timeout", timeout))
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall migration timeout")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the PostgreSQL schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), postgresStorage.Schema())
			return err
		},
	}
}

func newHashCmd() *cobra.Command {
	var (
		ip string
		at string
	)

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Derive the short code a client address would get at a given instant",
		Example: `  encurtadorctl hash --ip 203.0.113.7
  encurtadorctl hash --ip 203.0.113.7 --at 2024-01-01T12:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			when := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339Nano, at)
				if err != nil {
					return fmt.Errorf("--at must be RFC3339: %w", err)
				}
				when = parsed
			}

			seed := shortcode.Seed(ip, when)
			sum := shortcode.Checksum(seed)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seed:     %s\n", seed)
			fmt.Fprintf(out, "checksum: %d (%#08x)\n", sum, sum)
			fmt.Fprintf(out, "code:     %s\n", shortcode.EncodeBase62(sum))
			return nil
		},
	}
	cmd.Flags().StringVar(&ip, "ip", "", "client address")
	cmd.Flags().StringVar(&at, "at", "", "instant as RFC3339 (default now)")
	_ = cmd.MarkFlagRequired("ip")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <code>",
		Short: "Decode a Base62 short code back to its checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := shortcode.DecodeBase62(args[0])
			if err != nil {
				return fmt.Errorf("decode %q: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d (%#08x)\n", n, n)
			return nil
		},
	}
}
