// Command ledgerctl runs payout and ledger maintenance tasks from the shell
// and helps sign test webhooks and mint tokens against a local server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/glamspot/booking-backend/internal/app"
	"github.com/glamspot/booking-backend/internal/config"
	"github.com/glamspot/booking-backend/internal/database"
	"github.com/glamspot/booking-backend/internal/services"
	"github.com/glamspot/booking-backend/pkg/jwt"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "GlamSpot payment ledger maintenance",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(payoutsCmd())
	root.AddCommand(sweepCmd())
	root.AddCommand(signCmd())
	root.AddCommand(tokenCmd())

	return root
}

func payoutsCmd() *cobra.Command {
	payouts := &cobra.Command{
		Use:   "payouts",
		Short: "Scheduled payout tasks",
	}

	payouts.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the scheduled payout engine once",
		Long: `Runs the same payout pass as the weekly cron job.
The configured weekday, enabled flag and run lock still apply.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container) error {
				summary, err := c.Payouts.RunScheduled(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	})

	return payouts
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Insert missing payment rows for confirmed bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withContainer(cmd.Context(), func(ctx context.Context, c *app.Container) error {
				result, err := c.Reconciliation.Sweep(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().IntP("limit", "n", 200, "Maximum bookings to check")

	return cmd
}

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [file]",
		Short: "Print the x-gateway-signature for a webhook body",
		Long:  "Reads the body from file, or stdin when file is -, and prints its HMAC-SHA256 hex signature.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			if secret == "" {
				_ = godotenv.Load()
				secret = os.Getenv("GATEWAY_WEBHOOK_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("no webhook secret: pass --secret or set GATEWAY_WEBHOOK_SECRET")
			}

			var body []byte
			var err error
			if args[0] == "-" {
				body, err = io.ReadAll(cmd.InOrStdin())
			} else {
				body, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read body: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), services.NewSignatureVerifier(secret).Sign(body))
			return nil
		},
	}

	cmd.Flags().StringP("secret", "s", "", "Webhook secret (defaults to GATEWAY_WEBHOOK_SECRET)")

	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			if secret == "" {
				_ = godotenv.Load()
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("no jwt secret: pass --secret or set JWT_SECRET")
			}

			rawUser, _ := cmd.Flags().GetString("user")
			userID := uuid.New()
			if rawUser != "" {
				parsed, err := uuid.Parse(rawUser)
				if err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
				userID = parsed
			}

			roles, _ := cmd.Flags().GetStringSlice("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			token, err := jwt.NewService(secret, ttl).GenerateAccessToken(userID, "", roles, nil)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().String("secret", "", "JWT secret (defaults to JWT_SECRET)")
	cmd.Flags().StringP("user", "u", "", "User id (random when empty)")
	cmd.Flags().StringSliceP("role", "r", []string{jwt.RoleCustomer}, "Roles to embed")
	cmd.Flags().Duration("ttl", time.Hour, "Token lifetime")

	return cmd
}

// withContainer loads configuration, connects to the database and hands
// the wired services to fn
func withContainer(ctx context.Context, fn func(context.Context, *app.Container) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	container, err := app.Build(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	return fn(ctx, container)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
