// Command alertctl runs one-shot maintenance operations against the alert store.
//
// Usage:
//
//	alertctl migrate-followers
//	alertctl cleanup-legacy --yes
//	alertctl cleanup-tokens
//	alertctl diagnose
//	alertctl run-scheduled
//	alertctl dispatch <orgId> <alertId>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"orgalerts/bootstrap"
	"orgalerts/config"
	"orgalerts/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// operator is the identity maintenance commands run as.
var operator = utils.Identity{UserID: "alertctl", Role: utils.RoleAdmin}

func main() {
	root := &cobra.Command{
		Use:          "alertctl",
		Short:        "Organization alert maintenance CLI",
		SilenceUsage: true,
	}

	root.AddCommand(migrateFollowersCmd())
	root.AddCommand(cleanupLegacyCmd())
	root.AddCommand(cleanupTokensCmd())
	root.AddCommand(diagnoseCmd())
	root.AddCommand(runScheduledCmd())
	root.AddCommand(dispatchCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func migrateFollowersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-followers",
		Short: "Copy the legacy follower list into per-organization follower records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *bootstrap.App) error {
				report, err := app.Admin.MigrateFollowers(ctx, operator)
				if err != nil {
					return err
				}
				return printJSON(report)
			})
		},
	}
}

func cleanupLegacyCmd() *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "cleanup-legacy",
		Short: "Delete the legacy follower list",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to delete legacy followers without --yes")
			}
			return withApp(func(ctx context.Context, app *bootstrap.App) error {
				report, err := app.Admin.CleanupLegacyFollowers(ctx, operator)
				if err != nil {
					return err
				}
				return printJSON(report)
			})
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm deletion")
	return cmd
}

func cleanupTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-tokens",
		Short: "Clear delivery tokens that are too short to be valid",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *bootstrap.App) error {
				report, err := app.Admin.CleanupInvalidTokens(ctx, operator)
				if err != nil {
					return err
				}
				return printJSON(report)
			})
		},
	}
}

func diagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose",
		Short: "Report push delivery configuration and backend health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *bootstrap.App) error {
				d, err := app.Admin.DiagnoseConfiguration(ctx, operator)
				if err != nil {
					return err
				}
				return printJSON(d)
			})
		},
	}
}

func runScheduledCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-scheduled",
		Short: "Fire every due scheduled alert once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *bootstrap.App) error {
				res, err := app.Executor.RunOnce(ctx)
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
}

func dispatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch <orgId> <alertId>",
		Short: "Run the notification fan-out for an existing alert again",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *bootstrap.App) error {
				alert, err := app.Alerts.GetByID(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				out, err := app.Pipeline.Redispatch(ctx, alert)
				if err != nil {
					return err
				}
				return printJSON(out)
			})
		},
	}
}

func withApp(fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	app, err := bootstrap.Build(ctx, logger)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer app.Close()

	if err := fn(ctx, app); err != nil {
		logger.Error("command failed", zap.Error(err))
		return err
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
