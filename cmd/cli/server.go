package main

import (
	"fmt"
	"strings"

	"kisanrakshak/adapters/postgres"
	"kisanrakshak/app"
	"kisanrakshak/internal/config"
	"kisanrakshak/internal/errors"
	"kisanrakshak/internal/server"
	"kisanrakshak/models"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. Pending migrations are applied on startup and the
background scheduler runs when SCHEDULER_ENABLED is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				cfg.Server.Port = port
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return server.Run(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := server.Migrate(cmd.Context(), cfg, logger); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	}
}

func newGrantRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant-role <phone> <farmer|reviewer|admin>",
		Short: "Set the role of a registered user",
		Long: `Set the role of the user registered with a phone number. Reviewers and
admins may move other farmers' insurance claims through review.

Example: kisan grant-role 9876543210 reviewer`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := strings.ToLower(args[1])
			if !models.ValidRole(role) {
				return errors.ValidationError(fmt.Sprintf("unknown role %q", args[1]))
			}

			db, err := server.OpenDatabase(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			users := app.NewUserService(postgres.NewUserRepository(db), logger)
			user, err := users.GrantRole(cmd.Context(), args[0], role)
			if err != nil {
				return err
			}
			cmd.Println(titleStyle.Render(fmt.Sprintf("%s (%s) is now %s", user.Name, user.Phone, user.Role)))
			return nil
		},
	}
}
