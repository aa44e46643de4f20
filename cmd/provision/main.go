// Command provision creates user accounts directly in the configured
// database. Accounts cannot be created over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"list-manager/internal/bootstrap"
	"list-manager/internal/config"
	"list-manager/internal/domain"
	"list-manager/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "provision",
		Short:         "Provision list-manager accounts",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newUserCmd())
	return root
}

func newUserCmd() *cobra.Command {
	var username, password, email string

	cmd := &cobra.Command{
		Use:   "user",
		Short: "Create a user with a bcrypt hashed password",
		Example: `  provision user --username admin --password password123 --email admin@example.com
  LISTMGR_DATABASE_DRIVER=sqlite provision user --username dev --password dev`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return provisionUser(ctx, cmd, username, password, email)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name (required)")
	cmd.Flags().StringVar(&password, "password", "", "plain text password, stored as a bcrypt hash (required)")
	cmd.Flags().StringVar(&email, "email", "", "optional contact address")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func provisionUser(ctx context.Context, cmd *cobra.Command, username, password, email string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := bootstrap.NewLogger(cfg)
	logger.SetOutput(cmd.ErrOrStderr())
	if logger.GetLevel() > logrus.WarnLevel {
		logger.SetLevel(logrus.WarnLevel)
	}

	store, err := bootstrap.OpenStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("setup database: %w", err)
	}
	defer store.Close(context.Background())

	user, err := service.NewUserService(store.Users).Provision(ctx, username, password, email)
	if errors.Is(err, domain.ErrUserExists) {
		return fmt.Errorf("user %q already exists", username)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "User created with ID: %s\n", user.ID)
	return nil
}
