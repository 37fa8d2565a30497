package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"taxsavings-backend/internal/admin"
	"taxsavings-backend/internal/app"
	"taxsavings-backend/internal/config"
	"taxsavings-backend/internal/leads"

	"github.com/spf13/cobra"
)

func newSeedAdminCmd() *cobra.Command {
	var username, email, passwordEnv string

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an admin account in the users collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			password := os.Getenv(passwordEnv)
			if password == "" {
				return fmt.Errorf("%s is not set", passwordEnv)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			stores, err := app.OpenStores(ctx, cfg, app.NewLogger(cfg))
			if err != nil {
				return err
			}
			defer stores.Close()
			if stores.Users == nil {
				return errors.New("admin accounts need LEAD_STORE=mongo")
			}

			user, err := admin.NewAuthenticator(stores.Users, "", "").CreateAdmin(ctx, username, email, password)
			if err != nil {
				if errors.Is(err, admin.ErrDuplicateUser) {
					fmt.Fprintf(cmd.OutOrStdout(), "admin %q already exists\n", username)
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "admin", "Admin username")
	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&passwordEnv, "password-env", "ADMIN_PASSWORD", "Environment variable holding the password")
	return cmd
}

func newLeadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Work with captured leads",
	}
	cmd.AddCommand(newLeadsExportCmd())
	return cmd
}

func newLeadsExportCmd() *cobra.Command {
	var outPath string
	var filter leads.ListFilter

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export leads to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := app.NewLogger(cfg)
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			stores, err := app.OpenStores(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer stores.Close()

			svc := leads.NewService(stores.Leads, leads.Options{Location: cfg.Timezone, Logger: logger})
			items, err := svc.Export(ctx, filter)
			if err != nil {
				return err
			}
			doc, err := leads.Workbook(items)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, doc, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d leads to %s\n", len(items), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "leads.xlsx", "Output file")
	cmd.Flags().StringVar(&filter.Status, "status", "", "Only leads with this status")
	cmd.Flags().StringVar(&filter.Stage, "stage", "", "Only leads in this pipeline stage")
	cmd.Flags().StringVar(&filter.Source, "source", "", "Only leads from this calculator")
	cmd.Flags().StringVar(&filter.Tag, "tag", "", "Only leads with this tag")
	return cmd
}
